// Package crawl walks tier pool directories and produces the per-pass
// file inventory.
package crawl

import (
	"io/fs"
	"path/filepath"
	"regexp"

	"github.com/gftdcojp/tierfs/internal/meta"
	"github.com/gftdcojp/tierfs/internal/tier"
	"go.uber.org/zap"
)

// excludePattern matches editor swap and lock artifacts that must never
// be enrolled: .*.swp, .~lock.*#, ~$*.
var excludePattern = regexp.MustCompile(`^\..*\.swp$|^\.~lock\..*#$|^~\$`)

// PriorityFunc assigns the opaque rank used for tier placement. Higher
// means the file belongs in a faster tier.
type PriorityFunc func(m meta.FileMeta) uint64

// AtimePriority is the default policy: most recently accessed first.
func AtimePriority(m meta.FileMeta) uint64 {
	sec := m.Atime.Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec)
}

// Crawler produces FileRecords for the regular files under a tier root.
type Crawler struct {
	priority PriorityFunc
	logger   *zap.Logger
}

func New(priority PriorityFunc, logger *zap.Logger) *Crawler {
	if priority == nil {
		priority = AtimePriority
	}
	return &Crawler{priority: priority, logger: logger}
}

// Crawl walks the tier rooted at spec.Dir depth-first in lexical order
// and returns one record per regular non-symlink file, excluding editor
// and lock artifacts. Symlinks are the shim, not content: they are never
// followed and never enrolled. Unreadable paths are logged and skipped;
// the crawl continues.
func (c *Crawler) Crawl(tierIndex int, spec tier.TierSpec) []*tier.FileRecord {
	c.logger.Debug("gathering file list", zap.String("tier", spec.ID), zap.String("dir", spec.Dir))

	var records []*tier.FileRecord
	err := filepath.WalkDir(spec.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Warn("crawl error, skipping path",
				zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if excludePattern.MatchString(d.Name()) {
			c.logger.Debug("excluded by pattern", zap.String("path", path))
			return nil
		}
		info, err := d.Info()
		if err != nil {
			c.logger.Warn("stat failed, skipping file",
				zap.String("path", path), zap.Error(err))
			return nil
		}
		rel, err := filepath.Rel(spec.Dir, path)
		if err != nil {
			c.logger.Warn("relative key failed, skipping file",
				zap.String("path", path), zap.Error(err))
			return nil
		}
		m := meta.FromFileInfo(info)
		records = append(records, &tier.FileRecord{
			OldPath:   path,
			TierIndex: tierIndex,
			RelKey:    rel,
			Meta:      m,
			Priority:  c.priority(m),
		})
		return nil
	})
	if err != nil {
		// WalkDir only returns an error from the callback; ours never does.
		c.logger.Warn("crawl aborted", zap.String("dir", spec.Dir), zap.Error(err))
	}

	c.logger.Debug("file list gathered",
		zap.String("tier", spec.ID), zap.Int("files", len(records)))
	return records
}
