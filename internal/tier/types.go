package tier

import (
	"path/filepath"

	"github.com/gftdcojp/tierfs/internal/meta"
)

// TierSpec describes one storage pool. Position in the engine's ordered
// tier list is the tier's speed rank: index 0 is the fastest ("top")
// tier, the last index the slowest. Neighbors are derived by index
// arithmetic; specs carry no back-references.
type TierSpec struct {
	// ID is the human label from the configuration.
	ID string

	// Dir is the absolute path to the pool root. It must be a directory
	// and should be the mount root of a filesystem distinct from every
	// other tier.
	Dir string

	// WatermarkPct bounds the fraction of the tier's filesystem the
	// engine may fill with tiered data in a single pass, in [0,100].
	WatermarkPct int
}

// FileRecord is one regular file observed by the crawl. Records are
// created during the crawl, mutated only by the mover, and discarded at
// the end of the pass.
type FileRecord struct {
	// OldPath is the absolute path where the crawler observed the file.
	OldPath string

	// TierIndex is the index into the engine's tier list of the tier
	// whose directory contains OldPath.
	TierIndex int

	// RelKey is the file's path relative to its tier root. It is the
	// file's logical identity and is preserved across tiers.
	RelKey string

	// Meta carries ownership, mode, timestamps, and size at observation
	// time, preserved byte-for-byte across a move.
	Meta meta.FileMeta

	// Priority is an opaque unsigned rank; higher belongs in a faster
	// tier. The default policy sets it to atime seconds since epoch.
	Priority uint64

	// NewPath and SymlinkPath are unset until placement and move.
	NewPath     string
	SymlinkPath string
}

// Size returns the byte length of the file at observation time.
func (f *FileRecord) Size() int64 {
	return f.Meta.Size
}

// DestPath returns the path the record occupies when placed in the tier
// rooted at dir.
func (f *FileRecord) DestPath(dir string) string {
	return filepath.Join(dir, f.RelKey)
}

// MoveOutcome classifies the result of one attempted relocation.
type MoveOutcome int

const (
	MoveCommitted MoveOutcome = iota
	MoveNoop
	MoveSkipped
	MoveVerifyFailed
	MoveCopyFailed
)

func (o MoveOutcome) String() string {
	switch o {
	case MoveCommitted:
		return "committed"
	case MoveNoop:
		return "noop"
	case MoveSkipped:
		return "skipped"
	case MoveVerifyFailed:
		return "verify_failed"
	case MoveCopyFailed:
		return "copy_failed"
	default:
		return "unknown"
	}
}

// PassSummary reports the outcome of one tiering pass.
type PassSummary struct {
	Crawled         int
	Enrolled        int
	Moved           int
	Skipped         int
	VerifyFailures  int
	SymlinkFailures int
	BytesMoved      int64
}
