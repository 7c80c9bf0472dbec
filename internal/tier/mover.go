package tier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gftdcojp/tierfs/internal/hash"
	"github.com/gftdcojp/tierfs/internal/meta"
	"github.com/gftdcojp/tierfs/internal/metrics"
	"go.uber.org/zap"
)

var (
	// ErrVerifyMismatch reports that source and destination hashes
	// differed after a copy. Both files are left in place.
	ErrVerifyMismatch = errors.New("copy verification mismatch")

	// ErrDestinationExists reports a collision with a file already at
	// the destination path, e.g. leftover from a crashed pass.
	ErrDestinationExists = errors.New("destination already exists")
)

// MoverConfig holds dependencies for the mover.
type MoverConfig struct {
	Tiers  []TierSpec
	Logger *zap.Logger

	// Copy overrides the byte-copy step. Nil means the default
	// file-to-file copy; tests inject faults here.
	Copy func(src, dst string) error
}

// Mover physically relocates enrolled files. Source deletion is gated on
// successful hash verification, so at any crash point the worst outcome
// is a duplicated file, never a lost one. A lower-tier file's shim is
// installed or replaced only after its copy committed (or the file was
// already in place); a promotion clears the old shim before copying into
// its path.
type Mover struct {
	tiers  []TierSpec
	logger *zap.Logger
	copy   func(src, dst string) error
}

// MoveStats aggregates outcomes across one MoveAll run.
type MoveStats struct {
	Moved           int
	Noops           int
	Skipped         int
	VerifyFailures  int
	CopyFailures    int
	SymlinkFailures int
	BytesMoved      int64
}

func NewMover(cfg MoverConfig) *Mover {
	m := &Mover{
		tiers:  cfg.Tiers,
		logger: cfg.Logger,
		copy:   cfg.Copy,
	}
	if m.copy == nil {
		m.copy = copyFile
	}
	return m
}

// MoveAll executes the placement, walking tiers in reverse order
// (slowest first) so the roomy cold tiers drain load off the small fast
// ones before anything is copied upward.
func (m *Mover) MoveAll(incoming [][]*FileRecord) MoveStats {
	var stats MoveStats
	for destIdx := len(incoming) - 1; destIdx >= 0; destIdx-- {
		for _, f := range incoming[destIdx] {
			m.moveFile(f, destIdx, &stats)
		}
	}
	return stats
}

func (m *Mover) moveFile(f *FileRecord, destIdx int, stats *MoveStats) {
	dest := m.tiers[destIdx]
	top := m.tiers[0]
	f.NewPath = f.DestPath(dest.Dir)
	f.SymlinkPath = f.DestPath(top.Dir)

	from := m.tiers[f.TierIndex].ID

	if destIdx == 0 {
		// Promotion target is the top tier: the previous shim occupies
		// the destination path and must be cleared first.
		if isSymlink(f.NewPath) {
			if err := os.Remove(f.NewPath); err != nil {
				m.logger.Error("removing stale shim failed",
					zap.String("path", f.NewPath), zap.Error(err))
				stats.Skipped++
				return
			}
		}
		m.commitCopy(f, from, dest.ID, stats)
		return
	}

	outcome := m.commitCopy(f, from, dest.ID, stats)
	if outcome != MoveCommitted && outcome != MoveNoop {
		return
	}

	// Install or refresh the shim so the file stays reachable through
	// its top-tier path.
	if isSymlink(f.SymlinkPath) {
		if err := os.Remove(f.SymlinkPath); err != nil {
			m.logger.Error("removing old shim failed",
				zap.String("path", f.SymlinkPath), zap.Error(err))
			stats.SymlinkFailures++
			metrics.SymlinkFailures.Inc()
			return
		}
	}
	if err := os.Symlink(f.NewPath, f.SymlinkPath); err != nil {
		// The data is committed at the destination; nothing is lost,
		// but the file is no longer reachable through the top tier.
		m.logger.Error("shim install failed",
			zap.String("symlink", f.SymlinkPath),
			zap.String("target", f.NewPath),
			zap.Error(err))
		stats.SymlinkFailures++
		metrics.SymlinkFailures.Inc()
	}
}

// commitCopy runs copy-with-verify and updates stats and metrics.
func (m *Mover) commitCopy(f *FileRecord, fromID, toID string, stats *MoveStats) MoveOutcome {
	outcome := m.copyWithVerify(f)
	switch outcome {
	case MoveCommitted:
		stats.Moved++
		stats.BytesMoved += f.Size()
		metrics.MoveOps.WithLabelValues(fromID, toID).Inc()
		metrics.MoveBytes.Add(float64(f.Size()))
	case MoveNoop:
		stats.Noops++
	case MoveSkipped:
		stats.Skipped++
	case MoveVerifyFailed:
		stats.VerifyFailures++
		metrics.VerifyFailures.Inc()
	case MoveCopyFailed:
		stats.CopyFailures++
		stats.Skipped++
	}
	return outcome
}

// copyWithVerify copies OldPath to NewPath, restores ownership and
// permissions, and deletes the source only after the two content hashes
// agree. Access and modify times are restored on the destination
// whether or not verification passed.
func (m *Mover) copyWithVerify(f *FileRecord) MoveOutcome {
	if f.OldPath == f.NewPath {
		return MoveNoop
	}

	if _, err := os.Lstat(f.NewPath); err == nil {
		m.logger.Error("destination collision, skipping move",
			zap.String("old_path", f.OldPath),
			zap.String("new_path", f.NewPath),
			zap.Error(ErrDestinationExists))
		return MoveSkipped
	}

	if err := os.MkdirAll(filepath.Dir(f.NewPath), 0755); err != nil {
		m.logger.Error("creating destination directory failed",
			zap.String("new_path", f.NewPath), zap.Error(err))
		return MoveCopyFailed
	}

	m.logger.Debug("copying",
		zap.String("from", f.OldPath), zap.String("to", f.NewPath))

	if err := m.copy(f.OldPath, f.NewPath); err != nil {
		m.logger.Error("copy failed",
			zap.String("from", f.OldPath),
			zap.String("to", f.NewPath),
			zap.Error(err))
		// Leave the source intact; clear any partial destination.
		if rmErr := os.Remove(f.NewPath); rmErr != nil && !os.IsNotExist(rmErr) {
			m.logger.Warn("removing partial destination failed",
				zap.String("path", f.NewPath), zap.Error(rmErr))
		}
		return MoveCopyFailed
	}

	meta.ApplyOwnership(f.Meta, f.NewPath, m.logger)

	outcome := m.verify(f)

	if err := meta.ApplyTimes(f.Meta, f.NewPath); err != nil {
		m.logger.Warn("restoring times failed",
			zap.String("path", f.NewPath), zap.Error(err))
	}
	return outcome
}

func (m *Mover) verify(f *FileRecord) MoveOutcome {
	srcHash, err := hash.File(f.OldPath)
	if err != nil {
		m.logger.Error("hashing source failed, leaving both files",
			zap.String("path", f.OldPath), zap.Error(err))
		return MoveVerifyFailed
	}
	dstHash, err := hash.File(f.NewPath)
	if err != nil {
		m.logger.Error("hashing destination failed, leaving both files",
			zap.String("path", f.NewPath), zap.Error(err))
		return MoveVerifyFailed
	}

	m.logger.Debug("copy hashes",
		zap.Uint64("src_hash", srcHash),
		zap.Uint64("dst_hash", dstHash))

	if srcHash != dstHash {
		// An external writer mutated the file mid-move, or the media
		// corrupted the copy. Leave both files for the operator.
		m.logger.Error("copy verification failed",
			zap.String("old_path", f.OldPath),
			zap.String("new_path", f.NewPath),
			zap.Uint64("src_hash", srcHash),
			zap.Uint64("dst_hash", dstHash),
			zap.Error(ErrVerifyMismatch))
		return MoveVerifyFailed
	}

	if err := os.Remove(f.OldPath); err != nil {
		// Destination is committed; a lingering source is a duplicate,
		// not a loss.
		m.logger.Error("removing source after verified copy failed",
			zap.String("path", f.OldPath), zap.Error(err))
	}
	return MoveCommitted
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying bytes: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}
	return nil
}
