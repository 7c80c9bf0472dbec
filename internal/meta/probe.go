// Package meta probes and restores file metadata across tier moves:
// ownership, permission bits, and access/modify timestamps.
package meta

import (
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// FileMeta is the metadata triple preserved byte-for-byte across a move.
type FileMeta struct {
	UID   uint32
	GID   uint32
	Mode  fs.FileMode
	Atime time.Time
	Mtime time.Time
	Size  int64
}

// Read returns the metadata of the file at path. Symlinks are not
// followed; callers never enroll symlinks in the first place.
func Read(path string) (FileMeta, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileMeta{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return FromFileInfo(info), nil
}

// FromFileInfo converts an already-obtained FileInfo, avoiding a second
// stat during the crawl.
func FromFileInfo(info fs.FileInfo) FileMeta {
	m := FileMeta{
		Mode:  info.Mode().Perm(),
		Mtime: info.ModTime(),
		Size:  info.Size(),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		m.UID = st.Uid
		m.GID = st.Gid
		m.Atime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
	} else {
		m.Atime = m.Mtime
	}
	return m
}

// ApplyOwnership sets uid/gid then permission bits on dst. Both calls are
// best-effort: the copy has already committed the bytes, so a failure is
// logged and the move proceeds.
func ApplyOwnership(m FileMeta, dst string, logger *zap.Logger) {
	if err := os.Chown(dst, int(m.UID), int(m.GID)); err != nil {
		logger.Warn("chown failed",
			zap.String("path", dst),
			zap.Uint32("uid", m.UID),
			zap.Uint32("gid", m.GID),
			zap.Error(err),
		)
	}
	if err := os.Chmod(dst, m.Mode); err != nil {
		logger.Warn("chmod failed",
			zap.String("path", dst),
			zap.String("mode", m.Mode.String()),
			zap.Error(err),
		)
	}
}

// ApplyTimes restores access and modify times on dst.
func ApplyTimes(m FileMeta, dst string) error {
	if err := os.Chtimes(dst, m.Atime, m.Mtime); err != nil {
		return fmt.Errorf("restoring times on %s: %w", dst, err)
	}
	return nil
}
