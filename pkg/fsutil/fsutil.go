// Package fsutil reports filesystem occupancy for tier pool directories.
package fsutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// UsagePct returns the integer percentage of used blocks on the
// filesystem hosting dir.
func UsagePct(dir string) (int, error) {
	return UsagePctWith(dir, 0)
}

// UsagePctWith returns the usage percentage after hypothetically adding
// size bytes to the filesystem hosting dir. Used to project whether a
// file can be promoted without exceeding a destination watermark.
func UsagePctWith(dir string, size int64) (int, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return -1, fmt.Errorf("statfs %s: %w", dir, err)
	}
	if st.Blocks == 0 {
		return -1, fmt.Errorf("statfs %s: zero block count", dir)
	}
	bfree := st.Bfree
	if size > 0 && st.Bsize > 0 {
		fileBlocks := uint64(size) / uint64(st.Bsize)
		if fileBlocks > bfree {
			bfree = 0
		} else {
			bfree -= fileBlocks
		}
	}
	return int((st.Blocks - bfree) * 100 / st.Blocks), nil
}

// CapacityBytes returns the absolute byte budget a tier may hold during a
// pass: total filesystem bytes scaled by the watermark percentage. The
// sentinel -1 is returned alongside the error when statfs fails, so the
// budget is unmistakably indeterminate.
func CapacityBytes(dir string, watermarkPct int) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return -1, fmt.Errorf("statfs %s: %w", dir, err)
	}
	total := int64(st.Blocks) * st.Bsize
	return total / 100 * int64(watermarkPct), nil
}

// FreeBytes returns the absolute free bytes on the filesystem hosting dir.
func FreeBytes(dir string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return -1, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return int64(st.Bavail) * st.Bsize, nil
}

// TotalBytes returns the size in bytes of the filesystem hosting dir.
func TotalBytes(dir string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return -1, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return int64(st.Blocks) * st.Bsize, nil
}
