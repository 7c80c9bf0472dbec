package meta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestReadBasics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	if err := os.WriteFile(path, []byte("hello"), 0640); err != nil {
		t.Fatal(err)
	}

	m, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Size != 5 {
		t.Errorf("size = %d, want 5", m.Size)
	}
	if m.Mode.Perm() != 0640 {
		t.Errorf("mode = %o, want 640", m.Mode.Perm())
	}
	if m.UID != uint32(os.Getuid()) {
		t.Errorf("uid = %d, want %d", m.UID, os.Getuid())
	}
}

func TestReadMissing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("payload"), 0604); err != nil {
		t.Fatal(err)
	}

	atime := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	mtime := time.Date(2023, 3, 1, 9, 30, 0, 0, time.UTC)
	if err := os.Chtimes(src, atime, mtime); err != nil {
		t.Fatal(err)
	}

	m, err := Read(src)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(dst, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	ApplyOwnership(m, dst, zap.NewNop())
	if err := ApplyTimes(m, dst); err != nil {
		t.Fatal(err)
	}

	got, err := Read(dst)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode.Perm() != 0604 {
		t.Errorf("mode = %o, want 604", got.Mode.Perm())
	}
	if !got.Mtime.Equal(mtime) {
		t.Errorf("mtime = %v, want %v", got.Mtime, mtime)
	}
	if !got.Atime.Equal(atime) {
		t.Errorf("atime = %v, want %v", got.Atime, atime)
	}
}

func TestApplyTimesMissingTarget(t *testing.T) {
	m := FileMeta{Atime: time.Now(), Mtime: time.Now()}
	if err := ApplyTimes(m, filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing target")
	}
}
