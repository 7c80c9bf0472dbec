package tier

import (
	"testing"
	"time"

	"github.com/gftdcojp/tierfs/internal/meta"
)

func rec(path string, priority uint64, atime time.Time) *FileRecord {
	return &FileRecord{
		OldPath:  path,
		RelKey:   path,
		Priority: priority,
		Meta:     meta.FileMeta{Atime: atime},
	}
}

func TestSortRecordsPriorityDescending(t *testing.T) {
	now := time.Now()
	files := []*FileRecord{
		rec("low", 10, now),
		rec("high", 30, now),
		rec("mid", 20, now),
	}

	SortRecords(files)

	want := []string{"high", "mid", "low"}
	for i, name := range want {
		if files[i].OldPath != name {
			t.Errorf("position %d = %s, want %s", i, files[i].OldPath, name)
		}
	}
}

func TestSortRecordsAtimeTieBreak(t *testing.T) {
	now := time.Now()
	files := []*FileRecord{
		rec("stale", 5, now.Add(-time.Hour)),
		rec("fresh", 5, now),
	}

	SortRecords(files)

	if files[0].OldPath != "fresh" {
		t.Errorf("expected most recently accessed first, got %s", files[0].OldPath)
	}
}

func TestSortRecordsStable(t *testing.T) {
	now := time.Now()
	files := []*FileRecord{
		rec("first", 7, now),
		rec("second", 7, now),
		rec("third", 7, now),
	}

	SortRecords(files)

	want := []string{"first", "second", "third"}
	for i, name := range want {
		if files[i].OldPath != name {
			t.Errorf("position %d = %s, want %s (equal keys must keep order)", i, files[i].OldPath, name)
		}
	}
}
