package tier

import (
	"testing"

	"github.com/gftdcojp/tierfs/internal/meta"
)

func sized(path string, size int64) *FileRecord {
	return &FileRecord{
		OldPath: path,
		RelKey:  path,
		Meta:    meta.FileMeta{Size: size},
	}
}

func TestSimulateFillsTopFirst(t *testing.T) {
	files := []*FileRecord{
		sized("a", 100),
		sized("b", 100),
		sized("c", 100),
	}
	// Top holds two files (100+100 < 250, but 200+100 >= 250), rest spill.
	incoming := Simulate(files, []int64{250, 1000})

	if len(incoming[0]) != 2 {
		t.Fatalf("top tier enrolled %d, want 2", len(incoming[0]))
	}
	if len(incoming[1]) != 1 {
		t.Fatalf("bottom tier enrolled %d, want 1", len(incoming[1]))
	}
	if incoming[1][0].OldPath != "c" {
		t.Errorf("spilled file = %s, want c", incoming[1][0].OldPath)
	}
}

func TestSimulateBoundaryIsInclusive(t *testing.T) {
	// A file whose size exactly equals the remaining budget goes to the
	// next tier: the advance check is >=, not >.
	files := []*FileRecord{sized("exact", 512)}
	incoming := Simulate(files, []int64{512, 4096})

	if len(incoming[0]) != 0 {
		t.Errorf("top tier enrolled %d, want 0", len(incoming[0]))
	}
	if len(incoming[1]) != 1 {
		t.Errorf("bottom tier enrolled %d, want 1", len(incoming[1]))
	}
}

func TestSimulateOversizeLandsInBottom(t *testing.T) {
	// Larger than every budget: still enrolled, in the slowest tier.
	files := []*FileRecord{sized("huge", 1<<40)}
	incoming := Simulate(files, []int64{1024, 2048, 4096})

	if len(incoming[2]) != 1 {
		t.Fatalf("bottom tier enrolled %d, want 1", len(incoming[2]))
	}
	if len(incoming[0]) != 0 || len(incoming[1]) != 0 {
		t.Error("oversize file enrolled above the bottom tier")
	}
}

func TestSimulateEveryFileEnrolledOnce(t *testing.T) {
	var files []*FileRecord
	for i := 0; i < 50; i++ {
		files = append(files, sized("f", 64))
	}
	incoming := Simulate(files, []int64{512, 512, 512})

	total := 0
	for _, tierFiles := range incoming {
		total += len(tierFiles)
	}
	if total != len(files) {
		t.Errorf("enrolled %d files, want %d", total, len(files))
	}
}

func TestSimulateZeroWatermarkSkipsTier(t *testing.T) {
	files := []*FileRecord{sized("a", 1)}
	incoming := Simulate(files, []int64{0, 1024})

	if len(incoming[0]) != 0 {
		t.Error("zero-budget tier must enroll nothing")
	}
	if len(incoming[1]) != 1 {
		t.Error("file must land in the next tier")
	}
}

func TestSimulateNoFiles(t *testing.T) {
	incoming := Simulate(nil, []int64{100, 100})
	for i, tierFiles := range incoming {
		if len(tierFiles) != 0 {
			t.Errorf("tier %d enrolled %d files from empty input", i, len(tierFiles))
		}
	}
}
