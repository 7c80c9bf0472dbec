package tier

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gftdcojp/tierfs/internal/meta"
	"go.uber.org/zap"
)

// fakeCrawler returns canned records per tier index.
type fakeCrawler struct {
	byTier map[int][]*FileRecord
}

func (c *fakeCrawler) Crawl(tierIndex int, _ TierSpec) []*FileRecord {
	return c.byTier[tierIndex]
}

func TestNewEngineRejectsSingleTier(t *testing.T) {
	_, err := NewEngine(EngineConfig{
		Tiers:   []TierSpec{{ID: "only", Dir: t.TempDir(), WatermarkPct: 50}},
		Crawler: &fakeCrawler{},
		Logger:  zap.NewNop(),
	})
	if err == nil {
		t.Error("expected error for single tier")
	}
}

func TestNewEngineRejectsMissingDir(t *testing.T) {
	_, err := NewEngine(EngineConfig{
		Tiers: []TierSpec{
			{ID: "fast", Dir: filepath.Join(t.TempDir(), "absent"), WatermarkPct: 80},
			{ID: "slow", Dir: t.TempDir(), WatermarkPct: 90},
		},
		Crawler: &fakeCrawler{},
		Logger:  zap.NewNop(),
	})
	if err == nil {
		t.Error("expected error for missing tier dir")
	}
}

func TestNewEngineRejectsBadWatermark(t *testing.T) {
	_, err := NewEngine(EngineConfig{
		Tiers: []TierSpec{
			{ID: "fast", Dir: t.TempDir(), WatermarkPct: 120},
			{ID: "slow", Dir: t.TempDir(), WatermarkPct: 90},
		},
		Crawler: &fakeCrawler{},
		Logger:  zap.NewNop(),
	})
	if err == nil {
		t.Error("expected error for out-of-range watermark")
	}
}

func TestRunPassKeepsResidentFile(t *testing.T) {
	tiers := testTiers(t)
	path := filepath.Join(tiers[0].Dir, "a")
	if err := os.WriteFile(path, []byte("1KiB of hot data"), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := meta.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	record := &FileRecord{
		OldPath:   path,
		TierIndex: 0,
		RelKey:    "a",
		Meta:      m,
		Priority:  uint64(m.Atime.Unix()),
	}

	engine, err := NewEngine(EngineConfig{
		Tiers:   tiers,
		Crawler: &fakeCrawler{byTier: map[int][]*FileRecord{0: {record}}},
		Logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatal(err)
	}

	summary, err := engine.RunPass(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// A small file in a roomy top tier stays put: no copy, no shim.
	if summary.Moved != 0 {
		t.Errorf("moved = %d, want 0", summary.Moved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file missing from top tier: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(tiers[1].Dir, "a")); !os.IsNotExist(err) {
		t.Error("lower tier must stay empty")
	}
}

func TestRunPassCancelledContext(t *testing.T) {
	tiers := testTiers(t)
	engine, err := NewEngine(EngineConfig{
		Tiers:   tiers,
		Crawler: &fakeCrawler{},
		Logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.RunPass(ctx); err == nil {
		t.Error("expected context error")
	}
}
