package tier

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gftdcojp/tierfs/internal/metrics"
	"github.com/gftdcojp/tierfs/pkg/fsutil"
	"go.uber.org/zap"
)

// Crawler produces the inventory of one tier. Implemented by
// crawl.Crawler; the engine only needs this one method.
type Crawler interface {
	Crawl(tierIndex int, spec TierSpec) []*FileRecord
}

// EngineConfig holds dependencies for the tiering engine.
type EngineConfig struct {
	Tiers   []TierSpec
	Crawler Crawler
	Logger  *zap.Logger

	// Copy overrides the mover's byte-copy step; nil for the default.
	Copy func(src, dst string) error
}

// Engine runs tiering passes: crawl every tier, order the namespace
// globally, simulate placement against watermark budgets, then move.
// The engine is the only component that sees the tier list as a whole.
type Engine struct {
	tiers   []TierSpec
	crawler Crawler
	mover   *Mover
	logger  *zap.Logger
}

// NewEngine validates the tier list and assembles an engine. Validation
// failures are fatal: a pass is never attempted against a bad tier set.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if len(cfg.Tiers) < 2 {
		return nil, fmt.Errorf("at least two tiers required, got %d", len(cfg.Tiers))
	}
	for _, t := range cfg.Tiers {
		info, err := os.Stat(t.Dir)
		if err != nil {
			return nil, fmt.Errorf("tier %s: dir %s: %w", t.ID, t.Dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("tier %s: %s is not a directory", t.ID, t.Dir)
		}
		if t.WatermarkPct < 0 || t.WatermarkPct > 100 {
			return nil, fmt.Errorf("tier %s: watermark_pct must be in [0,100], got %d", t.ID, t.WatermarkPct)
		}
	}
	return &Engine{
		tiers:   cfg.Tiers,
		crawler: cfg.Crawler,
		mover: NewMover(MoverConfig{
			Tiers:  cfg.Tiers,
			Logger: cfg.Logger,
			Copy:   cfg.Copy,
		}),
		logger: cfg.Logger,
	}, nil
}

// Tiers returns the ordered tier list, fastest first.
func (e *Engine) Tiers() []TierSpec {
	return e.tiers
}

// Plan crawls every tier, sorts the global namespace, and simulates
// placement. No file is touched. The result holds the intended incoming
// list per tier, in tier order.
func (e *Engine) Plan(ctx context.Context) ([][]*FileRecord, error) {
	var files []*FileRecord
	for i, spec := range e.tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records := e.crawler.Crawl(i, spec)
		metrics.FilesCrawled.WithLabelValues(spec.ID).Set(float64(len(records)))
		files = append(files, records...)
	}

	SortRecords(files)
	e.dumpInventory(files)

	budgets := make([]int64, len(e.tiers))
	for i, spec := range e.tiers {
		b, err := fsutil.CapacityBytes(spec.Dir, spec.WatermarkPct)
		if err != nil {
			// Budget indeterminate; placing anything would be a guess.
			return nil, fmt.Errorf("tier %s budget: %w", spec.ID, err)
		}
		budgets[i] = b
	}

	return Simulate(files, budgets), nil
}

// RunPass executes one end-to-end tiering pass. ctx is consulted before
// each tier's crawl and once more before moving; the pass runs to
// completion once moving begins.
func (e *Engine) RunPass(ctx context.Context) (PassSummary, error) {
	start := time.Now()
	e.logger.Info("tiering pass started", zap.Int("tiers", len(e.tiers)))

	incoming, err := e.Plan(ctx)
	if err != nil {
		return PassSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return PassSummary{}, err
	}

	var summary PassSummary
	for i, tierFiles := range incoming {
		summary.Enrolled += len(tierFiles)
		e.logger.Debug("placement",
			zap.String("tier", e.tiers[i].ID),
			zap.Int("incoming", len(tierFiles)))
	}
	summary.Crawled = summary.Enrolled

	stats := e.mover.MoveAll(incoming)
	summary.Moved = stats.Moved
	summary.Skipped = stats.Skipped
	summary.VerifyFailures = stats.VerifyFailures
	summary.SymlinkFailures = stats.SymlinkFailures
	summary.BytesMoved = stats.BytesMoved

	for _, spec := range e.tiers {
		if pct, err := fsutil.UsagePct(spec.Dir); err == nil {
			metrics.TierUsagePct.WithLabelValues(spec.ID).Set(float64(pct))
		}
	}
	metrics.PassesTotal.Inc()
	metrics.PassDuration.Observe(time.Since(start).Seconds())

	e.logger.Info("tiering pass complete",
		zap.Int("crawled", summary.Crawled),
		zap.Int("moved", summary.Moved),
		zap.Int("skipped", summary.Skipped),
		zap.Int("verify_failures", summary.VerifyFailures),
		zap.Int("symlink_failures", summary.SymlinkFailures),
		zap.String("bytes_moved", humanize.IBytes(uint64(summary.BytesMoved))),
		zap.Duration("elapsed", time.Since(start)),
	)

	return summary, nil
}

// RunLoop executes passes on a fixed cadence until ctx is done. Only one
// pass runs at a time; the ticker simply paces successive passes.
func (e *Engine) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.RunPass(ctx); err != nil {
				e.logger.Error("tiering pass error", zap.Error(err))
			}
		}
	}
}

// dumpInventory logs the sorted namespace freshest-to-stalest at debug
// level.
func (e *Engine) dumpInventory(files []*FileRecord) {
	if !e.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	for _, f := range files {
		e.logger.Debug("inventory",
			zap.Uint64("priority", f.Priority),
			zap.Time("atime", f.Meta.Atime),
			zap.String("tier", e.tiers[f.TierIndex].ID),
			zap.String("path", f.OldPath),
		)
	}
}
