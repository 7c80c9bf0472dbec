package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/gftdcojp/tierfs/internal/config"
	"github.com/gftdcojp/tierfs/internal/crawl"
	"github.com/gftdcojp/tierfs/internal/metrics"
	"github.com/gftdcojp/tierfs/internal/tier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "/etc/tierfs/config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version")
	writeConfig := flag.Bool("write-config", false, "generate a stub config file and exit")
	once := flag.Bool("once", false, "run a single tiering pass and exit")
	dryRun := flag.Bool("dry-run", false, "print the intended placement without moving anything")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tierfs %s\n", version)
		os.Exit(0)
	}

	if *writeConfig {
		if err := config.WriteDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *configPath)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Observability.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *once, *dryRun); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("fatal error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, once, dryRun bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tiers := make([]tier.TierSpec, len(cfg.Tiers))
	for i, tc := range cfg.Tiers {
		tiers[i] = tier.TierSpec{
			ID:           tc.ID,
			Dir:          tc.Dir,
			WatermarkPct: tc.WatermarkPct,
		}
	}

	engine, err := tier.NewEngine(tier.EngineConfig{
		Tiers:   tiers,
		Crawler: crawl.New(nil, logger.Named("crawl")),
		Logger:  logger.Named("tier"),
	})
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	if dryRun {
		return printPlan(ctx, engine, os.Stdout)
	}

	interval := cfg.Policy.Interval.Duration()
	if once || interval <= 0 {
		_, err := engine.RunPass(ctx)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return engine.RunLoop(gctx, interval) })

	if cfg.Observability.Metrics.Enabled {
		g.Go(func() error { return metrics.RunServer(gctx, cfg.Observability.Metrics) })
	}

	if cfg.Observability.Health.Enabled {
		checker := metrics.NewHealthChecker(cfg.Tiers)
		g.Go(func() error {
			return metrics.RunHealthServer(gctx, cfg.Observability.Health, checker)
		})
	}

	logger.Info("tierfs started",
		zap.String("version", version),
		zap.Int("tiers", len(cfg.Tiers)),
		zap.Duration("interval", interval),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printPlan(ctx context.Context, engine *tier.Engine, out *os.File) error {
	incoming, err := engine.Plan(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIER\tFILE\tSIZE\tFROM")
	tiers := engine.Tiers()
	for i, files := range incoming {
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				tiers[i].ID,
				f.RelKey,
				humanize.IBytes(uint64(f.Size())),
				tiers[f.TierIndex].ID,
			)
		}
	}
	return w.Flush()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	switch cfg.Level {
	case "silent":
		zapCfg.Level.SetLevel(zap.ErrorLevel)
	case "debug":
		zapCfg.Level.SetLevel(zap.DebugLevel)
	default:
		zapCfg.Level.SetLevel(zap.InfoLevel)
	}

	return zapCfg.Build()
}
