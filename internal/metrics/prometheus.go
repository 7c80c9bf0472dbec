package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gftdcojp/tierfs/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Crawl metrics
	FilesCrawled = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tierfs_files_crawled",
		Help: "Regular files enrolled per tier during the last crawl",
	}, []string{"tier"})

	// Move metrics
	MoveOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tierfs_move_ops_total",
		Help: "Committed file relocations by source and destination tier",
	}, []string{"from_tier", "to_tier"})

	MoveBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tierfs_move_bytes_total",
		Help: "Total bytes relocated between tiers",
	})

	VerifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tierfs_verify_failures_total",
		Help: "Copies whose source and destination hashes disagreed",
	})

	SymlinkFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tierfs_symlink_failures_total",
		Help: "Shim installs or replacements that failed",
	})

	// Tier metrics
	TierUsagePct = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tierfs_tier_usage_pct",
		Help: "Filesystem usage percentage per tier at pass end",
	}, []string{"tier"})

	// Pass metrics
	PassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tierfs_passes_total",
		Help: "Completed tiering passes",
	})

	PassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tierfs_pass_duration_seconds",
		Help:    "End-to-end duration of a tiering pass",
		Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 1800, 3600},
	})
)

// RunServer starts the Prometheus metrics HTTP server.
func RunServer(ctx context.Context, cfg config.MetricsConfig) error {
	mux := http.NewServeMux()
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
