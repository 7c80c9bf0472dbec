package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gftdcojp/tierfs/internal/config"
	"github.com/gftdcojp/tierfs/pkg/fsutil"
)

// HealthChecker reports process liveness and tier pool readiness.
type HealthChecker struct {
	tierDirs map[string]string
}

func NewHealthChecker(tiers []config.TierConfig) *HealthChecker {
	dirs := make(map[string]string, len(tiers))
	for _, t := range tiers {
		dirs[t.ID] = t.Dir
	}
	return &HealthChecker{tierDirs: dirs}
}

type healthStatus struct {
	Status string            `json:"status"`
	Tiers  map[string]string `json:"tiers,omitempty"`
}

// Liveness always reports ok while the process is up.
func (h *HealthChecker) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{Status: "ok"})
}

// Readiness reports ok only if every tier filesystem answers statfs.
func (h *HealthChecker) Readiness(w http.ResponseWriter, _ *http.Request) {
	status := healthStatus{Status: "ok", Tiers: make(map[string]string, len(h.tierDirs))}
	code := http.StatusOK
	for id, dir := range h.tierDirs {
		if _, err := fsutil.UsagePct(dir); err != nil {
			status.Tiers[id] = err.Error()
			status.Status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		status.Tiers[id] = "ok"
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// RunHealthServer starts the liveness/readiness HTTP server.
func RunHealthServer(ctx context.Context, cfg config.HealthConfig, checker *HealthChecker) error {
	mux := http.NewServeMux()
	liveness := cfg.LivenessPath
	if liveness == "" {
		liveness = "/healthz"
	}
	readiness := cfg.ReadinessPath
	if readiness == "" {
		readiness = "/readyz"
	}
	mux.HandleFunc(liveness, checker.Liveness)
	mux.HandleFunc(readiness, checker.Readiness)

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
