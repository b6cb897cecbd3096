package main

import (
	"encoding/json"
	"net/http"

	"github.com/rickgao/easybook-chat/internal/connection"
	"github.com/rickgao/easybook-chat/internal/metrics"
)

// createHealthHandler creates the HTTP handler for health checks and metrics.
func createHealthHandler(mgr connection.Manager, mt *metrics.Metrics, metricsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := mgr.Stats()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		health.Components["chat"] = map[string]interface{}{
			"state":        stats.State.String(),
			"attempts":     stats.Attempts,
			"max_attempts": stats.MaxAttempts,
		}
		health.Components["sessions"] = stats.Sessions

		switch {
		case stats.Exhausted:
			health.Status = "unhealthy"
		case stats.State != connection.StateOpen:
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	if mt != nil {
		mux.Handle(metricsPath, mt.Handler())
	}

	return mux
}
