// Package httptransport assembles the HTTP surface: lookup endpoints,
// health and metrics, and the cross-cutting middleware chain.
package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"locator/internal/lookup/handler"
	"locator/pkg/platform/middleware/requestid"
)

// Health reports readiness of a backing dependency.
type Health interface {
	Health(ctx context.Context) error
}

// NewRouter wires all endpoints. Transport concerns stay here; the lookup
// handler delegates to the service layer.
func NewRouter(h *handler.Handler, version string, deps map[string]Health) chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.RequestID)

	r.Get("/healthz", handleHealthz(version, deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.Register(r)
	return r
}

// handleHealthz reports liveness plus the state of each named dependency.
// Degraded dependencies flip the status but not the HTTP code; the process
// is still alive and serving from whatever still works.
func handleHealthz(version string, deps map[string]Health) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		depState := make(map[string]string, len(deps))
		for name, dep := range deps {
			if err := dep.Health(r.Context()); err != nil {
				depState[name] = err.Error()
				status = "degraded"
			} else {
				depState[name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       status,
			"version":      version,
			"dependencies": depState,
		})
	}
}
