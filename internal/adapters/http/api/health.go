package api

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Dependency states reported by a HealthReporter.
const (
	StatusHealthy       = "healthy"
	StatusNotConfigured = "not configured"
	StatusUnhealthy     = "unhealthy"
)

// HealthReport describes the active backend and its dependencies.
// Dependency values start with StatusHealthy, StatusNotConfigured or StatusUnhealthy.
// They are served as is, so causes belong in logs, not here.
type HealthReport struct {
	Backend      string
	Dependencies map[string]string
}

// HealthReporter probes the running service.
type HealthReporter interface {
	Health(ctx context.Context) HealthReport
}

type healthResponse struct {
	Status       string            `json:"status"`
	Backend      string            `json:"backend"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	reporter  HealthReporter
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(reporter HealthReporter) *HealthHandler {
	return &HealthHandler{reporter: reporter, startTime: time.Now()}
}

// HandleHealth handles GET /healthz: 200 when every dependency is usable,
// 503 with status "degraded" otherwise.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.reporter.Health(r.Context())
	if report.Dependencies == nil {
		report.Dependencies = map[string]string{}
	}

	status, code := StatusHealthy, http.StatusOK
	for _, v := range report.Dependencies {
		if strings.HasPrefix(v, StatusUnhealthy) {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, healthResponse{
		Status:       status,
		Backend:      report.Backend,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Dependencies: report.Dependencies,
	})
}
