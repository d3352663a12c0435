package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"halomind/pkg/logger"
)

// Checks are the readiness probes of the service
type Checks struct {
	Credential func() bool
	Store      func(ctx context.Context) error
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	checks      Checks
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(log *logger.Logger, checks Checks, serviceName, version string) *Handler {
	return &Handler{
		log:         log.With("component", "health"),
		checks:      checks,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks,omitempty"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleHealth reports service metadata without probing dependencies
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status("healthy", nil))
}

// HandleReadiness requires a configured credential and a reachable settings store
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]ComponentHealth{
		"credential": h.checkCredential(),
		"store":      h.checkStore(ctx),
	}

	allHealthy := true
	for _, c := range checks {
		if c.Status != "healthy" {
			allHealthy = false
		}
	}

	if !allHealthy {
		h.log.Warnw("readiness check failed", "checks", checks)
		writeJSON(w, http.StatusServiceUnavailable, h.status("unhealthy", checks))
		return
	}
	writeJSON(w, http.StatusOK, h.status("healthy", checks))
}

func (h *Handler) status(state string, checks map[string]ComponentHealth) HealthStatus {
	return HealthStatus{
		Status:    state,
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
}

func (h *Handler) checkCredential() ComponentHealth {
	if h.checks.Credential == nil || !h.checks.Credential() {
		return ComponentHealth{Status: "unhealthy", Error: "no primary credential configured"}
	}
	return ComponentHealth{Status: "healthy"}
}

func (h *Handler) checkStore(ctx context.Context) ComponentHealth {
	if h.checks.Store == nil {
		return ComponentHealth{Status: "healthy"}
	}

	start := time.Now()
	err := h.checks.Store(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: elapsed.String(), Error: err.Error()}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: elapsed.String()}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
