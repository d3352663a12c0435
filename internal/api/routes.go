package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"halomind/internal/adapters/config"
	"halomind/internal/api/health"
	"halomind/internal/metrics"
	"halomind/pkg/logger"
)

// RouterConfig selects the optional surfaces of the router
type RouterConfig struct {
	HTTP    config.HTTPConfig
	Metrics config.MetricsConfig
}

// NewRouter configures all application routes and middleware
func NewRouter(cfg RouterConfig, h *Handler, healthHandler *health.Handler, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log.With("component", "http")))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Provider"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/settings", func(r chi.Router) {
			r.Put("/credential", h.handleSetCredential)
			r.Delete("/credential", h.handleClearCredential)
			r.Get("/model", h.handleGetModel)
			r.Put("/model", h.handleSetModel)
		})
		r.Get("/usage", h.handleUsage)

		// Streaming endpoints (text/event-stream)
		r.Post("/notes/stream", h.handleNotesStream)
		r.Post("/rephrase/stream", h.handleRephraseStream)

		r.Post("/quiz", h.handleQuiz)
		r.Post("/quiz/adaptive", h.handleAdaptiveQuiz)
		r.Post("/flashcards", h.handleFlashcards)
		r.Post("/explainer", h.handleExplainer)
		r.Post("/diagram", h.handleDiagram)
		r.Post("/script", h.handleScript)
		r.Post("/speech", h.handleSpeech)
		r.Post("/analyze/image", h.handleAnalyzeImage)
		r.Post("/analyze/video", h.handleAnalyzeVideo)
		r.Post("/extract", h.handleExtract)
		r.Post("/schedule", h.handleSchedule)
		r.Post("/course-from-image", h.handleCourseFromImage)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", h.handleCreateChat)
			r.Get("/{id}", h.handleGetChat)
			r.Post("/{id}/messages", h.handleChatMessage)
			r.Delete("/{id}", h.handleDeleteChat)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
	})

	return r
}
