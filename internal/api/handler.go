package api

import (
	"net/http"

	"halomind/internal/adapters/ai"
	"halomind/internal/services/study"
	"halomind/pkg/logger"
)

// Handler serves the study API
type Handler struct {
	study        *study.Service
	orchestrator *ai.Orchestrator
	chats        *ChatRegistry
	maxBodyBytes int64
	log          *logger.Logger
}

// NewHandler creates the API handler
func NewHandler(svc *study.Service, orch *ai.Orchestrator, chats *ChatRegistry, maxBodyBytes int64, log *logger.Logger) *Handler {
	return &Handler{
		study:        svc,
		orchestrator: orch,
		chats:        chats,
		maxBodyBytes: maxBodyBytes,
		log:          log.With("component", "api"),
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeBody(w, r, h.maxBodyBytes, dst); err != nil {
		respondError(w, r, h.log, err)
		return false
	}
	return true
}
