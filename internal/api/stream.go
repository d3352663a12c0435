package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"halomind/internal/adapters/ai"
	"halomind/internal/services/study"
)

func (h *Handler) handleNotesStream(w http.ResponseWriter, r *http.Request) {
	var req study.SectionInput
	if !h.decode(w, r, &req) {
		return
	}
	stream, err := h.study.GenerateNotesStream(r.Context(), req.SectionTitle, req.Context)
	h.relay(w, r, stream, err)
}

func (h *Handler) handleRephraseStream(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	stream, err := h.study.RephraseStream(r.Context(), req.Text)
	h.relay(w, r, stream, err)
}

// relay forwards a text stream as server-sent events. Failures before the
// first chunk are plain JSON errors; later ones become an error event. The
// stream is bound to the request context, so a client disconnect cancels
// the upstream call.
func (h *Handler) relay(w http.ResponseWriter, r *http.Request, stream *ai.Stream, err error) {
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	defer stream.Close()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Provider", stream.Provider().String())
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	chunks := 0
	for chunk, err := range stream.Chunks() {
		if err != nil {
			h.log.Warnw("stream failed mid-flight", "provider", stream.Provider(), "chunks", chunks, "error", err)
			_ = writeEvent(w, "error", ErrorResponse{Error: err.Error()})
			_ = rc.Flush()
			return
		}
		if werr := writeEvent(w, "", chunk); werr != nil {
			h.log.Debugw("client went away", "error", werr)
			return
		}
		_ = rc.Flush()
		chunks++
	}

	if r.Context().Err() != nil {
		return
	}
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	_ = rc.Flush()
	h.log.Debugw("stream relayed", "provider", stream.Provider(), "chunks", chunks, "state", stream.State())
}

func writeEvent(w http.ResponseWriter, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
