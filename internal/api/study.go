package api

import (
	"net/http"

	"halomind/internal/services/study"
)

type promptRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type textRequest struct {
	Text string `json:"text" validate:"required"`
}

type htmlRequest struct {
	HTML string `json:"html" validate:"required"`
}

// courseImageRequest carries a base64 encoded document image
type courseImageRequest struct {
	Data     []byte `json:"data" validate:"required"`
	MIMEType string `json:"mimeType" validate:"required,contains=/"`
}

type textResult struct {
	Text string `json:"text"`
}

type uriResult struct {
	URI string `json:"uri"`
}

func (h *Handler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req study.SectionInput
	if !h.decode(w, r, &req) {
		return
	}
	quiz, err := h.study.GenerateQuiz(r.Context(), req.SectionTitle, req.Context)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, quiz)
}

func (h *Handler) handleAdaptiveQuiz(w http.ResponseWriter, r *http.Request) {
	var req study.AdaptiveQuizInput
	if !h.decode(w, r, &req) {
		return
	}
	quiz, err := h.study.GenerateAdaptiveQuiz(r.Context(), req.WeakTopics, req.Context)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, quiz)
}

func (h *Handler) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	var req study.SectionInput
	if !h.decode(w, r, &req) {
		return
	}
	cards, err := h.study.GenerateFlashcards(r.Context(), req.SectionTitle, req.Context)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, cards)
}

func (h *Handler) handleExplainer(w http.ResponseWriter, r *http.Request) {
	var req study.SectionInput
	if !h.decode(w, r, &req) {
		return
	}
	explainer, err := h.study.GenerateSimpleExplainer(r.Context(), req.SectionTitle, req.Context)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, explainer)
}

func (h *Handler) handleDiagram(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !h.decode(w, r, &req) {
		return
	}
	uri, err := h.study.GenerateDiagram(r.Context(), req.Prompt)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, uriResult{URI: uri})
}

func (h *Handler) handleScript(w http.ResponseWriter, r *http.Request) {
	var req study.SectionInput
	if !h.decode(w, r, &req) {
		return
	}
	script, err := h.study.GenerateNarrationScript(r.Context(), req.SectionTitle, req.Context)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, textResult{Text: script})
}

func (h *Handler) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	uri, err := h.study.GenerateSpeech(r.Context(), req.Text)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, uriResult{URI: uri})
}

func (h *Handler) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req study.MediaInput
	if !h.decode(w, r, &req) {
		return
	}
	text, err := h.study.AnalyzeImage(r.Context(), req.Data, req.MIMEType, req.Prompt)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, textResult{Text: text})
}

func (h *Handler) handleAnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	var req study.MediaInput
	if !h.decode(w, r, &req) {
		return
	}
	text, err := h.study.AnalyzeVideo(r.Context(), req.Data, req.MIMEType, req.Prompt)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, textResult{Text: text})
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req htmlRequest
	if !h.decode(w, r, &req) {
		return
	}
	text, err := h.study.ExtractTextFromHTML(r.Context(), req.HTML)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, textResult{Text: text})
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req study.ScheduleInput
	if !h.decode(w, r, &req) {
		return
	}
	schedule, err := h.study.GenerateStudySchedule(r.Context(), req.Goal, req.SectionTitles)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, schedule)
}

func (h *Handler) handleCourseFromImage(w http.ResponseWriter, r *http.Request) {
	var req courseImageRequest
	if !h.decode(w, r, &req) {
		return
	}
	draft, err := h.study.GenerateCourseFromImage(r.Context(), req.Data, req.MIMEType)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, draft)
}
