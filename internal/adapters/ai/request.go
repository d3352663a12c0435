package ai

import (
	"slices"

	"google.golang.org/genai"

	"halomind/pkg/errors"
)

// OperationKind tags a request with the use case it serves
type OperationKind string

const (
	OpNotes           OperationKind = "notes"
	OpQuiz            OperationKind = "quiz"
	OpFlashcards      OperationKind = "flashcards"
	OpAdaptiveQuiz    OperationKind = "adaptive_quiz"
	OpExplainer       OperationKind = "explainer"
	OpDiagram         OperationKind = "diagram"
	OpScript          OperationKind = "script"
	OpSpeech          OperationKind = "speech"
	OpImageAnalysis   OperationKind = "image_analysis"
	OpVideoAnalysis   OperationKind = "video_analysis"
	OpHTMLExtraction  OperationKind = "html_extraction"
	OpSchedule        OperationKind = "schedule"
	OpRephrase        OperationKind = "rephrase"
	OpChat            OperationKind = "chat"
	OpCourseFromImage OperationKind = "course_from_image"
)

var knownKinds = []OperationKind{
	OpNotes, OpQuiz, OpFlashcards, OpAdaptiveQuiz, OpExplainer, OpDiagram, OpScript,
	OpSpeech, OpImageAnalysis, OpVideoAnalysis, OpHTMLExtraction, OpSchedule,
	OpRephrase, OpChat, OpCourseFromImage,
}

// Valid reports whether k is one of the known operation kinds
func (k OperationKind) Valid() bool {
	return slices.Contains(knownKinds, k)
}

// SupportsFallback is false for operations the fallback provider cannot serve
func (k OperationKind) SupportsFallback() bool {
	return k != OpVideoAnalysis
}

// Part is one content item: either text or inline binary data
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// TextPart builds a text part
func TextPart(text string) Part {
	return Part{Text: text}
}

// BinaryPart builds an inline binary part
func BinaryPart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// IsBinary reports whether the part carries inline data
func (p Part) IsBinary() bool {
	return len(p.Data) > 0
}

// GenerationConfig holds the optional generation settings of a request
type GenerationConfig struct {
	SystemInstruction string
	ResponseMIMEType  string
	ResponseSchema    *genai.Schema
	GoogleSearch      bool
	ThinkingBudget    *int32
}

// Request describes one logical generation call. Build it with NewRequest and
// do not modify it afterwards.
type Request struct {
	Kind   OperationKind
	Model  string
	Parts  []Part
	Config GenerationConfig
}

// NewRequest validates and snapshots a request descriptor
func NewRequest(kind OperationKind, model string, parts []Part, cfg GenerationConfig) (*Request, error) {
	if !kind.Valid() {
		return nil, errors.NewValidationError("kind", "unknown operation kind "+string(kind))
	}
	if model == "" {
		return nil, errors.NewValidationError("model", "must not be empty")
	}
	if len(parts) == 0 {
		return nil, errors.NewValidationError("parts", "at least one part is required")
	}

	copied := make([]Part, len(parts))
	for i, p := range parts {
		switch {
		case p.IsBinary() && p.Text != "":
			return nil, errors.NewValidationError("parts", "a part is either text or binary")
		case p.IsBinary() && p.MIMEType == "":
			return nil, errors.NewValidationError("parts", "binary part requires a MIME type")
		case !p.IsBinary() && p.Text == "":
			return nil, errors.NewValidationError("parts", "empty part")
		}
		copied[i] = Part{Text: p.Text, MIMEType: p.MIMEType, Data: slices.Clone(p.Data)}
	}

	if cfg.ThinkingBudget != nil {
		b := *cfg.ThinkingBudget
		cfg.ThinkingBudget = &b
	}

	return &Request{Kind: kind, Model: model, Parts: copied, Config: cfg}, nil
}

// TextRequest is a shortcut for a single-text-part request
func TextRequest(kind OperationKind, model, prompt string, cfg GenerationConfig) (*Request, error) {
	return NewRequest(kind, model, []Part{TextPart(prompt)}, cfg)
}

// JSONMode reports whether structured output was requested
func (r *Request) JSONMode() bool {
	return r.Config.ResponseMIMEType == MIMETypeJSON
}
