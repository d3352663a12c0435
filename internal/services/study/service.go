package study

import (
	"context"
	"time"

	"google.golang.org/genai"

	"halomind/internal/adapters/ai"
	"halomind/internal/metrics"
	"halomind/pkg/logger"
)

// Generator is the orchestrator surface the study operations depend on
type Generator interface {
	Model(ctx context.Context) string
	Generate(ctx context.Context, req *ai.Request) (*ai.Response, error)
	GenerateDegraded(ctx context.Context, req, degraded *ai.Request) (*ai.Response, error)
	GeneratePrimaryOnly(ctx context.Context, req *ai.Request) (*ai.Response, error)
	GenerateStream(ctx context.Context, req *ai.Request) (*ai.Stream, error)
	GenerateImage(ctx context.Context, prompt string) (*ai.Media, error)
	Speak(ctx context.Context, text string) (*ai.Media, error)
	NewChat(ctx context.Context, systemInstruction string, history []ai.ChatMessage) (*ai.ChatSession, error)
}

var _ Generator = (*ai.Orchestrator)(nil)

// Service implements the study assistant operations on top of the
// resilient generation layer
type Service struct {
	gen Generator
	now func() time.Time
	log *logger.Logger
}

// Option customizes the Service
type Option func(*Service)

// WithClock overrides the time source used for schedule dates
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new study service
func NewService(gen Generator, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		gen: gen,
		now: time.Now,
		log: log.With("component", "study_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// jsonConfig requests structured output following schema
func jsonConfig(schema *genai.Schema) ai.GenerationConfig {
	return ai.GenerationConfig{ResponseMIMEType: ai.MIMETypeJSON, ResponseSchema: schema}
}

// decode parses a structured response and checks it against its JSON
// Schema. It returns nil when the text cannot be interpreted.
func decode[T any](s *Service, op ai.OperationKind, schema string, resp *ai.Response) *T {
	cleaned := ai.StripCodeFence(resp.Text)
	parsed := ai.ParseJSON[T](cleaned)
	if parsed == nil || !conformsTo(schema, cleaned) {
		metrics.RecordParseFailure(string(op))
		s.log.Warnw("structured response could not be interpreted",
			"operation", op,
			"provider", resp.Provider,
			"bytes", len(resp.Text),
		)
		return nil
	}
	return parsed
}
