package ai

import (
	"context"
	"iter"
)

// PrimaryClient is the first-choice provider. Implementations return raw
// transport errors; the orchestrator classifies them.
type PrimaryClient interface {
	// Generate runs a single request and returns the normalized response
	Generate(ctx context.Context, req *Request) (*Response, error)

	// GenerateStream returns a lazy sequence of text deltas; no network call is
	// made until the first pull
	GenerateStream(ctx context.Context, req *Request) iter.Seq2[string, error]

	// GenerateImage renders prompt into a single image
	GenerateImage(ctx context.Context, model, prompt string) (*Media, error)

	// Speak synthesizes text with the named prebuilt voice
	Speak(ctx context.Context, model, text, voice string) (*Media, error)

	// NewChat opens a multi-turn chat seeded with history
	NewChat(ctx context.Context, model, systemInstruction string, history []ChatMessage) (PrimaryChat, error)
}

// PrimaryChat is a provider-side chat session
type PrimaryChat interface {
	Send(ctx context.Context, text string) (*Response, error)
}

// PrimaryFactory builds a primary client for a credential
type PrimaryFactory func(ctx context.Context, credential string) (PrimaryClient, error)

// FallbackClient is the single secondary provider
type FallbackClient interface {
	Complete(ctx context.Context, req FallbackRequest) (*Response, error)

	// Stream opens a streaming completion; the returned Stream is already connected
	Stream(ctx context.Context, req FallbackRequest) (*Stream, error)

	GenerateImage(ctx context.Context, model, prompt string) (*Media, error)
	Speak(ctx context.Context, model, text string) (*Media, error)
}
