package ai

import (
	"context"
	"iter"
	"time"

	"halomind/internal/metrics"
	"halomind/pkg/logger"
)

// Orchestrator routes every generation through the primary provider with
// retries and, when that fails, through the fallback provider once.
type Orchestrator struct {
	holder     *CredentialHolder
	resolver   *ModelResolver
	translator *Translator
	fallback   FallbackClient
	resilience *Resilience
	usage      *UsageTracker

	callTimeout time.Duration
	log         *logger.Logger
}

// Deps groups the collaborators of an Orchestrator
type Deps struct {
	Holder     *CredentialHolder
	Resolver   *ModelResolver
	Translator *Translator
	Fallback   FallbackClient // optional
	Resilience *Resilience
	Usage      *UsageTracker // optional, defaults to an unpriced tracker

	// CallTimeout bounds each non-streaming provider attempt; zero disables it
	CallTimeout time.Duration
	Logger      *logger.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(d Deps) *Orchestrator {
	if d.Translator == nil {
		d.Translator = NewTranslator(DefaultMapping())
	}
	if d.Usage == nil {
		d.Usage = NewUsageTracker(nil)
	}
	return &Orchestrator{
		holder:      d.Holder,
		resolver:    d.Resolver,
		translator:  d.Translator,
		fallback:    d.Fallback,
		resilience:  d.Resilience,
		usage:       d.Usage,
		callTimeout: d.CallTimeout,
		log:         d.Logger.With("component", "orchestrator"),
	}
}

// Model resolves the model for the next request
func (o *Orchestrator) Model(ctx context.Context) string {
	return o.resolver.Resolve(ctx)
}

// Credentials exposes the credential holder
func (o *Orchestrator) Credentials() *CredentialHolder {
	return o.holder
}

// Resolver exposes the model resolver
func (o *Orchestrator) Resolver() *ModelResolver {
	return o.resolver
}

// Usage exposes the usage tracker
func (o *Orchestrator) Usage() *UsageTracker {
	return o.usage
}

// Generate runs req on the primary provider, falling back on failure
func (o *Orchestrator) Generate(ctx context.Context, req *Request) (*Response, error) {
	return o.GenerateDegraded(ctx, req, req)
}

// GenerateDegraded runs req on the primary provider; the fallback receives
// degraded instead, for requests relying on primary-only features
func (o *Orchestrator) GenerateDegraded(ctx context.Context, req, degraded *Request) (*Response, error) {
	client, err := o.holder.Client()
	if err != nil {
		return nil, err
	}
	fallbackReq := o.translator.Fallback(degraded)

	resp, err := WithFallback(ctx, o.resilience, req.Kind,
		func(ctx context.Context) (*Response, error) {
			ctx, cancel := o.callContext(ctx)
			defer cancel()
			return client.Generate(ctx, req)
		},
		bindFallback(o, func(ctx context.Context, fb FallbackClient) (*Response, error) {
			return fb.Complete(ctx, fallbackReq)
		}),
	)
	if err != nil {
		return nil, err
	}

	o.usage.Record(resp)
	return resp, nil
}

// GeneratePrimaryOnly runs req with retries but never falls back, for
// operations the fallback provider cannot serve
func (o *Orchestrator) GeneratePrimaryOnly(ctx context.Context, req *Request) (*Response, error) {
	client, err := o.holder.Client()
	if err != nil {
		return nil, err
	}

	resp, err := PrimaryOnly(ctx, o.resilience, req.Kind, func(ctx context.Context) (*Response, error) {
		ctx, cancel := o.callContext(ctx)
		defer cancel()
		return client.Generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	o.usage.Record(resp)
	return resp, nil
}

// GenerateStream opens a text stream. Connection failures go through the
// retry and fallback policy; failures after the first chunk reach the
// consumer through the stream.
func (o *Orchestrator) GenerateStream(ctx context.Context, req *Request) (*Stream, error) {
	client, err := o.holder.Client()
	if err != nil {
		return nil, err
	}
	fallbackReq := o.translator.Fallback(req)
	fallbackReq.Stream = true

	stream, err := WithFallback(ctx, o.resilience, req.Kind,
		func(ctx context.Context) (*Stream, error) {
			return OpenSeqStream(ctx, ProviderGemini, func(ctx context.Context) iter.Seq2[string, error] {
				return client.GenerateStream(ctx, req)
			})
		},
		bindStreamFallback(o, func(ctx context.Context, fb FallbackClient) (*Stream, error) {
			return fb.Stream(ctx, fallbackReq)
		}),
	)
	if err != nil {
		return nil, err
	}

	stream.onChunk = func(p ProviderName) { metrics.RecordStreamChunk(p.String()) }
	return stream, nil
}

// GenerateImage renders prompt into one image. A nil Media with a nil error
// means the provider returned no image.
func (o *Orchestrator) GenerateImage(ctx context.Context, prompt string) (*Media, error) {
	client, err := o.holder.Client()
	if err != nil {
		return nil, err
	}
	fallbackModel := o.translator.Mapping().Resolve(ModelImagen)

	return WithFallback(ctx, o.resilience, OpDiagram,
		func(ctx context.Context) (*Media, error) {
			ctx, cancel := o.callContext(ctx)
			defer cancel()
			return client.GenerateImage(ctx, ModelImagen, prompt)
		},
		bindFallback(o, func(ctx context.Context, fb FallbackClient) (*Media, error) {
			return fb.GenerateImage(ctx, fallbackModel, prompt)
		}),
	)
}

// Speak synthesizes text into audio
func (o *Orchestrator) Speak(ctx context.Context, text string) (*Media, error) {
	client, err := o.holder.Client()
	if err != nil {
		return nil, err
	}
	fallbackModel := o.translator.Mapping().Resolve(ModelTTS)

	return WithFallback(ctx, o.resilience, OpSpeech,
		func(ctx context.Context) (*Media, error) {
			ctx, cancel := o.callContext(ctx)
			defer cancel()
			return client.Speak(ctx, ModelTTS, text, SpeechVoice)
		},
		bindFallback(o, func(ctx context.Context, fb FallbackClient) (*Media, error) {
			return fb.Speak(ctx, fallbackModel, text)
		}),
	)
}

// NewChat opens a chat session on the current model
func (o *Orchestrator) NewChat(ctx context.Context, systemInstruction string, history []ChatMessage) (*ChatSession, error) {
	client, err := o.holder.Client()
	if err != nil {
		return nil, err
	}
	model := o.resolver.Resolve(ctx)

	primary, err := client.NewChat(ctx, model, systemInstruction, history)
	if err != nil {
		return nil, Classify(ProviderGemini, err)
	}

	o.log.Debugw("chat session opened", "model", model, "history_turns", len(history))
	return &ChatSession{
		ID:                newSessionID(),
		Model:             model,
		SystemInstruction: systemInstruction,
		CreatedAt:         time.Now().UTC(),
		orch:              o,
		client:            client,
		primary:           primary,
		history:           append([]ChatMessage(nil), history...),
	}, nil
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.callTimeout)
}

// bindFallback binds fn to the configured fallback client; nil when there is none
func bindFallback[T any](o *Orchestrator, fn func(ctx context.Context, fb FallbackClient) (T, error)) func(ctx context.Context) (T, error) {
	if o.fallback == nil {
		return nil
	}
	fb := o.fallback
	return func(ctx context.Context) (T, error) {
		ctx, cancel := o.callContext(ctx)
		defer cancel()
		return fn(ctx, fb)
	}
}

// bindStreamFallback is bindFallback without the per-call timeout; a stream
// outlives the call that opened it
func bindStreamFallback(o *Orchestrator, fn func(ctx context.Context, fb FallbackClient) (*Stream, error)) func(ctx context.Context) (*Stream, error) {
	if o.fallback == nil {
		return nil
	}
	fb := o.fallback
	return func(ctx context.Context) (*Stream, error) {
		return fn(ctx, fb)
	}
}
