// Package aitest provides scripted provider fakes and a ready-made
// orchestrator for tests.
package aitest

import (
	"context"
	"iter"
	"slices"
	"sync"
	"testing"
	"time"

	"halomind/internal/adapters/ai"
	errnoop "halomind/internal/adapters/errors/noop"
	"halomind/internal/adapters/retry"
	"halomind/internal/adapters/storage"
	"halomind/pkg/logger"
)

// TestCredential is the key installed by NewOrchestrator
const TestCredential = "test-key"

// Primary is a scripted PrimaryClient. Unset functions fail the call with
// a server error.
type Primary struct {
	GenerateFunc func(ctx context.Context, req *ai.Request) (*ai.Response, error)
	StreamFunc   func(ctx context.Context, req *ai.Request) iter.Seq2[string, error]
	ImageFunc    func(ctx context.Context, model, prompt string) (*ai.Media, error)
	SpeakFunc    func(ctx context.Context, model, text, voice string) (*ai.Media, error)
	ChatFunc     func(ctx context.Context, history []ai.ChatMessage, text string) (*ai.Response, error)

	mu              sync.Mutex
	requests        []*ai.Request
	calls           int
	chatCredentials []string
}

var _ ai.PrimaryClient = (*Primary)(nil)

func (p *Primary) record(req *ai.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if req != nil {
		p.requests = append(p.requests, req)
	}
}

// Calls returns the number of attempts made against the fake
func (p *Primary) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Requests returns the request descriptors received so far
func (p *Primary) Requests() []*ai.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.requests)
}

// LastRequest returns the most recent request descriptor, nil when none
func (p *Primary) LastRequest() *ai.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}

func (p *Primary) Generate(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	p.record(req)
	if p.GenerateFunc == nil {
		return nil, StatusError(ai.ProviderGemini, 500)
	}
	return p.GenerateFunc(ctx, req)
}

func (p *Primary) GenerateStream(ctx context.Context, req *ai.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		p.record(req)
		if p.StreamFunc == nil {
			yield("", StatusError(ai.ProviderGemini, 500))
			return
		}
		for text, err := range p.StreamFunc(ctx, req) {
			if !yield(text, err) {
				return
			}
		}
	}
}

func (p *Primary) GenerateImage(ctx context.Context, model, prompt string) (*ai.Media, error) {
	p.record(nil)
	if p.ImageFunc == nil {
		return nil, StatusError(ai.ProviderGemini, 500)
	}
	return p.ImageFunc(ctx, model, prompt)
}

func (p *Primary) Speak(ctx context.Context, model, text, voice string) (*ai.Media, error) {
	p.record(nil)
	if p.SpeakFunc == nil {
		return nil, StatusError(ai.ProviderGemini, 500)
	}
	return p.SpeakFunc(ctx, model, text, voice)
}

func (p *Primary) NewChat(_ context.Context, _, _ string, history []ai.ChatMessage) (ai.PrimaryChat, error) {
	return &primaryChat{owner: p, history: slices.Clone(history)}, nil
}

// ChatCredentials returns the credential of the client behind each chat turn
func (p *Primary) ChatCredentials() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.chatCredentials)
}

// keyedPrimary is the client the harness factory builds per credential.
// Every build yields a distinct client sharing the scripted Primary.
type keyedPrimary struct {
	*Primary
	credential string
}

func (k *keyedPrimary) NewChat(_ context.Context, _, _ string, history []ai.ChatMessage) (ai.PrimaryChat, error) {
	return &primaryChat{owner: k.Primary, credential: k.credential, history: slices.Clone(history)}, nil
}

type primaryChat struct {
	owner      *Primary
	credential string
	history    []ai.ChatMessage
}

func (c *primaryChat) Send(ctx context.Context, text string) (*ai.Response, error) {
	c.owner.record(nil)
	c.owner.mu.Lock()
	c.owner.chatCredentials = append(c.owner.chatCredentials, c.credential)
	c.owner.mu.Unlock()
	if c.owner.ChatFunc == nil {
		return nil, StatusError(ai.ProviderGemini, 500)
	}
	resp, err := c.owner.ChatFunc(ctx, slices.Clone(c.history), text)
	if err == nil {
		c.history = append(c.history,
			ai.ChatMessage{Role: ai.ChatRoleUser, Content: text},
			ai.ChatMessage{Role: ai.ChatRoleModel, Content: resp.Text},
		)
	}
	return resp, err
}

// Fallback is a scripted FallbackClient. Unset functions fail with a server error.
type Fallback struct {
	CompleteFunc func(ctx context.Context, req ai.FallbackRequest) (*ai.Response, error)
	StreamFunc   func(ctx context.Context, req ai.FallbackRequest) (*ai.Stream, error)
	ImageFunc    func(ctx context.Context, model, prompt string) (*ai.Media, error)
	SpeakFunc    func(ctx context.Context, model, text string) (*ai.Media, error)

	mu       sync.Mutex
	requests []ai.FallbackRequest
	calls    int
}

var _ ai.FallbackClient = (*Fallback)(nil)

func (f *Fallback) record(req *ai.FallbackRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if req != nil {
		f.requests = append(f.requests, *req)
	}
}

// Calls returns the number of fallback invocations
func (f *Fallback) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Requests returns the fallback requests received so far
func (f *Fallback) Requests() []ai.FallbackRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

func (f *Fallback) Complete(ctx context.Context, req ai.FallbackRequest) (*ai.Response, error) {
	f.record(&req)
	if f.CompleteFunc == nil {
		return nil, StatusError(ai.ProviderOpenRouter, 503)
	}
	return f.CompleteFunc(ctx, req)
}

func (f *Fallback) Stream(ctx context.Context, req ai.FallbackRequest) (*ai.Stream, error) {
	f.record(&req)
	if f.StreamFunc == nil {
		return nil, StatusError(ai.ProviderOpenRouter, 503)
	}
	return f.StreamFunc(ctx, req)
}

func (f *Fallback) GenerateImage(ctx context.Context, model, prompt string) (*ai.Media, error) {
	f.record(nil)
	if f.ImageFunc == nil {
		return nil, StatusError(ai.ProviderOpenRouter, 503)
	}
	return f.ImageFunc(ctx, model, prompt)
}

func (f *Fallback) Speak(ctx context.Context, model, text string) (*ai.Media, error) {
	f.record(nil)
	if f.SpeakFunc == nil {
		return nil, StatusError(ai.ProviderOpenRouter, 503)
	}
	return f.SpeakFunc(ctx, model, text)
}

// StatusError builds a classified provider error for an HTTP status
func StatusError(provider ai.ProviderName, code int) *ai.ProviderError {
	return &ai.ProviderError{
		Provider:   provider,
		Kind:       ai.KindForStatus(code),
		StatusCode: code,
		Message:    "scripted failure",
	}
}

// Text returns a successful response carrying text
func Text(provider ai.ProviderName, text string) *ai.Response {
	return &ai.Response{Provider: provider, Model: "test-model", Text: text}
}

// Chunks returns a sequence yielding texts in order
func Chunks(texts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, t := range texts {
			if !yield(t, nil) {
				return
			}
		}
	}
}

// Sleeps records retry waits instead of sleeping
type Sleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

// Sleep implements retry.Sleeper
func (s *Sleeps) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Delays returns the recorded waits
func (s *Sleeps) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.delays)
}

// Harness bundles an orchestrator with its fakes
type Harness struct {
	Orchestrator *ai.Orchestrator
	Primary      *Primary
	Fallback     *Fallback
	Settings     *storage.Settings
	Sleeps       *Sleeps
	Tracker      *errnoop.Tracker
}

// Option customizes NewHarness
type Option func(*harnessConfig)

type harnessConfig struct {
	credential      string
	fallbackEnabled bool
	noFallback      bool
	callTimeout     time.Duration
}

// WithoutCredential starts the harness with no primary credential
func WithoutCredential() Option {
	return func(c *harnessConfig) { c.credential = "" }
}

// WithFallbackDisabled turns the fallback policy off
func WithFallbackDisabled() Option {
	return func(c *harnessConfig) { c.fallbackEnabled = false }
}

// WithoutFallbackClient wires no fallback client at all
func WithoutFallbackClient() Option {
	return func(c *harnessConfig) { c.noFallback = true }
}

// WithCallTimeout bounds each non-streaming provider attempt
func WithCallTimeout(d time.Duration) Option {
	return func(c *harnessConfig) { c.callTimeout = d }
}

// NewHarness builds an orchestrator over fresh fakes with instant retries
// and zero jitter
func NewHarness(t testing.TB, opts ...Option) *Harness {
	t.Helper()

	cfg := harnessConfig{credential: TestCredential, fallbackEnabled: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := logger.Nop()
	primary := &Primary{}
	fallback := &Fallback{}
	sleeps := &Sleeps{}
	tracker := errnoop.New()
	settings := storage.NewSettings(storage.NewMemoryStore(), log)

	holder := ai.NewCredentialHolder(func(_ context.Context, secret string) (ai.PrimaryClient, error) {
		return &keyedPrimary{Primary: primary, credential: secret}, nil
	}, settings, log)
	if cfg.credential != "" {
		if err := holder.Set(context.Background(), cfg.credential); err != nil {
			t.Fatalf("set credential: %v", err)
		}
	}

	resilience := ai.NewResilience(retry.DefaultConfig(), log,
		ai.WithFallbackEnabled(cfg.fallbackEnabled),
		ai.WithErrorTracker(tracker),
		ai.WithRetryOptions(
			retry.WithSleeper(sleeps.Sleep),
			retry.WithJitterSource(func() float64 { return 0 }),
		),
	)

	deps := ai.Deps{
		Holder:     holder,
		Resolver:   ai.NewModelResolver(settings, ai.DefaultModel, log),
		Resilience: resilience,
		Usage:      ai.NewUsageTracker(nil),
		Logger:     log,

		CallTimeout: cfg.callTimeout,
	}
	if !cfg.noFallback {
		deps.Fallback = fallback
	}

	return &Harness{
		Orchestrator: ai.NewOrchestrator(deps),
		Primary:      primary,
		Fallback:     fallback,
		Settings:     settings,
		Sleeps:       sleeps,
		Tracker:      tracker,
	}
}
