package ai_test

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halomind/internal/adapters/ai"
	"halomind/internal/adapters/ai/aitest"
	"halomind/pkg/errors"
)

func notesRequest(t *testing.T) *ai.Request {
	t.Helper()
	req, err := ai.TextRequest(ai.OpNotes, ai.ModelFlash, "notes please", ai.GenerationConfig{})
	require.NoError(t, err)
	return req
}

func TestGenerate_RetriesRateLimitThenSucceeds(t *testing.T) {
	h := aitest.NewHarness(t)
	calls := 0
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) {
		calls++
		if calls <= 2 {
			return nil, aitest.StatusError(ai.ProviderGemini, 429)
		}
		return aitest.Text(ai.ProviderGemini, "done"), nil
	}

	resp, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))

	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text)
	assert.Equal(t, 3, h.Primary.Calls())
	assert.Equal(t, 0, h.Fallback.Calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, h.Sleeps.Delays())
}

func TestGenerate_AuthFailureIsImmediate(t *testing.T) {
	h := aitest.NewHarness(t)
	want := aitest.StatusError(ai.ProviderGemini, 401)
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) {
		return nil, want
	}

	_, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))

	assert.Same(t, want, err)
	assert.Equal(t, 1, h.Primary.Calls())
	assert.Equal(t, 0, h.Fallback.Calls())
	assert.Empty(t, h.Sleeps.Delays())
}

func TestGenerate_FallbackAfterExhaustedRetries(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) {
		return nil, aitest.StatusError(ai.ProviderGemini, 503)
	}
	h.Fallback.CompleteFunc = func(_ context.Context, req ai.FallbackRequest) (*ai.Response, error) {
		return aitest.Text(ai.ProviderOpenRouter, "from fallback"), nil
	}

	resp, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))

	require.NoError(t, err)
	assert.Equal(t, ai.ProviderOpenRouter, resp.Provider)
	assert.Equal(t, "from fallback", resp.Text)
	assert.Equal(t, 3, h.Primary.Calls())
	require.Equal(t, 1, h.Fallback.Calls())
	assert.Equal(t, ai.FallbackModelFlash, h.Fallback.Requests()[0].Model)
	assert.EqualValues(t, 3, h.Tracker.Counts().Breadcrumbs)
}

func TestGenerate_AttemptTimeoutRetriesThenFallsBack(t *testing.T) {
	h := aitest.NewHarness(t, aitest.WithCallTimeout(20*time.Millisecond))
	h.Primary.GenerateFunc = func(ctx context.Context, _ *ai.Request) (*ai.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	h.Fallback.CompleteFunc = func(context.Context, ai.FallbackRequest) (*ai.Response, error) {
		return aitest.Text(ai.ProviderOpenRouter, "from fallback"), nil
	}

	resp, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))

	require.NoError(t, err)
	assert.Equal(t, ai.ProviderOpenRouter, resp.Provider)
	assert.Equal(t, 3, h.Primary.Calls())
	assert.Equal(t, 1, h.Fallback.Calls())
}

func TestGenerate_AttemptTimeoutIsServerKind(t *testing.T) {
	h := aitest.NewHarness(t, aitest.WithCallTimeout(20*time.Millisecond), aitest.WithFallbackDisabled())
	h.Primary.GenerateFunc = func(ctx context.Context, _ *ai.Request) (*ai.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))

	require.Error(t, err)
	assert.Equal(t, ai.KindServer, ai.KindOf(err))
	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.Equal(t, 3, h.Primary.Calls())
}

func TestGenerate_DoubleFailureReturnsPrimaryError(t *testing.T) {
	h := aitest.NewHarness(t)
	var last *ai.ProviderError
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) {
		last = aitest.StatusError(ai.ProviderGemini, 500)
		return nil, last
	}
	h.Fallback.CompleteFunc = func(context.Context, ai.FallbackRequest) (*ai.Response, error) {
		return nil, aitest.StatusError(ai.ProviderOpenRouter, 502)
	}

	_, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))

	assert.Same(t, last, err)
	assert.Equal(t, 3, h.Primary.Calls())
	assert.Equal(t, 1, h.Fallback.Calls())
}

func TestGenerate_NoCredentialSkipsEverything(t *testing.T) {
	h := aitest.NewHarness(t, aitest.WithoutCredential())

	_, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))

	assert.Same(t, ai.ErrNoCredential, err)
	assert.Equal(t, 0, h.Primary.Calls())
	assert.Equal(t, 0, h.Fallback.Calls())
}

func TestGenerate_FallbackDisabled(t *testing.T) {
	h := aitest.NewHarness(t, aitest.WithFallbackDisabled())
	want := aitest.StatusError(ai.ProviderGemini, 500)
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) { return nil, want }

	_, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))

	assert.Same(t, want, err)
	assert.Equal(t, 0, h.Fallback.Calls())
}

func TestGenerate_NoFallbackClient(t *testing.T) {
	h := aitest.NewHarness(t, aitest.WithoutFallbackClient())
	want := aitest.StatusError(ai.ProviderGemini, 500)
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) { return nil, want }

	_, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))

	assert.Same(t, want, err)
	assert.Equal(t, 3, h.Primary.Calls())
}

func TestGenerate_CancellationStopsRetries(t *testing.T) {
	h := aitest.NewHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) {
		cancel()
		return nil, aitest.StatusError(ai.ProviderGemini, 503)
	}

	_, err := h.Orchestrator.Generate(ctx, notesRequest(t))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, h.Primary.Calls())
	assert.Equal(t, 0, h.Fallback.Calls())
}

func TestGenerateDegraded_FallbackGetsAlternateRequest(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) {
		return nil, aitest.StatusError(ai.ProviderGemini, 500)
	}
	h.Fallback.CompleteFunc = func(context.Context, ai.FallbackRequest) (*ai.Response, error) {
		return aitest.Text(ai.ProviderOpenRouter, "{}"), nil
	}

	primary, err := ai.TextRequest(ai.OpExplainer, ai.ModelFlash, "with search", ai.GenerationConfig{GoogleSearch: true})
	require.NoError(t, err)
	degraded, err := ai.TextRequest(ai.OpExplainer, ai.ModelFlash, "without search", ai.GenerationConfig{ResponseMIMEType: ai.MIMETypeJSON})
	require.NoError(t, err)

	_, err = h.Orchestrator.GenerateDegraded(context.Background(), primary, degraded)

	require.NoError(t, err)
	sent := h.Fallback.Requests()[0]
	assert.True(t, sent.JSONMode())
	assert.Equal(t, "without search", sent.Messages[0].Text)
	assert.True(t, h.Primary.LastRequest().Config.GoogleSearch)
}

func TestGeneratePrimaryOnly_NeverFallsBack(t *testing.T) {
	h := aitest.NewHarness(t)
	want := aitest.StatusError(ai.ProviderGemini, 503)
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) { return nil, want }

	req, err := ai.NewRequest(ai.OpVideoAnalysis, ai.ModelFlash, []ai.Part{
		ai.BinaryPart([]byte{0, 0, 0, 0x18}, "video/mp4"),
		ai.TextPart("summarize"),
	}, ai.GenerationConfig{})
	require.NoError(t, err)

	_, err = h.Orchestrator.GeneratePrimaryOnly(context.Background(), req)

	assert.Same(t, want, err)
	assert.Equal(t, 3, h.Primary.Calls())
	assert.Equal(t, 0, h.Fallback.Calls())
}

func TestGenerateStream_PrimaryChunks(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.StreamFunc = func(context.Context, *ai.Request) iter.Seq2[string, error] {
		return aitest.Chunks("# Notes", "\n- one", "\n- two")
	}

	s, err := h.Orchestrator.GenerateStream(context.Background(), notesRequest(t))
	require.NoError(t, err)

	text, err := s.Collect()
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n- one\n- two", text)
	assert.Equal(t, ai.ProviderGemini, s.Provider())
}

func TestGenerateStream_ConnectFailureFallsBack(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.StreamFunc = func(context.Context, *ai.Request) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			yield("", aitest.StatusError(ai.ProviderGemini, 429))
		}
	}
	h.Fallback.StreamFunc = func(ctx context.Context, req ai.FallbackRequest) (*ai.Stream, error) {
		assert.True(t, req.Stream)
		return ai.OpenSeqStream(ctx, ai.ProviderOpenRouter, func(context.Context) iter.Seq2[string, error] {
			return aitest.Chunks("fallback ", "text")
		})
	}

	s, err := h.Orchestrator.GenerateStream(context.Background(), notesRequest(t))
	require.NoError(t, err)

	text, err := s.Collect()
	require.NoError(t, err)
	assert.Equal(t, "fallback text", text)
	assert.Equal(t, ai.ProviderOpenRouter, s.Provider())
	assert.Equal(t, 3, h.Primary.Calls())
}

func TestGenerateImage_Fallback(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.ImageFunc = func(context.Context, string, string) (*ai.Media, error) {
		return nil, aitest.StatusError(ai.ProviderGemini, 500)
	}
	h.Fallback.ImageFunc = func(_ context.Context, model, prompt string) (*ai.Media, error) {
		assert.Equal(t, ai.FallbackModelImage, model)
		return &ai.Media{Provider: ai.ProviderOpenRouter, Data: []byte{1}, MIMEType: "image/png"}, nil
	}

	media, err := h.Orchestrator.GenerateImage(context.Background(), "diagram")

	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AQ==", media.DataURI())
}

func TestSpeak_PrimaryUsesVoice(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.SpeakFunc = func(_ context.Context, model, text, voice string) (*ai.Media, error) {
		assert.Equal(t, ai.ModelTTS, model)
		assert.Equal(t, ai.SpeechVoice, voice)
		return &ai.Media{Provider: ai.ProviderGemini, Data: []byte("audio"), MIMEType: "audio/webm"}, nil
	}

	media, err := h.Orchestrator.Speak(context.Background(), "read this")

	require.NoError(t, err)
	assert.Equal(t, "audio/webm", media.MIMEType)
	assert.Equal(t, 0, h.Fallback.Calls())
}

func TestUsageIsRecorded(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.GenerateFunc = func(context.Context, *ai.Request) (*ai.Response, error) {
		return &ai.Response{Provider: ai.ProviderGemini, Model: ai.ModelFlash, Text: "x", Usage: ai.Usage{InputTokens: 10, OutputTokens: 5}}, nil
	}

	_, err := h.Orchestrator.Generate(context.Background(), notesRequest(t))
	require.NoError(t, err)

	snap := h.Orchestrator.Usage().Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(1), snap[0].Calls)
	assert.Equal(t, int64(10), snap[0].InputTokens)
}
