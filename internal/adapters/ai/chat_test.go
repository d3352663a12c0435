package ai_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halomind/internal/adapters/ai"
	"halomind/internal/adapters/ai/aitest"
)

func TestChatSession_KeepsHistory(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.ChatFunc = func(_ context.Context, history []ai.ChatMessage, text string) (*ai.Response, error) {
		return aitest.Text(ai.ProviderGemini, "echo: "+text), nil
	}

	session, err := h.Orchestrator.NewChat(context.Background(), "You are a tutor.", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, ai.DefaultModel, session.Model)

	_, err = session.Send(context.Background(), "one")
	require.NoError(t, err)
	resp, err := session.Send(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, "echo: two", resp.Text)
	assert.Equal(t, []ai.ChatMessage{
		{Role: ai.ChatRoleUser, Content: "one"},
		{Role: ai.ChatRoleModel, Content: "echo: one"},
		{Role: ai.ChatRoleUser, Content: "two"},
		{Role: ai.ChatRoleModel, Content: "echo: two"},
	}, session.History())
}

func TestChatSession_FallbackReplaysHistory(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.ChatFunc = func(context.Context, []ai.ChatMessage, string) (*ai.Response, error) {
		return nil, aitest.StatusError(ai.ProviderGemini, 503)
	}
	h.Fallback.CompleteFunc = func(_ context.Context, req ai.FallbackRequest) (*ai.Response, error) {
		return aitest.Text(ai.ProviderOpenRouter, "fallback reply"), nil
	}

	session, err := h.Orchestrator.NewChat(context.Background(), "tutor", []ai.ChatMessage{
		{Role: ai.ChatRoleUser, Content: "earlier"},
		{Role: ai.ChatRoleModel, Content: "answer"},
	})
	require.NoError(t, err)

	resp, err := session.Send(context.Background(), "now")
	require.NoError(t, err)

	assert.Equal(t, "fallback reply", resp.Text)
	sent := h.Fallback.Requests()[0]
	require.Len(t, sent.Messages, 4)
	assert.Equal(t, ai.RoleAssistant, sent.Messages[2].Role)
	assert.Len(t, session.History(), 4)
}

func TestNewChat_RequiresCredential(t *testing.T) {
	h := aitest.NewHarness(t, aitest.WithoutCredential())

	_, err := h.Orchestrator.NewChat(context.Background(), "", nil)

	assert.Same(t, ai.ErrNoCredential, err)
}

func TestChatSession_PrimaryReopenedAfterFallbackTurn(t *testing.T) {
	h := aitest.NewHarness(t)
	primaryDown := true
	var seen []ai.ChatMessage
	h.Primary.ChatFunc = func(_ context.Context, history []ai.ChatMessage, text string) (*ai.Response, error) {
		if primaryDown {
			return nil, aitest.StatusError(ai.ProviderGemini, 503)
		}
		seen = history
		return aitest.Text(ai.ProviderGemini, "primary reply"), nil
	}
	h.Fallback.CompleteFunc = func(context.Context, ai.FallbackRequest) (*ai.Response, error) {
		return aitest.Text(ai.ProviderOpenRouter, "fallback reply"), nil
	}

	session, err := h.Orchestrator.NewChat(context.Background(), "tutor", nil)
	require.NoError(t, err)

	_, err = session.Send(context.Background(), "first")
	require.NoError(t, err)

	primaryDown = false
	resp, err := session.Send(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, ai.ProviderGemini, resp.Provider)
	assert.Equal(t, []ai.ChatMessage{
		{Role: ai.ChatRoleUser, Content: "first"},
		{Role: ai.ChatRoleModel, Content: "fallback reply"},
	}, seen)
	assert.Len(t, session.History(), 4)
}

func TestChatSession_ReopensOnCredentialChange(t *testing.T) {
	h := aitest.NewHarness(t)
	var seen []ai.ChatMessage
	h.Primary.ChatFunc = func(_ context.Context, history []ai.ChatMessage, text string) (*ai.Response, error) {
		seen = history
		return aitest.Text(ai.ProviderGemini, "re: "+text), nil
	}

	session, err := h.Orchestrator.NewChat(context.Background(), "tutor", nil)
	require.NoError(t, err)
	_, err = session.Send(context.Background(), "first")
	require.NoError(t, err)

	require.NoError(t, h.Orchestrator.Credentials().Set(context.Background(), "rotated-key"))
	_, err = session.Send(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, []string{aitest.TestCredential, "rotated-key"}, h.Primary.ChatCredentials())
	assert.Equal(t, []ai.ChatMessage{
		{Role: ai.ChatRoleUser, Content: "first"},
		{Role: ai.ChatRoleModel, Content: "re: first"},
	}, seen)
	assert.Len(t, session.History(), 4)
}

func TestChatSession_ClearedCredentialStopsTurn(t *testing.T) {
	h := aitest.NewHarness(t)
	h.Primary.ChatFunc = func(_ context.Context, _ []ai.ChatMessage, text string) (*ai.Response, error) {
		return aitest.Text(ai.ProviderGemini, text), nil
	}

	session, err := h.Orchestrator.NewChat(context.Background(), "tutor", nil)
	require.NoError(t, err)
	require.NoError(t, h.Orchestrator.Credentials().Set(context.Background(), ""))

	_, err = session.Send(context.Background(), "hello")

	assert.Same(t, ai.ErrNoCredential, err)
	assert.Zero(t, h.Primary.Calls())
	assert.Zero(t, h.Fallback.Calls())
	assert.Empty(t, session.History())
}
