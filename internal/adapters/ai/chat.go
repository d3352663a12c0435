package ai

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChatRole is the author of a chat turn
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage is one turn of a conversation
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatSession is a multi-turn conversation. The primary keeps its own chat
// state; the fallback replays the locally kept history on every turn. After
// a fallback turn the primary chat is reopened from history so it sees the
// turn too. A credential change since the last turn reopens it on the new
// client.
type ChatSession struct {
	ID                string
	Model             string
	SystemInstruction string
	CreatedAt         time.Time

	orch    *Orchestrator
	client  PrimaryClient // client the primary chat was opened on
	primary PrimaryChat
	stale   bool // primary chat misses turns answered by the fallback

	mu      sync.Mutex
	history []ChatMessage
}

// History returns a copy of the turns exchanged so far
func (s *ChatSession) History() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Send delivers one user turn and returns the reply. Turns are serialized
// per session so history stays ordered.
func (s *ChatSession) Send(ctx context.Context, text string) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := s.orch.holder.Client()
	if err != nil {
		return nil, err
	}
	history := slices.Clone(s.history)
	fallbackReq := s.orch.translator.FallbackChat(s.Model, s.SystemInstruction, history, text)

	resp, err := WithFallback(ctx, s.orch.resilience, OpChat,
		func(ctx context.Context) (*Response, error) {
			ctx, cancel := s.orch.callContext(ctx)
			defer cancel()
			if err := s.reopenPrimary(ctx, client, history); err != nil {
				return nil, err
			}
			return s.primary.Send(ctx, text)
		},
		bindFallback(s.orch, func(ctx context.Context, fb FallbackClient) (*Response, error) {
			return fb.Complete(ctx, fallbackReq)
		}),
	)
	if err != nil {
		return nil, err
	}

	s.orch.usage.Record(resp)
	if resp.Provider != ProviderGemini {
		s.stale = true
	}
	s.history = append(s.history,
		ChatMessage{Role: ChatRoleUser, Content: text},
		ChatMessage{Role: ChatRoleModel, Content: resp.Text},
	)
	return resp, nil
}

// reopenPrimary replaces the primary chat with one seeded from history when
// it is stale or was opened on a client that has since been replaced
func (s *ChatSession) reopenPrimary(ctx context.Context, client PrimaryClient, history []ChatMessage) error {
	if !s.stale && s.client == client {
		return nil
	}
	primary, err := client.NewChat(ctx, s.Model, s.SystemInstruction, history)
	if err != nil {
		return err
	}
	s.client = client
	s.primary = primary
	s.stale = false
	return nil
}

func newSessionID() string {
	return uuid.NewString()
}
