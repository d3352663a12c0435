package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"halomind/internal/adapters/ai"
	"halomind/pkg/errors"
)

// ErrSessionNotFound is returned for unknown chat session ids
var ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "chat session not found")

// ChatRegistry holds the open chat sessions of this process. Sessions idle
// longer than idleTTL are evicted, and when maxSessions are open adding one
// evicts the least recently used.
type ChatRegistry struct {
	mu          sync.Mutex
	sessions    map[string]*chatEntry
	idleTTL     time.Duration // zero keeps idle sessions
	maxSessions int           // zero means unbounded
	now         func() time.Time
}

type chatEntry struct {
	session  *ai.ChatSession
	lastUsed time.Time
}

// NewChatRegistry creates an empty registry
func NewChatRegistry(idleTTL time.Duration, maxSessions int) *ChatRegistry {
	return &ChatRegistry{
		sessions:    make(map[string]*chatEntry),
		idleTTL:     idleTTL,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Add registers a session under its id
func (c *ChatRegistry) Add(s *ai.ChatSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictIdle(now)
	if c.maxSessions > 0 {
		for len(c.sessions) >= c.maxSessions {
			c.evictOldest()
		}
	}
	c.sessions[s.ID] = &chatEntry{session: s, lastUsed: now}
}

// Get looks up a session and marks it used
func (c *ChatRegistry) Get(id string) (*ai.ChatSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictIdle(now)
	e, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = now
	return e.session, nil
}

// Remove drops a session; it reports whether the session existed
func (c *ChatRegistry) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[id]
	delete(c.sessions, id)
	return ok
}

// Len returns the number of open sessions
func (c *ChatRegistry) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictIdle(c.now())
	return len(c.sessions)
}

func (c *ChatRegistry) evictIdle(now time.Time) {
	if c.idleTTL <= 0 {
		return
	}
	for id, e := range c.sessions {
		if now.Sub(e.lastUsed) > c.idleTTL {
			delete(c.sessions, id)
		}
	}
}

func (c *ChatRegistry) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range c.sessions {
		if oldestID == "" || e.lastUsed.Before(oldest) {
			oldestID, oldest = id, e.lastUsed
		}
	}
	delete(c.sessions, oldestID)
}

type createChatRequest struct {
	SystemInstruction string `json:"systemInstruction"`
}

type chatMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type chatSessionResult struct {
	ID      string           `json:"id"`
	Model   string           `json:"model"`
	History []ai.ChatMessage `json:"history"`
}

type chatReplyResult struct {
	Text     string          `json:"text"`
	Provider ai.ProviderName `json:"provider"`
}

func sessionResult(s *ai.ChatSession) chatSessionResult {
	history := s.History()
	if history == nil {
		history = []ai.ChatMessage{}
	}
	return chatSessionResult{ID: s.ID, Model: s.Model, History: history}
}

func (h *Handler) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.study.StartChat(r.Context(), req.SystemInstruction)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	h.chats.Add(session)
	respondJSON(w, http.StatusCreated, ResultResponse{Result: sessionResult(session)})
}

func (h *Handler) handleGetChat(w http.ResponseWriter, r *http.Request) {
	session, err := h.chats.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, sessionResult(session))
}

func (h *Handler) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	session, err := h.chats.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	var req chatMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := session.Send(r.Context(), req.Text)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, chatReplyResult{Text: resp.Text, Provider: resp.Provider})
}

func (h *Handler) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if !h.chats.Remove(chi.URLParam(r, "id")) {
		respondError(w, r, h.log, ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
