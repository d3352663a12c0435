package ai

import (
	"context"
	"sync"
	"sync/atomic"

	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

// CredentialStore persists the primary credential
type CredentialStore interface {
	LoadCredential(ctx context.Context) (string, bool)
	SaveCredential(ctx context.Context, secret string) error
	ClearCredential(ctx context.Context) error
}

// credentialState is an immutable snapshot swapped as a whole
type credentialState struct {
	credential string
	client     PrimaryClient
}

// CredentialHolder owns the current primary credential and the client built
// from it. Readers capture a snapshot; writers replace it atomically.
type CredentialHolder struct {
	factory PrimaryFactory
	store   CredentialStore
	log     *logger.Logger

	state atomic.Pointer[credentialState]
	mu    sync.Mutex // serializes writers so client construction does not interleave
}

// NewCredentialHolder creates an empty holder
func NewCredentialHolder(factory PrimaryFactory, store CredentialStore, log *logger.Logger) *CredentialHolder {
	return &CredentialHolder{
		factory: factory,
		store:   store,
		log:     log.With("component", "credential_holder"),
	}
}

// Client returns the current primary client or ErrNoCredential
func (h *CredentialHolder) Client() (PrimaryClient, error) {
	s := h.state.Load()
	if s == nil || s.client == nil {
		return nil, ErrNoCredential
	}
	return s.client, nil
}

// HasCredential reports whether a primary client is configured
func (h *CredentialHolder) HasCredential() bool {
	s := h.state.Load()
	return s != nil && s.client != nil
}

// Set replaces the primary client. An empty secret clears it.
// Calls already in flight keep the client they captured.
func (h *CredentialHolder) Set(ctx context.Context, secret string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if secret == "" {
		h.state.Store(nil)
		h.log.Info("primary credential cleared")
		return nil
	}

	if cur := h.state.Load(); cur != nil && cur.credential == secret {
		return nil
	}

	client, err := h.factory(ctx, secret)
	if err != nil {
		return errors.Wrap(err, "build primary client")
	}

	h.state.Store(&credentialState{credential: secret, client: client})
	h.log.Info("primary credential updated")
	return nil
}

// SetAndPersist replaces the client and persists the credential. The swap
// stands even if persistence fails; the persistence error is returned.
func (h *CredentialHolder) SetAndPersist(ctx context.Context, secret string) error {
	if err := h.Set(ctx, secret); err != nil {
		return err
	}
	if h.store == nil {
		return nil
	}
	if secret == "" {
		return h.store.ClearCredential(ctx)
	}
	return h.store.SaveCredential(ctx, secret)
}

// LoadFromStore initializes the holder from persisted settings, falling back
// to seed when nothing is stored
func (h *CredentialHolder) LoadFromStore(ctx context.Context, seed string) error {
	secret := seed
	if h.store != nil {
		if stored, ok := h.store.LoadCredential(ctx); ok {
			secret = stored
		}
	}
	if secret == "" {
		h.log.Warn("no primary credential configured")
		return nil
	}
	return h.Set(ctx, secret)
}
