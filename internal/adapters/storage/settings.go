package storage

import (
	"context"

	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

const (
	KeyAPIKey = "halomind-api-key"
	KeyModel  = "halomind-model"
)

// Settings reads and writes the orchestrator's persisted settings.
// Load failures are logged and reported as "absent".
type Settings struct {
	store Store
	log   *logger.Logger
}

// NewSettings creates a settings accessor over store
func NewSettings(store Store, log *logger.Logger) *Settings {
	return &Settings{
		store: store,
		log:   log.With("component", "settings"),
	}
}

func (s *Settings) loadString(ctx context.Context, key string) (string, bool) {
	var v *string
	if err := s.store.Get(ctx, key, &v); err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.Warnw("failed to read setting", "key", key, "error", err)
		}
		return "", false
	}
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

// LoadCredential returns the stored primary API key
func (s *Settings) LoadCredential(ctx context.Context) (string, bool) {
	return s.loadString(ctx, KeyAPIKey)
}

// SaveCredential persists the primary API key
func (s *Settings) SaveCredential(ctx context.Context, secret string) error {
	if err := s.store.Set(ctx, KeyAPIKey, secret); err != nil {
		s.log.Warnw("failed to save credential", "error", err)
		return errors.Wrap(err, "save credential")
	}
	return nil
}

// ClearCredential removes the stored primary API key
func (s *Settings) ClearCredential(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyAPIKey); err != nil {
		s.log.Warnw("failed to clear credential", "error", err)
		return errors.Wrap(err, "clear credential")
	}
	return nil
}

// LoadModelID returns the stored model identifier
func (s *Settings) LoadModelID(ctx context.Context) (string, bool) {
	return s.loadString(ctx, KeyModel)
}

// SaveModelID persists the model identifier
func (s *Settings) SaveModelID(ctx context.Context, model string) error {
	if err := s.store.Set(ctx, KeyModel, model); err != nil {
		s.log.Warnw("failed to save model", "model", model, "error", err)
		return errors.Wrap(err, "save model")
	}
	return nil
}

// Health reports whether the backing store is reachable
func (s *Settings) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}
