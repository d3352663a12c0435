package ai

import (
	"context"
	"strings"
	"sync"
	"time"

	"halomind/pkg/logger"
)

const persistTimeout = 5 * time.Second

// ModelStore persists the selected model id
type ModelStore interface {
	LoadModelID(ctx context.Context) (string, bool)
	SaveModelID(ctx context.Context, model string) error
}

// ModelResolver reads the persisted model id and migrates deprecated ids
// to the current default, persisting the correction once.
type ModelResolver struct {
	store        ModelStore
	defaultModel string
	log          *logger.Logger

	pending sync.WaitGroup
}

// NewModelResolver creates a resolver; an empty defaultModel means DefaultModel
func NewModelResolver(store ModelStore, defaultModel string, log *logger.Logger) *ModelResolver {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &ModelResolver{
		store:        store,
		defaultModel: defaultModel,
		log:          log.With("component", "model_resolver"),
	}
}

// IsDeprecatedModel reports whether id belongs to a retired model generation
func IsDeprecatedModel(id string) bool {
	return strings.Contains(id, "1.5") || id == "gemini-pro"
}

// Resolve returns the model to use for the next request. A deprecated stored
// id is replaced by the default; the save runs in the background and never
// blocks or fails the caller.
func (r *ModelResolver) Resolve(ctx context.Context) string {
	stored, ok := r.store.LoadModelID(ctx)
	if !ok {
		return r.defaultModel
	}
	if !IsDeprecatedModel(stored) {
		return stored
	}

	r.log.Infow("migrating deprecated model", "from", stored, "to", r.defaultModel)
	r.persist(context.WithoutCancel(ctx), r.defaultModel)
	return r.defaultModel
}

// Set persists an explicit model choice. Deprecated ids are rewritten first.
func (r *ModelResolver) Set(ctx context.Context, model string) (string, error) {
	if model == "" || IsDeprecatedModel(model) {
		model = r.defaultModel
	}
	return model, r.store.SaveModelID(ctx, model)
}

// Wait blocks until background saves have finished
func (r *ModelResolver) Wait() {
	r.pending.Wait()
}

func (r *ModelResolver) persist(ctx context.Context, model string) {
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()

		ctx, cancel := context.WithTimeout(ctx, persistTimeout)
		defer cancel()

		if err := r.store.SaveModelID(ctx, model); err != nil {
			r.log.Warnw("failed to persist migrated model", "model", model, "error", err)
		}
	}()
}
