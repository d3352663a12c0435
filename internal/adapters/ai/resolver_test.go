package ai_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halomind/internal/adapters/ai"
	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

type countingModelStore struct {
	mu     sync.Mutex
	value  string
	set    bool
	writes int
	err    error
}

func (s *countingModelStore) LoadModelID(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

func (s *countingModelStore) SaveModelID(_ context.Context, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.err != nil {
		return s.err
	}
	s.value, s.set = model, true
	return nil
}

func (s *countingModelStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func TestResolve_DeprecatedModelIsMigratedOnce(t *testing.T) {
	for _, stored := range []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"} {
		t.Run(stored, func(t *testing.T) {
			store := &countingModelStore{value: stored, set: true}
			r := ai.NewModelResolver(store, ai.DefaultModel, logger.Nop())

			got := r.Resolve(context.Background())
			r.Wait()

			assert.Equal(t, ai.DefaultModel, got)
			assert.Equal(t, 1, store.Writes())

			assert.Equal(t, ai.DefaultModel, r.Resolve(context.Background()))
			r.Wait()
			assert.Equal(t, 1, store.Writes())
		})
	}
}

func TestResolve_CurrentModelIsNotRewritten(t *testing.T) {
	store := &countingModelStore{value: ai.ModelPro, set: true}
	r := ai.NewModelResolver(store, ai.DefaultModel, logger.Nop())

	assert.Equal(t, ai.ModelPro, r.Resolve(context.Background()))
	r.Wait()
	assert.Equal(t, 0, store.Writes())
}

func TestResolve_NothingStoredUsesDefault(t *testing.T) {
	store := &countingModelStore{}
	r := ai.NewModelResolver(store, "", logger.Nop())

	assert.Equal(t, ai.DefaultModel, r.Resolve(context.Background()))
	r.Wait()
	assert.Equal(t, 0, store.Writes())
}

func TestResolve_PersistFailureDoesNotFailCaller(t *testing.T) {
	store := &countingModelStore{value: "gemini-1.5-flash", set: true, err: errors.New("disk full")}
	r := ai.NewModelResolver(store, ai.DefaultModel, logger.Nop())

	assert.Equal(t, ai.DefaultModel, r.Resolve(context.Background()))
	r.Wait()
	assert.Equal(t, 1, store.Writes())
}

func TestResolve_MigrationSurvivesCanceledCaller(t *testing.T) {
	store := &countingModelStore{value: "gemini-pro", set: true}
	r := ai.NewModelResolver(store, ai.DefaultModel, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	got := r.Resolve(ctx)
	cancel()
	r.Wait()

	assert.Equal(t, ai.DefaultModel, got)
	v, ok := store.LoadModelID(context.Background())
	require.True(t, ok)
	assert.Equal(t, ai.DefaultModel, v)
}

func TestSet_RewritesDeprecatedChoice(t *testing.T) {
	store := &countingModelStore{}
	r := ai.NewModelResolver(store, ai.DefaultModel, logger.Nop())

	got, err := r.Set(context.Background(), "gemini-1.5-pro")
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultModel, got)

	got, err = r.Set(context.Background(), ai.ModelPro)
	require.NoError(t, err)
	assert.Equal(t, ai.ModelPro, got)
	assert.Equal(t, ai.ModelPro, r.Resolve(context.Background()))
}

func TestIsDeprecatedModel(t *testing.T) {
	assert.True(t, ai.IsDeprecatedModel("gemini-1.5-flash"))
	assert.True(t, ai.IsDeprecatedModel("gemini-pro"))
	assert.False(t, ai.IsDeprecatedModel("gemini-2.5-pro"))
	assert.False(t, ai.IsDeprecatedModel(ai.ModelFlashLite))
}
