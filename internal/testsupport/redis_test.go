package testsupport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halomind/pkg/errors"
)

func TestNewRedisClient_StartsEmpty(t *testing.T) {
	client := NewRedisClient(t)
	ctx := context.Background()

	var missing string
	assert.ErrorIs(t, client.Get(ctx, "settings:model", &missing), errors.ErrNotFound)

	require.NoError(t, client.Set(ctx, "settings:model", "gemini-2.5-pro"))

	var model string
	require.NoError(t, client.Get(ctx, "settings:model", &model))
	assert.Equal(t, "gemini-2.5-pro", model)

	require.NoError(t, client.Delete(ctx, "settings:model"))
	assert.ErrorIs(t, client.Get(ctx, "settings:model", &model), errors.ErrNotFound)
}
