package testsupport

import (
	"context"
	"testing"
	"time"

	"halomind/internal/adapters/redis"
)

// NewRedisClient connects to the integration Redis and flushes its database
// before the test and again on cleanup.
func NewRedisClient(t *testing.T, opts ...redis.Option) *redis.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, RedisConfigFromEnv(t), opts...)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	if err := client.Client().FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Client().FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}
