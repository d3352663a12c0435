// Package testsupport wires integration tests to live backing services.
package testsupport

import (
	"os"
	"testing"

	"github.com/kelseyhightower/envconfig"

	"halomind/internal/adapters/config"
)

// isolatedDB keeps integration runs away from the database a dev server uses
const isolatedDB = 15

// RedisConfigFromEnv reads the REDIS_* variables the server uses, skipping
// the test when REDIS_HOST is unset. REDIS_DB is ignored unless
// TEST_REDIS_DB is set, since every test flushes its database.
func RedisConfigFromEnv(t *testing.T) config.RedisConfig {
	t.Helper()

	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("integration environment missing, set REDIS_HOST to run")
	}

	var cfg config.RedisConfig
	if err := envconfig.Process("", &cfg); err != nil {
		t.Fatalf("read redis env: %v", err)
	}

	var override struct {
		DB int `envconfig:"TEST_REDIS_DB" default:"15"`
	}
	if err := envconfig.Process("", &override); err != nil {
		t.Fatalf("read TEST_REDIS_DB: %v", err)
	}
	cfg.DB = override.DB
	if cfg.DB == 0 {
		cfg.DB = isolatedDB
	}

	return cfg
}
