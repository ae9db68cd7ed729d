package stats

import (
	"context"
	"fmt"
	"strings"
)

const (
	KindFile     = "file"
	KindRedis    = "redis"
	KindPostgres = "postgres"
)

type BackendConfig struct {
	Kind        string
	FilePath    string
	RedisURL    string
	RedisKey    string
	DatabaseURL string
}

// OpenBackend builds the backend named by cfg.Kind (file when empty).
func OpenBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", KindFile:
		return NewFileBackend(cfg.FilePath)
	case KindRedis:
		return DialRedisBackend(ctx, cfg.RedisURL, cfg.RedisKey)
	case KindPostgres, "postgresql", "pg":
		return NewPostgresBackend(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}
