package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "rps:stats"

// RedisBackend stores the whole document as one JSON string, so a SET
// replaces it atomically.
type RedisBackend struct {
	rdb   *redis.Client
	key   string
	owned bool
}

// NewRedisBackend wraps an existing client; the caller keeps ownership.
func NewRedisBackend(rdb *redis.Client, key string) *RedisBackend {
	if strings.TrimSpace(key) == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{rdb: rdb, key: key}
}

// DialRedisBackend connects to redisURL and pings it.
func DialRedisBackend(ctx context.Context, redisURL, key string) (*RedisBackend, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("%w: REDIS_URL", ErrMissingParam)
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	b := NewRedisBackend(rdb, key)
	b.owned = true
	return b, nil
}

func (b *RedisBackend) Load(ctx context.Context) (Document, error) {
	raw, err := b.rdb.Get(ctx, b.key).Bytes()
	if err == redis.Nil {
		// losing the race to another writer is fine; read whatever won
		if err := b.rdb.SetNX(ctx, b.key, "{}", 0).Err(); err != nil {
			return nil, fmt.Errorf("init %s: %w", b.key, err)
		}
		raw, err = b.rdb.Get(ctx, b.key).Bytes()
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", b.key, err)
	}
	return decodeDocument(raw)
}

func (b *RedisBackend) Save(ctx context.Context, doc Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if err := b.rdb.Set(ctx, b.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", b.key, err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	if b == nil || b.rdb == nil || !b.owned {
		return nil
	}
	return b.rdb.Close()
}
