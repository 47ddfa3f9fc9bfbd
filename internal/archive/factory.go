package archive

import (
	"context"
	"strings"
	"time"
)

// Backend names the store NewStore picked.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Options selects and tunes the archive backend.
type Options struct {
	DatabaseURL string
	RedisURL    string
	TTL         time.Duration
	Capacity    int
}

// NewStore creates a postgres-backed store when DatabaseURL is set, a redis
// store when RedisURL is set, otherwise an in-memory store.
func NewStore(ctx context.Context, opts Options) (Store, Backend, error) {
	switch {
	case strings.TrimSpace(opts.DatabaseURL) != "":
		s, err := NewPostgresStore(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, BackendPostgres, err
		}
		return s, BackendPostgres, nil
	case strings.TrimSpace(opts.RedisURL) != "":
		s, err := NewRedisStore(ctx, opts.RedisURL, opts.TTL, opts.Capacity)
		if err != nil {
			return nil, BackendRedis, err
		}
		return s, BackendRedis, nil
	default:
		return NewInMemoryStore(opts.Capacity), BackendMemory, nil
	}
}
