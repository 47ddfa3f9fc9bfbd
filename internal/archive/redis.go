package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "callcoach:archive:"
	redisIndexKey  = "callcoach:archive:index"
	defaultTTL     = 7 * 24 * time.Hour
)

// RedisStore keeps ended calls as JSON values with a TTL, plus a capped
// list of ids for recency listing.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	capacity int
}

// NewRedisStore connects to url (redis:// form) and checks the connection.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration, capacity int) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return newRedisStore(client, ttl, capacity), nil
}

func newRedisStore(client *redis.Client, ttl time.Duration, capacity int) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RedisStore{client: client, ttl: ttl, capacity: capacity}
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now().UTC()
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode call: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(rec.ID), val, s.ttl)
		pipe.LRem(ctx, redisIndexKey, 0, rec.ID)
		pipe.LPush(ctx, redisIndexKey, rec.ID)
		pipe.LTrim(ctx, redisIndexKey, 0, int64(s.capacity-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("save call: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get call: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return Record{}, fmt.Errorf("decode call: %w", err)
	}
	return rec, nil
}

// List skips index entries whose value already expired.
func (s *RedisStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > s.capacity {
		limit = s.capacity
	}
	ids, err := s.client.LRange(ctx, redisIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load calls: %w", err)
	}
	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode call: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}
