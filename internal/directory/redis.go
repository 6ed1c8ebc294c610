package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// DialRedis parses a redis:// URL and checks the server answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) key(code string) string { return "lobby:" + code }

func (s *RedisStore) Create(ctx context.Context, code string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, s.key(code), raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeTaken
	}
	return nil
}

func (s *RedisStore) Lookup(ctx context.Context, code string) (Entry, error) {
	raw, err := s.rdb.Get(ctx, s.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("decode lobby %s: %w", code, err)
	}
	return e, nil
}

func (s *RedisStore) Remove(ctx context.Context, code string) error {
	return s.rdb.Del(ctx, s.key(code)).Err()
}
