package directory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func TestRedisStore_CreateLookupRemove(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, time.Hour)

	e := Entry{PeerID: "host-1", Address: "ws://10.0.0.2:9000/peer"}
	require.NoError(t, s.Create(ctx, "ABC123", e))
	assert.ErrorIs(t, s.Create(ctx, "ABC123", Entry{PeerID: "host-2"}), ErrCodeTaken)

	got, err := s.Lookup(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, e, got)
	assert.Equal(t, time.Hour, mr.TTL("lobby:ABC123"))

	require.NoError(t, s.Remove(ctx, "ABC123"))
	_, err = s.Lookup(ctx, "ABC123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expires(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, time.Minute)

	require.NoError(t, s.Create(ctx, "ZZZZ99", Entry{PeerID: "host"}))
	mr.FastForward(2 * time.Minute)

	_, err := s.Lookup(ctx, "ZZZZ99")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Create(ctx, "ZZZZ99", Entry{PeerID: "other"}))
}

func TestRedisStore_DefaultTTL(t *testing.T) {
	s, _ := newRedisStore(t, 0)
	assert.Equal(t, DefaultTTL, s.ttl)
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := DialRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = rdb.Close()

	_, err = DialRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
