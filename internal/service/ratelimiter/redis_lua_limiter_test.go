package ratelimiter

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLuaLimiter(t *testing.T, buckets map[string]BucketConfig) (*RedisLuaLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLuaLimiter(rdb, buckets), mr
}

func TestNewBucketConfigFromPerMinute(t *testing.T) {
	assert.Equal(t, BucketConfig{}, NewBucketConfigFromPerMinute(0))
	cfg := NewBucketConfigFromPerMinute(120)
	assert.Equal(t, int64(120), cfg.Capacity)
	assert.InDelta(t, 2.0, cfg.RefillRate, 1e-9)
}

func TestNewRedisLuaLimiter_NilClient(t *testing.T) {
	assert.Nil(t, NewRedisLuaLimiter(nil, nil))
}

func TestAllow_NilLimiter_FailOpen(t *testing.T) {
	var limiter *RedisLuaLimiter
	allowed, retryAfter, err := limiter.Allow(context.Background(), "recommend:1.2.3.4", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestAllow_UnknownClass_FailOpen(t *testing.T) {
	limiter, _ := newTestRedisLuaLimiter(t, nil)
	allowed, retryAfter, err := limiter.Allow(context.Background(), "browse:1.2.3.4", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestAllow_ExhaustsBucketPerSubject(t *testing.T) {
	limiter, mr := newTestRedisLuaLimiter(t, map[string]BucketConfig{
		"recommend": {Capacity: 3, RefillRate: 0.5},
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, retryAfter, err := limiter.Allow(ctx, "recommend:10.0.0.1", 1)
		require.NoError(t, err)
		assert.True(t, allowed, "call %d", i)
		assert.Zero(t, retryAfter)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "recommend:10.0.0.1", 1)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, 2*time.Second)

	allowed, _, err = limiter.Allow(ctx, "recommend:10.0.0.2", 1)
	require.NoError(t, err)
	assert.True(t, allowed, "other subjects have their own bucket")

	assert.True(t, mr.Exists("rate:recommend:10.0.0.1"))
	assert.Greater(t, mr.TTL("rate:recommend:10.0.0.1"), time.Duration(0))
}

func TestAllow_CostLargerThanCapacity(t *testing.T) {
	limiter, _ := newTestRedisLuaLimiter(t, map[string]BucketConfig{"recommend": {Capacity: 2, RefillRate: 1}})
	allowed, retryAfter, err := limiter.Allow(context.Background(), "recommend:a", 5)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 3*time.Second, retryAfter)
}

func TestAllow_RedisDown_FailsOpenWithError(t *testing.T) {
	limiter, mr := newTestRedisLuaLimiter(t, map[string]BucketConfig{"recommend": {Capacity: 1, RefillRate: 1}})
	mr.Close()

	allowed, _, err := limiter.Allow(context.Background(), "recommend:a", 1)
	require.Error(t, err)
	assert.True(t, allowed)
}

func TestSetBucketConfig(t *testing.T) {
	limiter, _ := newTestRedisLuaLimiter(t, nil)
	limiter.SetBucketConfig("recommend", BucketConfig{Capacity: 1, RefillRate: 0.01})

	allowed, _, err := limiter.Allow(context.Background(), "recommend:x", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, _, err = limiter.Allow(context.Background(), "recommend:x", 1)
	require.NoError(t, err)
	assert.False(t, allowed)

	var nilLimiter *RedisLuaLimiter
	nilLimiter.SetBucketConfig("recommend", BucketConfig{})
}
