package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubWindow struct {
	allow bool
	err   error
	calls int
}

func (s *stubWindow) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.calls++
	return s.allow, s.err
}

func TestRateLimiterUsesSharedLimiter(t *testing.T) {
	shared := &stubWindow{allow: false}
	rl := NewRateLimiter(shared, 5, time.Minute)

	assert.False(t, rl.Allow(context.Background(), "login:1.2.3.4"))
	assert.Equal(t, 1, shared.calls)
}

func TestRateLimiterFallsBackLocally(t *testing.T) {
	shared := &stubWindow{err: errors.New("redis down")}
	rl := NewRateLimiter(shared, 2, time.Minute)
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "k"))
	assert.True(t, rl.Allow(ctx, "k"))
	assert.False(t, rl.Allow(ctx, "k"))
	assert.True(t, rl.Allow(ctx, "other"))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(nil, 0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow(context.Background(), "k"))
	}
}
