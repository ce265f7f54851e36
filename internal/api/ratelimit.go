package api

import (
	"context"
	"sync"
	"time"

	"storefront/internal/util"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WindowLimiter is a shared fixed-window counter, normally Redis
type WindowLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows limit requests per window per key. The shared limiter
// is consulted first; when it is missing or failing, a per-process token
// bucket takes over.
type RateLimiter struct {
	shared WindowLimiter
	limit  int
	window time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
}

const visitorIdle = 10 * time.Minute

// NewRateLimiter creates a limiter. shared may be nil.
func NewRateLimiter(shared WindowLimiter, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		shared:   shared,
		limit:    limit,
		window:   window,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether one more request for key fits in the budget
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}
	if rl.shared != nil {
		ok, err := rl.shared.Allow(ctx, key, rl.limit, rl.window)
		if err == nil {
			return ok
		}
		util.GetLogger().Warn("Shared rate limiter unavailable, using local limiter", zap.Error(err))
	}
	return rl.local(key).Allow()
}

func (rl *RateLimiter) local(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(rl.visitors, k)
		}
	}

	v, ok := rl.visitors[key]
	if !ok {
		every := rl.window / time.Duration(rl.limit)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), rl.limit)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}
