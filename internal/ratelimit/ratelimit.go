package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/deusflow/datatools/internal/logger"
)

// ErrLimitReached is returned once the per-run request budget is spent.
var ErrLimitReached = errors.New("embedding request limit reached")

// Limiter paces embedding API requests and keeps a per-run budget.
type Limiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	used        int
	maxRequests int
	cacheHits   int
	charsSaved  int
}

// New allows rpm requests per minute (0 = unpaced) and at most maxRequests per run (0 = unlimited).
func New(rpm, maxRequests int) *Limiter {
	limit := rate.Inf
	if rpm > 0 {
		limit = rate.Every(time.Minute / time.Duration(rpm))
	}
	return &Limiter{
		limiter:     rate.NewLimiter(limit, 1),
		maxRequests: maxRequests,
	}
}

// Wait blocks until the next request may be sent.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	if l.maxRequests > 0 && l.used >= l.maxRequests {
		l.mu.Unlock()
		logger.Warn("Embedding request limit reached", "used", l.used, "max", l.maxRequests)
		return ErrLimitReached
	}
	l.used++
	l.mu.Unlock()

	return l.limiter.Wait(ctx)
}

// RecordCacheHit counts a chunk that did not need a request.
func (l *Limiter) RecordCacheHit(chars int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cacheHits++
	l.charsSaved += chars
}

func (l *Limiter) GetStats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]interface{}{
		"requests_used":  l.used,
		"requests_limit": l.maxRequests,
		"cache_hits":     l.cacheHits,
		"chars_saved":    l.charsSaved,
	}
}

// PrintStats logs current statistics
func (l *Limiter) PrintStats() {
	stats := l.GetStats()
	logger.Info("Embedding usage",
		"requests", stats["requests_used"],
		"limit", stats["requests_limit"],
		"cache_hits", stats["cache_hits"],
		"chars_saved", stats["chars_saved"])
}
