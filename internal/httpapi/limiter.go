package httpapi

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter applies a token bucket per caller and periodically evicts idle
// callers.
type limiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*bucket
	hits    uint64
	idleTTL time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newLimiter returns nil, which allows everything, when rps or burst is not
// positive.
func newLimiter(rps float64, burst int, idleTTL time.Duration) *limiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &limiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byKey:   make(map[string]*bucket),
		idleTTL: idleTTL,
	}
}

// allow reports whether key may make one more request at now.
func (l *limiter) allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}
	return allowed
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}
