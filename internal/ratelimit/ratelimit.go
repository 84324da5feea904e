// Package ratelimit provides per-key token buckets for write endpoints.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"MenuAPI/internal/common"
	"MenuAPI/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"

	visitorExpiry = 30 * time.Minute
)

// Policy allows Burst requests per Window per key, refilling evenly.
type Policy struct {
	Name   string
	Burst  int
	Window time.Duration
}

// Menu write policies.
var (
	MenuCreatePolicy = Policy{Name: "menu-create", Burst: 10, Window: 10 * time.Minute}
	MenuUpdatePolicy = Policy{Name: "menu-update", Burst: 50, Window: 5 * time.Minute}
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter holds one token bucket per key.
type Limiter struct {
	policy    Policy
	clock     clockwork.Clock
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewLimiter creates a limiter for the given policy.
func NewLimiter(policy Policy, clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{
		policy:    policy,
		clock:     clock,
		visitors:  make(map[string]*visitor),
		lastSweep: clock.Now(),
	}
}

// Allow consumes a token for key. When the bucket is empty it returns false
// and how long until the next token is available.
func (l *Limiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > visitorExpiry {
		l.sweep(now)
	}

	v, ok := l.visitors[key]
	if !ok {
		every := l.policy.Window / time.Duration(l.policy.Burst)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), l.policy.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}

	return true, int(math.Floor(v.limiter.TokensAt(now))), 0
}

func (l *Limiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorExpiry {
			delete(l.visitors, key)
		}
	}
	l.lastSweep = now
}

// Len reports how many keys are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Middleware limits requests by the key keyFunc extracts. Requests with an
// empty key are let through untouched.
func (l *Limiter) Middleware(keyFunc func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			c.Next()
			return
		}

		allowed, remaining, retryAfter := l.Allow(key)
		c.Header(HeaderRateLimitLimit, strconv.Itoa(l.policy.Burst))
		c.Header(HeaderRateLimitRemaining, strconv.Itoa(remaining))

		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header(HeaderRetryAfter, strconv.Itoa(seconds))
			metrics.RateLimitRejections.WithLabelValues(l.policy.Name).Inc()
			common.Abort(c, http.StatusTooManyRequests, "rate limit exceeded, try again in "+strconv.Itoa(seconds)+"s")
			return
		}

		c.Next()
	}
}
