package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a client's bucket is kept after its last request.
// A bucket idle this long has refilled anyway, so dropping it changes nothing.
const limiterIdleTTL = 10 * time.Minute

// RateLimit returns per-client-IP rate limiting middleware using token buckets.
// Rendering a preview costs real CPU, so one noisy client shouldn't be able to
// starve crawlers. rps <= 0 disables limiting.
//
// The client IP comes from c.ClientIP(), so it is only as trustworthy as the
// engine's SetTrustedProxies setting.
//
// Token bucket algorithm: each client gets a bucket that fills at `rps` tokens/sec
// up to `burst` tokens. Each request consumes one token. If the bucket is empty,
// the request is rejected with 429.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	store := newLimiterStore(rps, burst, limiterIdleTTL, time.Now)

	return func(c *gin.Context) {
		if !store.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one bucket per client and forgets idle ones.
//
// sync.Mutex protects the map of limiters from concurrent goroutine access.
// This is one of the few cases where Go uses traditional locks instead of channels —
// a shared map with simple read/write is cleaner with a mutex than a channel.
type limiterStore struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time // swapped in tests
	lastSweep time.Time
}

func newLimiterStore(rps float64, burst int, ttl time.Duration, now func() time.Time) *limiterStore {
	if burst < 1 {
		burst = 1
	}
	return &limiterStore{
		clients:   make(map[string]*clientLimiter),
		rps:       rate.Limit(rps),
		burst:     burst,
		ttl:       ttl,
		now:       now,
		lastSweep: now(),
	}
}

func (s *limiterStore) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// The sweep runs inline at most once per ttl, so there's no goroutine to stop.
	if now.Sub(s.lastSweep) >= s.ttl {
		s.sweep(now)
	}

	cl, ok := s.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for at least ttl. Caller holds mu.
func (s *limiterStore) sweep(now time.Time) {
	for key, cl := range s.clients {
		if now.Sub(cl.lastSeen) >= s.ttl {
			delete(s.clients, key)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
