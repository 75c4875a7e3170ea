package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/devblog/devblog-api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore is a per-key token-bucket store owned by one middleware instance.
// Keys idle for longer than limiterIdleTTL are swept.
type limiterStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{visitors: make(map[string]*visitor), rps: rate.Limit(rps), burst: burst}
}

// get returns (and lazily creates) the limiter for key.
func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// prune drops visitors last seen before cutoff and returns how many remain.
func (s *limiterStore) prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, key)
		}
	}
	return len(s.visitors)
}

// sweep prunes idle visitors every interval until ctx is done.
func (s *limiterStore) sweep(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.prune(now.Add(-idle))
		}
	}
}

// clientKey prefers the authenticated subject, otherwise the client IP.
func clientKey(c *gin.Context) string {
	if key := subjectKey(c); key != "" {
		return key
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// rps = allowed events per second, burst = maximum tokens in bucket. Idle keys
// are swept in the background until ctx is cancelled.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int) gin.HandlerFunc {
	store := newLimiterStore(rps, burst)
	go store.sweep(ctx, limiterSweepInterval, limiterIdleTTL)
	return func(c *gin.Context) {
		if !store.get(clientKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Rate limit exceeded."})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
