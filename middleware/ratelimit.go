package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"deck-analysis-service/internal/config"
	"deck-analysis-service/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiter tracks a token bucket per client IP. Idle entries are evicted so
// the map does not grow without bound.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipEntry
	limit    rate.Limit
	burst    int
	stop     chan struct{}
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(reqs, windowSeconds int) *ipLimiter {
	l := &ipLimiter{
		limiters: make(map[string]*ipEntry),
		limit:    rate.Limit(float64(reqs) / float64(windowSeconds)),
		burst:    reqs,
		stop:     make(chan struct{}),
	}
	go l.evictLoop()
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

func (l *ipLimiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evict(time.Now().Add(-10 * time.Minute))
		case <-l.stop:
			return
		}
	}
}

func (l *ipLimiter) evict(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// Stop terminates the background eviction goroutine.
func (l *ipLimiter) Stop() {
	close(l.stop)
}

// RateLimitMiddleware limits requests per client IP using an in-process
// token bucket. Health checks are exempt.
func RateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	limiter := newIPLimiter(cfg.RateLimitReqs, cfg.RateLimitWindow)

	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		if !limiter.allow(c.ClientIP()) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
			c.Header("X-RateLimit-Remaining", "0")
			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"Too many requests. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}
