package middleware

import (
	"container/list"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/gin-gonic/gin"
	oautherrors "github.com/go-oauth2/oauth2/v4/errors"
	"golang.org/x/time/rate"
)

const defaultMaxLimiters = 10000

type limiterEntry struct {
	key     string
	limiter *rate.Limiter
}

// IPRateLimiter hands out a token bucket per client IP. The least recently
// seen IP is evicted once maxEntries buckets exist.
type IPRateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*list.Element
	lru        *list.List
	limit      rate.Limit
	burst      int
	maxEntries int
}

func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		limiters:   make(map[string]*list.Element),
		lru:        list.New(),
		limit:      rate.Limit(perSecond),
		burst:      burst,
		maxEntries: defaultMaxLimiters,
	}
}

// Allow takes one token from ip's bucket
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elem, ok := l.limiters[ip]; ok {
		l.lru.MoveToFront(elem)
		return elem.Value.(*limiterEntry).limiter.Allow()
	}

	if len(l.limiters) >= l.maxEntries {
		if oldest := l.lru.Back(); oldest != nil {
			delete(l.limiters, oldest.Value.(*limiterEntry).key)
			l.lru.Remove(oldest)
		}
	}
	entry := &limiterEntry{key: ip, limiter: rate.NewLimiter(l.limit, l.burst)}
	l.limiters[ip] = l.lru.PushFront(entry)
	return entry.limiter.Allow()
}

// Len is the number of tracked IPs
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RateLimit throttles requests per client IP, answering 429 with an OAuth
// temporarily_unavailable error. A nil limiter disables throttling.
func RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		log.WithField("ip", c.ClientIP()).Warn("Rate limit exceeded")
		c.Header("Retry-After", retryAfter(limiter.limit))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewOAuth2Error(
			oautherrors.ErrTemporarilyUnavailable.Error(),
			"Too many requests, slow down."))
	}
}

func retryAfter(limit rate.Limit) string {
	if limit <= 0 {
		return "60"
	}
	wait := time.Duration(float64(time.Second) / float64(limit))
	if wait < time.Second {
		wait = time.Second
	}
	return strconv.Itoa(int(wait.Round(time.Second) / time.Second))
}
