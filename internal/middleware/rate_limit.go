package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hrflow/internal/shared/apperror"
	"hrflow/internal/shared/response"
)

// keyedLimiter hands out one token bucket per key and remembers it for the
// life of the process. Keys are client IPs or authenticated user IDs.
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

func newKeyedLimiter(r rate.Limit, burst int) *keyedLimiter {
	return &keyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		burst:    burst,
	}
}

func (k *keyedLimiter) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.limiters[key]
	if !ok {
		l = rate.NewLimiter(k.r, k.burst)
		k.limiters[key] = l
	}
	return l
}

// RateLimitByIP throttles unauthenticated traffic, mainly the login and
// token-redemption endpoints.
func RateLimitByIP(rps float64, burst int) gin.HandlerFunc {
	limiter := newKeyedLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			response.Error(c, apperror.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitByUser throttles authenticated traffic per user. It must run
// after AuthMiddleware; requests without a user fall back to the client IP.
func RateLimitByUser(rps float64, burst int) gin.HandlerFunc {
	limiter := newKeyedLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		key := c.GetString("user_id_validated")
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.get(key).Allow() {
			response.Error(c, apperror.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
