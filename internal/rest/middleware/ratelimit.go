package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// LoginRateLimiter throttles login attempts per client IP with a token bucket.
// Idle buckets expire out of the store after limiterIdleTTL.
type LoginRateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *gocache.Cache
}

func NewLoginRateLimiter(cfg *config.Configuration) *LoginRateLimiter {
	burst := cfg.Server.LoginRateBurst
	if burst <= 0 {
		burst = 1
	}
	return &LoginRateLimiter{
		limit:    rate.Limit(cfg.Server.LoginRateLimit),
		burst:    burst,
		limiters: gocache.New(limiterIdleTTL, 2*limiterIdleTTL),
	}
}

func (l *LoginRateLimiter) get(ip string) *rate.Limiter {
	if v, ok := l.limiters.Get(ip); ok {
		limiter := v.(*rate.Limiter)
		l.limiters.SetDefault(ip, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	if err := l.limiters.Add(ip, limiter, gocache.DefaultExpiration); err != nil {
		// lost the race, use the bucket the other request stored
		if v, ok := l.limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Handler rejects requests over the limit with 429 and a Retry-After header.
// A zero limit disables throttling.
func (l *LoginRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit <= 0 {
			c.Next()
			return
		}

		reservation := l.get(c.ClientIP()).Reserve()
		if d := reservation.Delay(); d > 0 {
			reservation.Cancel()
			retryAfter := int(math.Max(1, math.Ceil(d.Seconds())))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ierr.ErrorResponse{
				Success: false,
				Error: ierr.ErrorDetail{
					Display: "Too many login attempts, try again later",
					Code:    "rate_limited",
				},
			})
			return
		}
		c.Next()
	}
}
