package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Defaults for RateLimiter: `limit` requests per `window` per client IP.
var (
	window = time.Minute
	limit  = 60
)

// RateLimiter limits requests per client IP with a token bucket.
//
// Behavior:
//   - Each IP gets a rate.Limiter refilling `limit` tokens per `window`,
//     with a burst of `limit`.
//   - Idle limiters expire from the cache after a few windows.
//   - When the bucket is empty, returns 429 Too Many Requests.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RateLimiter())
func RateLimiter() gin.HandlerFunc {
	perWindow, burst := window, limit
	if burst < 1 {
		burst = 1
	}
	every := rate.Every(perWindow / time.Duration(burst))
	visitors := cache.New(3*perWindow, 5*perWindow)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		var lim *rate.Limiter
		if v, ok := visitors.Get(ip); ok {
			lim = v.(*rate.Limiter)
		} else {
			lim = rate.NewLimiter(every, burst)
			// Add fails if another request raced us; use the stored one then.
			if err := visitors.Add(ip, lim, cache.DefaultExpiration); err != nil {
				if v, ok := visitors.Get(ip); ok {
					lim = v.(*rate.Limiter)
				}
			}
		}

		if !lim.Allow() {
			AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
