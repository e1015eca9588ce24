package ratelimit

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/brandforge-ai/brandforge-backend/internal/identity"
)

// PerUser throttles the AI-backed endpoints per authenticated identity with a
// token bucket. Limiters are kept for the life of the process; anonymous
// identities are short-lived so the registry stays small.
func PerUser(limit rate.Limit, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(userID string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[userID]
		if !ok {
			l = rate.NewLimiter(limit, burst)
			limiters[userID] = l
		}
		return l
	}

	return func(c *gin.Context) {
		userID := identity.UserID(c)
		if userID == "" {
			userID = c.ClientIP()
		}

		if !limiterFor(userID).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Please try again later."})
			c.Abort()
			return
		}

		c.Next()
	}
}
