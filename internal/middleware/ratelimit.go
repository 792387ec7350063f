package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"photogo/internal/pkg/response"
)

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(s.every, s.burst)
		s.limiters[key] = limiter
	}
	return limiter
}

// RateLimit allows perMinute requests per client with the given burst.
// Authenticated callers are keyed by user, everyone else by IP.
// perMinute <= 0 disables limiting.
func RateLimit(perMinute, burst int, log *zap.Logger) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	store := &limiterStore{
		limiters: map[string]*rate.Limiter{},
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID := c.GetInt64("user_id"); userID != 0 {
			key = "user:" + strconv.FormatInt(userID, 10)
		}
		if !store.get(key).Allow() {
			log.Warn("rate limit exceeded", zap.String("client", key), zap.String("path", c.FullPath()))
			response.Abort(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later")
			return
		}
		c.Next()
	}
}
