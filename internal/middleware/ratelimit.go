package middleware

import (
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter holds a token bucket per authenticated user.
type RateLimiter struct {
	log      *zap.SugaredLogger
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(log *zap.SugaredLogger, r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		log:      log,
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    b,
	}
}

// Middleware must run after Auth; it keys buckets by user id.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFrom(r.Context())
		if user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		rl.mu.Lock()
		limiter, exists := rl.limiters[user.ID]
		if !exists {
			limiter = rate.NewLimiter(rl.rate, rl.burst)
			rl.limiters[user.ID] = limiter
		}
		rl.mu.Unlock()

		if !limiter.Allow() {
			rl.log.Warnw("rate limit exceeded", "user_id", user.ID)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
