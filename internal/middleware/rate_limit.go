package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter backed by Redis. It bounds how many
// lookups (and therefore background generation jobs) one client can trigger
// per window.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// windowKey stamps the window start into the key, so each window counts in a
// fresh key and a stale counter simply expires instead of accumulating.
func (r *RateLimiter) windowKey(client string, now time.Time) string {
	windowStart := now.Truncate(r.window)
	return fmt.Sprintf("rate_limit:%s:%d", client, windowStart.Unix())
}

// allow increments the client's counter for the current window and reports
// whether the request is within the limit. Incr and Expire run in one
// pipeline so the counter never outlives its window.
func (r *RateLimiter) allow(ctx context.Context, client string, now time.Time) (bool, error) {
	key := r.windowKey(client, now)

	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incrCmd.Val() <= int64(r.limit), nil
}

// Middleware enforces the limit per user (or per client IP for guests).
// Redis errors do not fail the request.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := UserEmail(c)
		if key == "" {
			key = c.ClientIP()
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		allowed, err := r.allow(ctx, key, time.Now())
		if err != nil {
			log.Printf("[rate_limit] redis error for %s: %v", key, err)
			c.Next()
			return
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please slow down",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
