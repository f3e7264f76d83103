package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinfo/backend/internal/testhelpers"
)

func TestWindowKeyRotation(t *testing.T) {
	r := NewRateLimiter(nil, 5, time.Minute)
	base := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)

	// Same window, same key.
	assert.Equal(t,
		r.windowKey("1.2.3.4", base),
		r.windowKey("1.2.3.4", base.Add(30*time.Second)))

	// The next window counts in a fresh key, so a counter can never outlive
	// its window even if its TTL was lost.
	assert.NotEqual(t,
		r.windowKey("1.2.3.4", base),
		r.windowKey("1.2.3.4", base.Add(time.Minute)))

	// Keys are per client.
	assert.NotEqual(t,
		r.windowKey("1.2.3.4", base),
		r.windowKey("5.6.7.8", base))
}

func TestAllowEnforcesLimitPerWindow(t *testing.T) {
	client := testhelpers.SetupRedisContainer(t)
	r := NewRateLimiter(client, 3, time.Minute)

	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		allowed, err := r.allow(ctx, "sam@example.com", now)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, err := r.allow(ctx, "sam@example.com", now)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other clients are unaffected.
	allowed, err = r.allow(ctx, "other@example.com", now)
	require.NoError(t, err)
	assert.True(t, allowed)

	// A new window starts a fresh counter.
	allowed, err = r.allow(ctx, "sam@example.com", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, allowed)

	// The window counter carries a TTL so it cannot linger.
	ttl, err := client.TTL(ctx, r.windowKey("sam@example.com", now)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRateLimitMiddlewareOverLimit(t *testing.T) {
	client := testhelpers.SetupRedisContainer(t)
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	limiter := NewRateLimiter(client, 2, time.Minute)
	engine.GET("/medicine/:name", limiter.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "pending"})
	})

	var codes []int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/medicine/aspirin", nil)
		engine.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
