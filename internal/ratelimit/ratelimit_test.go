package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingLimiter struct {
	limit int
	seen  map[string]int
	err   error
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	l.seen[key]++
	return l.seen[key] <= l.limit, 30 * time.Second, nil
}

func newRouter(limiter Limiter) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			c.Set("userID", id)
		}
	})
	r.POST("/messages", Middleware(limiter, "messages"), func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func post(r *gin.Engine, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/messages", nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	limiter := &countingLimiter{limit: 2, seen: map[string]int{}}
	r := newRouter(limiter)

	assert.Equal(t, http.StatusCreated, post(r, "1").Code)
	assert.Equal(t, http.StatusCreated, post(r, "1").Code)

	w := post(r, "1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))

	// Other users have their own budget.
	assert.Equal(t, http.StatusCreated, post(r, "2").Code)
	assert.Contains(t, limiter.seen, "messages:user:1")
}

func TestMiddlewareFailsOpen(t *testing.T) {
	r := newRouter(&countingLimiter{err: errors.New("redis down")})
	assert.Equal(t, http.StatusCreated, post(r, "1").Code)
}

func TestNoopAllows(t *testing.T) {
	r := newRouter(Noop{})
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusCreated, post(r, "").Code)
	}
}

func TestRedisLimiter(t *testing.T) {
	client := NewClient("localhost:6379", "", 0)
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping: redis not available: %v", err)
	}

	limiter := NewRedisLimiter(client, 3, time.Minute)
	key := "test:" + uuid.NewString()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Positive(t, retryAfter)
	assert.LessOrEqual(t, retryAfter, time.Minute)
}
