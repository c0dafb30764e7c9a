package middleware

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
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingLimiter struct {
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	n := l.counts[key]
	l.counts[key] = n + 1
	return n < limit, nil
}

func limitedRouter(l Limiter, asUser uint) *gin.Engine {
	r := gin.New()
	r.POST("/",
		func(c *gin.Context) {
			if asUser != 0 {
				c.Set("userID", asUser)
			}
		},
		RateLimit(l, "friend_request", 2, time.Hour),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)
	return r
}

func post(r http.Handler) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	return w.Code
}

func TestRateLimit(t *testing.T) {
	l := &countingLimiter{counts: map[string]int{}}
	r := limitedRouter(l, 5)

	assert.Equal(t, http.StatusCreated, post(r))
	assert.Equal(t, http.StatusCreated, post(r))
	assert.Equal(t, http.StatusTooManyRequests, post(r))
	assert.Contains(t, l.counts, "rate_limit:friend_request:5")
}

func TestRateLimitFailures(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, post(limitedRouter(&countingLimiter{counts: map[string]int{}}, 0)))
	assert.Equal(t, http.StatusInternalServerError, post(limitedRouter(&countingLimiter{err: errors.New("down")}, 1)))
	assert.Equal(t, http.StatusCreated, post(limitedRouter(nil, 0)))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, existing)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, existing, w.Header().Get(RequestIDHeader))
}
