package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestLimiterRefill(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 60})
	now := time.Now()

	ok, _, _ := l.allow("192.0.2.1", now)
	assert.Equal(t, true, ok)
	ok, _, _ = l.allow("192.0.2.1", now)
	assert.Equal(t, true, ok)

	ok, _, retry := l.allow("192.0.2.1", now)
	assert.Equal(t, false, ok)
	assert.Equal(t, 1, retry)

	// Other clients have their own bucket.
	ok, _, _ = l.allow("192.0.2.2", now)
	assert.Equal(t, true, ok)

	// One token per second.
	ok, _, _ = l.allow("192.0.2.1", now.Add(time.Second))
	assert.Equal(t, true, ok)
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, IdleTTL: time.Minute})
	now := time.Now()
	l.allow("192.0.2.1", now)

	l.mu.Lock()
	l.sweepLocked(now.Add(2 * time.Minute))
	n := len(l.buckets)
	l.mu.Unlock()

	assert.Equal(t, 0, n)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1})(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookmarks", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookmarks", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
