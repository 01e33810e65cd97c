package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	handler := RequestLogger(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/stock/current", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_AllowsWithinWindow(t *testing.T) {
	limiter := NewRateLimitMiddleware()
	handler := limiter.RateLimit(5, 60)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	limiter := NewRateLimitMiddleware()
	handler := limiter.RateLimit(3, 60)(okHandler())

	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRateLimit_PerClient(t *testing.T) {
	limiter := NewRateLimitMiddleware()
	handler := limiter.RateLimit(1, 60)(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	first.RemoteAddr = "10.0.0.3:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)

	other := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	other.Header.Set("X-Forwarded-For", "192.168.1.9")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}
