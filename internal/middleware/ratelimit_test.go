package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// buckets are per IP
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestIPRateLimiterEvictsLeastRecent(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 1)
	limiter.maxEntries = 3

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i))
	}
	assert.Equal(t, 3, limiter.Len())

	// 10.0.0.0 was evicted so it starts with a fresh bucket
	assert.True(t, limiter.Allow("10.0.0.0"))
	assert.False(t, limiter.Allow("10.0.0.4"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/oauth/token", RateLimit(NewIPRateLimiter(0.5, 1)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	request := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/oauth/token", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req)
	}

	assert.Equal(t, http.StatusOK, request("192.0.2.1").Code)

	w := request("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"temporarily_unavailable","error_description":"Too many requests, slow down."}`, w.Body.String())

	assert.Equal(t, http.StatusOK, request("192.0.2.2").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/", RateLimit(nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}
