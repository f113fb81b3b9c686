package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/apps/:appId/state", handler, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, path, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":1234"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware_DeniesBeyondCapacity(t *testing.T) {
	router := newLimitedRouter(RateLimitMiddleware(RateLimitConfig{
		Capacity:   2,
		RefillRate: 0.001,
		KeyFunc:    IPKeyFunc,
	}))

	assert.Equal(t, http.StatusOK, doRequest(router, "/apps/app-1/state", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, doRequest(router, "/apps/app-1/state", "10.0.0.1"))

	// 용량 소진 후에는 429와 Retry-After
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/apps/app-1/state", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 다른 IP는 영향 없음
	assert.Equal(t, http.StatusOK, doRequest(router, "/apps/app-1/state", "10.0.0.2"))
}

func TestRateLimitMiddleware_AppKeyScoping(t *testing.T) {
	router := newLimitedRouter(RateLimitMiddleware(RateLimitConfig{
		Capacity:   1,
		RefillRate: 0.001,
		KeyFunc:    AppKeyFunc,
	}))

	assert.Equal(t, http.StatusOK, doRequest(router, "/apps/app-1/state", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "/apps/app-1/state", "10.0.0.1"))

	// 같은 IP라도 다른 앱은 별도 버킷
	assert.Equal(t, http.StatusOK, doRequest(router, "/apps/app-2/state", "10.0.0.1"))
}
