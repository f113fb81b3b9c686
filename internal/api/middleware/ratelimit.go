package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Fliplet/fliplet-widget-publishing/pkg/ratelimit"
)

// RateLimitConfig holds rate limit configuration
type RateLimitConfig struct {
	Capacity   int                       // Maximum burst of requests
	RefillRate float64                   // Requests per second
	KeyFunc    func(*gin.Context) string // Function to extract rate limit key
}

// DefaultKeyFunc uses user ID if authenticated, otherwise IP address
func DefaultKeyFunc(c *gin.Context) string {
	if userID, exists := c.Get("userId"); exists {
		return fmt.Sprintf("user:%v", userID)
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// IPKeyFunc uses only IP address (for public endpoints)
func IPKeyFunc(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// AppKeyFunc scopes the limit to the app being published
func AppKeyFunc(c *gin.Context) string {
	if appID := c.Param("appId"); appID != "" {
		return fmt.Sprintf("app:%s", appID)
	}
	return DefaultKeyFunc(c)
}

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	limiter := ratelimit.NewKeyed(config.Capacity, config.RefillRate)

	if config.KeyFunc == nil {
		config.KeyFunc = DefaultKeyFunc
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(config.Capacity))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))
			c.Header("Retry-After", "1")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": fmt.Sprintf("Too many requests. Limit: %g requests per second", config.RefillRate),
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Capacity))

		c.Next()
	}
}

// Common rate limit configurations

// MutationRateLimit - 워크플로우 전이 요청 제한 (앱 단위, 분당 30회 수준)
func MutationRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(RateLimitConfig{
		Capacity:   10,
		RefillRate: 0.5, // 1 token per 2 seconds
		KeyFunc:    AppKeyFunc,
	})
}

// UploadRateLimit - 에셋 업로드 제한 (앱 단위)
func UploadRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(RateLimitConfig{
		Capacity:   5,
		RefillRate: 0.2, // 1 token per 5 seconds
		KeyFunc:    AppKeyFunc,
	})
}

// GeneralAPIRateLimit - 100 requests burst per IP/user
func GeneralAPIRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(RateLimitConfig{
		Capacity:   100,
		RefillRate: 10,
		KeyFunc:    DefaultKeyFunc,
	})
}

// WSConnectRateLimit - WebSocket 연결 제한 (인증 전이므로 IP 단위)
func WSConnectRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(RateLimitConfig{
		Capacity:   10,
		RefillRate: 1,
		KeyFunc:    IPKeyFunc,
	})
}
