package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fliplet/fliplet-widget-publishing/internal/websocket"
)

// WebSocketHandler WebSocket 연결 처리
type WebSocketHandler struct {
	hub *websocket.Hub
}

// NewWebSocketHandler WebSocketHandler 생성
func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// HandleWebSocket WebSocket 연결 엔드포인트. 앱 단위 제출 상태 알림 구독
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	appID := c.Query("appId")
	if appID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "appId query parameter required"})
		return
	}

	// WebSocket 연결 업그레이드
	websocket.ServeWs(h.hub, c.Writer, c.Request, appID)
}
