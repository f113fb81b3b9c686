package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Fliplet/fliplet-widget-publishing/pkg/logger"
)

const (
	// 피어에게 메시지를 쓸 수 있는 제한 시간
	writeWait = 10 * time.Second

	// 다음 pong을 기다리는 제한 시간
	pongWait = 60 * time.Second

	// ping 주기 (pongWait보다 짧아야 함)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origin 제한은 CORS 미들웨어와 동일한 화이트리스트로 프록시 계층에서 처리
		return true
	},
}

// Client WebSocket 클라이언트 연결
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan *Message
	appID  string
	logger *zap.Logger
}

// NewClient 클라이언트 생성
func NewClient(hub *Hub, conn *websocket.Conn, appID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan *Message, 256),
		appID:  appID,
		logger: logger.L(),
	}
}

// readPump 연결 유지용 읽기 루프. 수신 메시지는 무시한다 (단방향 푸시)
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error",
					zap.String("appId", c.appID),
					zap.Error(err))
			}
			break
		}
	}
}

// writePump Hub의 메시지를 연결로 전송
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.logger.Error("Failed to marshal message",
					zap.String("appId", c.appID),
					zap.Error(err))
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("Failed to write message",
					zap.String("appId", c.appID),
					zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs WebSocket 연결 업그레이드 및 펌프 시작
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, appID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := NewClient(hub, conn, appID)
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
