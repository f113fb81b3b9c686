package websocket

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/logger"
)

// Hub WebSocket 연결 관리 및 앱 단위 브로드캐스트.
// 같은 앱의 대시보드를 여러 명이 열 수 있으므로 appID당 다중 연결을 허용한다.
type Hub struct {
	// appID -> 연결 집합
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	logger *zap.Logger
}

// Message WebSocket 메시지
type Message struct {
	AppID   string      `json:"-"`       // 수신 대상 앱 (빈 문자열이면 전체)
	Type    string      `json:"type"`    // 메시지 타입
	Payload interface{} `json:"payload"` // 메시지 내용
}

// SubmissionStatusMessage 제출 상태 변경 알림
type SubmissionStatusMessage struct {
	SubmissionID string                  `json:"submissionId"`
	Platform     models.Platform         `json:"platform"`
	Status       models.SubmissionStatus `json:"status"`
	StepStatus   models.StepStatus       `json:"stepStatus,omitempty"`
	CurrentStep  string                  `json:"currentStep,omitempty"`
	Message      string                  `json:"message,omitempty"`
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.L(),
	}
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.appID] == nil {
		h.clients[client.appID] = make(map[*Client]bool)
	}
	h.clients[client.appID][client] = true

	h.logger.Info("WebSocket client registered",
		zap.String("appId", client.appID),
		zap.Int("appClients", len(h.clients[client.appID])))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.appID]
	if !ok || !clients[client] {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.appID)
	}

	h.logger.Info("WebSocket client unregistered",
		zap.String("appId", client.appID))
}

func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(client *Client) {
		select {
		case client.send <- message:
		default:
			// 송신 채널이 가득 찬 연결은 끊는다
			h.logger.Warn("Client send channel full, unregistering",
				zap.String("appId", client.appID))
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}

	if message.AppID == "" {
		for _, clients := range h.clients {
			for client := range clients {
				deliver(client)
			}
		}
		return
	}

	for client := range h.clients[message.AppID] {
		deliver(client)
	}
}

// SendToApp 특정 앱의 모든 연결에 메시지 전송
func (h *Hub) SendToApp(appID, msgType string, payload interface{}) {
	h.broadcast <- &Message{
		AppID:   appID,
		Type:    msgType,
		Payload: payload,
	}
}

// SendSubmissionStatus 제출 상태 변경 알림 전송
func (h *Hub) SendSubmissionStatus(appID string, payload SubmissionStatusMessage) {
	h.SendToApp(appID, "submission_status", payload)
}
