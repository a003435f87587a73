package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"go.uber.org/zap"
)

// Hub 플레이어별 WebSocket 연결 관리 및 이벤트 전달
type Hub struct {
	// 플레이어별 연결 (playerID -> *Client)
	clients map[string]*Client
	mu      sync.RWMutex

	broadcast chan *Message

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *zap.Logger
}

// Message WebSocket 메시지
type Message struct {
	Recipients []string         `json:"-"` // 비어 있으면 전체 브로드캐스트
	Type       models.EventType `json:"type"`
	MatchID    string           `json:"matchId,omitempty"`
	Bracket    models.Bracket   `json:"bracket,omitempty"`
	Payload    interface{}      `json:"payload"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewHub Hub 생성
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run Hub 실행. ctx가 끝나면 모든 연결을 닫고 반환
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

// Deliver 엔진 이벤트를 연결된 플레이어에게 전달 (service.Sink)
func (h *Hub) Deliver(ctx context.Context, event models.Event) error {
	msg := &Message{
		Recipients: event.Recipients,
		Type:       event.Type,
		MatchID:    event.MatchID,
		Bracket:    event.Bracket,
		Payload:    event.Payload,
		Timestamp:  event.Timestamp,
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clients 현재 연결 수
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 기존 연결이 있으면 닫기
	if old, exists := h.clients[client.playerID]; exists {
		close(old.send)
		h.logger.Info("Replaced existing WebSocket connection",
			zap.String("playerId", client.playerID))
	}

	h.clients[client.playerID] = client
	h.logger.Info("WebSocket client registered",
		zap.String("playerId", client.playerID),
		zap.Int("totalClients", len(h.clients)))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 교체된 연결의 해제 요청은 새 연결을 건드리지 않음
	if current, exists := h.clients[client.playerID]; exists && current == client {
		delete(h.clients, client.playerID)
		close(client.send)
		h.logger.Info("WebSocket client unregistered",
			zap.String("playerId", client.playerID),
			zap.Int("totalClients", len(h.clients)))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
}

func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(message.Recipients) == 0 {
		for _, client := range h.clients {
			h.send(client, message)
		}
		return
	}
	for _, id := range message.Recipients {
		if client, exists := h.clients[id]; exists {
			h.send(client, message)
		}
	}
}

func (h *Hub) send(client *Client, message *Message) {
	select {
	case client.send <- message:
	default:
		// 채널이 가득 찬 경우 연결 해제
		h.logger.Warn("Client send channel full, unregistering",
			zap.String("playerId", client.playerID))
		go h.leave(client)
	}
}

// leave Hub가 이미 멈췄으면 해제 요청을 버림
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
