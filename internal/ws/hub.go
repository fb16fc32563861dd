package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/observability"
)

// Close codes sent when the service terminates a connection.
const (
	CloseChatDeleted = 4000
	CloseEvicted     = 4403
)

// Conn is the write side of a websocket connection as the hub sees it.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub is the per-chat registry of live connections. It is the only shared
// mutable structure in the service; one instance is created at startup and
// passed to everything that subscribes or broadcasts.
type Hub struct {
	mu    sync.Mutex
	rooms map[int]map[Conn]ConnInfo
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int]map[Conn]ConnInfo)}
}

// Subscribe registers a connection under a chat, creating the room lazily.
func (h *Hub) Subscribe(chatID int, conn Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[Conn]ConnInfo)
	}
	h.rooms[chatID][conn] = info
}

// Unsubscribe removes a connection. Removing an absent connection is a
// no-op so that disconnect and failed-delivery cleanup may race freely.
// An emptied room is dropped.
func (h *Hub) Unsubscribe(chatID int, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

type subscriber struct {
	conn Conn
	info ConnInfo
}

// snapshot copies the room's subscriber set so delivery can happen without
// holding the lock.
func (h *Hub) snapshot(chatID int) []subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.rooms[chatID]
	if len(conns) == 0 {
		return nil
	}
	subs := make([]subscriber, 0, len(conns))
	for conn, info := range conns {
		subs = append(subs, subscriber{conn: conn, info: info})
	}
	return subs
}

// Broadcast delivers the event to every connection currently subscribed to
// the chat. A failed write drops only that subscriber; delivery continues
// for the rest and the caller is never told.
func (h *Hub) Broadcast(chatID int, event models.ChatEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	for _, sub := range h.snapshot(chatID) {
		if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			sub.conn.Close()
			h.Unsubscribe(chatID, sub.conn)
			h.publishWSError(chatID, sub.info, err)
		}
	}
}

// EvictUser closes every connection the user holds on the chat. Called when
// a participant is removed or leaves, so the registry never carries
// subscriptions for users outside the participant set.
func (h *Hub) EvictUser(chatID, userID int) {
	closeMsg := websocket.FormatCloseMessage(CloseEvicted, "removed from chat")
	for _, sub := range h.snapshot(chatID) {
		if sub.info.UserID != userID {
			continue
		}
		_ = sub.conn.WriteMessage(websocket.CloseMessage, closeMsg)
		sub.conn.Close()
		h.Unsubscribe(chatID, sub.conn)
		observability.IncWSEvent("chat", "ws_evict")
	}
}

// CloseRoom closes every connection on the chat. Called when the chat is
// deleted, including population-collapse deletion.
func (h *Hub) CloseRoom(chatID int) {
	closeMsg := websocket.FormatCloseMessage(CloseChatDeleted, "chat deleted")
	for _, sub := range h.snapshot(chatID) {
		_ = sub.conn.WriteMessage(websocket.CloseMessage, closeMsg)
		sub.conn.Close()
		h.Unsubscribe(chatID, sub.conn)
		observability.IncWSEvent("chat", "ws_evict")
	}
}

func (h *Hub) publishWSError(chatID int, info ConnInfo, err error) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"resource_id": chatID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("chat", "ws_error")
}
