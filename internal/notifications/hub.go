package notifications

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"

	"knowhere/internal/models"
	"knowhere/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// EventChatHub manages WebSocket connections per event chat room.
type EventChatHub struct {
	mu sync.RWMutex

	// Map: eventID -> set of clients watching that event's chat
	events map[int64]map[*Client]bool

	// Map: sessionID -> set of active Clients (multi-tab support)
	sessionConns map[string]map[*Client]bool

	metrics *observability.ChatRoomMetrics
}

// Name returns a human-readable identifier for this hub.
func (h *EventChatHub) Name() string { return "event chat hub" }

// WireMessage is the envelope broadcast to chat clients.
type WireMessage struct {
	Type    string      `json:"type"` // "message", "joined", "left"
	EventID int64       `json:"event_id"`
	Payload interface{} `json:"payload"`
}

// NewEventChatHub creates a new EventChatHub instance
func NewEventChatHub() *EventChatHub {
	return &EventChatHub{
		events:       make(map[int64]map[*Client]bool),
		sessionConns: make(map[string]map[*Client]bool),
		metrics:      observability.NewChatRoomMetrics(),
	}
}

// Register attaches a session's websocket connection to an event chat.
// Returns the Client or an error if the per-session limit is exceeded.
func (h *EventChatHub) Register(sessionID string, eventID int64, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.sessionConns[sessionID] == nil {
		h.sessionConns[sessionID] = make(map[*Client]bool)
	}
	if len(h.sessionConns[sessionID]) >= maxConnsPerSession {
		h.mu.Unlock()
		return nil, fmt.Errorf("session connection limit reached")
	}

	client := NewClient(h, conn, sessionID, eventID)
	h.sessionConns[sessionID][client] = true

	if h.events[eventID] == nil {
		h.events[eventID] = make(map[*Client]bool)
	}
	h.events[eventID][client] = true
	watchers := len(h.events[eventID])
	h.mu.Unlock()

	h.metrics.IncrementEvent(strconv.FormatInt(eventID, 10))
	log.Printf("EventChatHub: session %s joined event %d (%d watching)", sessionID, eventID, watchers)
	return client, nil
}

// UnregisterClient detaches a client from its event chat.
func (h *EventChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()

	if clients, ok := h.sessionConns[client.SessionID]; ok {
		if !clients[client] {
			h.mu.Unlock()
			return
		}
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.sessionConns, client.SessionID)
		}
	} else {
		h.mu.Unlock()
		return
	}

	if clients, ok := h.events[client.EventID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.events, client.EventID)
		}
	}
	h.mu.Unlock()

	h.metrics.DecrementEvent(strconv.FormatInt(client.EventID, 10))
	close(client.Send)
}

// BroadcastMessage fans a stored chat message out to everyone watching the event.
func (h *EventChatHub) BroadcastMessage(eventID int64, msg models.ChatMessage) {
	envelope := WireMessage{
		Type:    "message",
		EventID: eventID,
		Payload: msg,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("EventChatHub: failed to encode broadcast: %v", err)
		return
	}
	h.BroadcastRaw(eventID, payload)
	h.metrics.RecordMessage(strconv.FormatInt(eventID, 10), "message")
}

// BroadcastRaw sends a pre-encoded payload to everyone watching the event.
func (h *EventChatHub) BroadcastRaw(eventID int64, payload []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.events[eventID]))
	for client := range h.events[eventID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.TrySend(payload)
	}
}

// WatcherCount returns how many clients are attached to an event's chat.
func (h *EventChatHub) WatcherCount(eventID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events[eventID])
}
