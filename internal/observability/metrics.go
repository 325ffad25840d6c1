// Package observability provides metrics and tracing.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowhere_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "knowhere_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketEventConnections is the gauge of chat connections per event.
	WebSocketEventConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "knowhere_websocket_event_connections",
		Help: "Number of WebSocket connections per event chat",
	}, []string{"event_id"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "knowhere_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// MessageThroughput counts chat messages processed per event and type.
	MessageThroughput = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowhere_message_throughput_total",
		Help: "Total number of chat messages processed",
	}, []string{"event_id", "message_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowhere_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// EventsCreated counts events created by category.
	EventsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowhere_events_created_total",
		Help: "Total number of events created by category",
	}, []string{"category"})

	// ChatMessagesStored counts chat messages appended to storage.
	ChatMessagesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowhere_chat_messages_stored_total",
		Help: "Total number of chat messages appended to storage",
	})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

// ChatRoomMetrics tracks per-event WebSocket connection counts.
// Callers update it from connection goroutines, so the count map is locked.
type ChatRoomMetrics struct {
	mu          sync.Mutex
	eventCounts map[string]int
}

// NewChatRoomMetrics returns a new ChatRoomMetrics instance.
func NewChatRoomMetrics() *ChatRoomMetrics {
	return &ChatRoomMetrics{
		eventCounts: make(map[string]int),
	}
}

// IncrementEvent increments the connection count for the event chat.
func (m *ChatRoomMetrics) IncrementEvent(eventID string) {
	m.mu.Lock()
	m.eventCounts[eventID]++
	m.mu.Unlock()
	WebSocketEventConnections.WithLabelValues(eventID).Inc()
	WebSocketConnectionsTotal.Inc()
}

// DecrementEvent decrements the connection count for the event chat.
func (m *ChatRoomMetrics) DecrementEvent(eventID string) {
	m.mu.Lock()
	if m.eventCounts[eventID] > 0 {
		m.eventCounts[eventID]--
	}
	m.mu.Unlock()
	WebSocketEventConnections.WithLabelValues(eventID).Dec()
	WebSocketConnectionsTotal.Dec()
}

// GetEventCount returns the current connection count for the event chat.
func (m *ChatRoomMetrics) GetEventCount(eventID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventCounts[eventID]
}

// RecordMessage increments message throughput counters for the event and type.
func (*ChatRoomMetrics) RecordMessage(eventID, messageType string) {
	MessageThroughput.WithLabelValues(eventID, messageType).Inc()
}
