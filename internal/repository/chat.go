package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"knowhere/internal/cache"
	"knowhere/internal/middleware"
	"knowhere/internal/models"
	"knowhere/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ChatRepository defines the interface for chat history operations
type ChatRepository interface {
	ListMessages(ctx context.Context, eventID int64, limit int) ([]models.ChatMessage, error)
	AppendMessage(ctx context.Context, eventID int64, msg models.ChatMessage) error
	ClearMessages(ctx context.Context, eventID int64) error
}

// chatRepository stores chat history as Redis lists, one list per event.
// RPUSH makes concurrent appends atomic, so two writers can never lose
// each other's messages.
type chatRepository struct {
	rdb    *redis.Client
	traces *observability.TraceLayer
}

// NewChatRepository creates a new chat repository backed by Redis.
func NewChatRepository(rdb *redis.Client) ChatRepository {
	return &chatRepository{
		rdb:    rdb,
		traces: observability.GetTraceLayer(),
	}
}

func (r *chatRepository) ListMessages(ctx context.Context, eventID int64, limit int) ([]models.ChatMessage, error) {
	if r.rdb == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	ctx, span := r.traces.TraceRedisOperation(ctx, "lrange")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	raw, err := r.rdb.LRange(ctx, cache.EventChatKey(eventID), start, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]models.ChatMessage, 0, len(raw))
	for _, entry := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			// Corrupt entries are skipped rather than failing the whole read
			middleware.Logger.WarnContext(ctx, "skipping corrupt chat entry",
				slog.Int64("event_id", eventID),
				slog.String("error", err.Error()),
			)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *chatRepository) AppendMessage(ctx context.Context, eventID int64, msg models.ChatMessage) error {
	if r.rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	ctx, span := r.traces.TraceRedisOperation(ctx, "rpush")
	defer span.End()

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode chat message: %w", err)
	}

	if err := r.rdb.RPush(ctx, cache.EventChatKey(eventID), payload).Err(); err != nil {
		return err
	}
	observability.ChatMessagesStored.Inc()
	return nil
}

func (r *chatRepository) ClearMessages(ctx context.Context, eventID int64) error {
	if r.rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	ctx, span := r.traces.TraceRedisOperation(ctx, "del")
	defer span.End()
	return r.rdb.Del(ctx, cache.EventChatKey(eventID)).Err()
}
