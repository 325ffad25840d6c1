package notifications

import (
	"context"
	"log"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes chat messages into Redis channels so every server
// instance can fan them out to its own WebSocket clients.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishEventMessage publishes a chat payload to an event's channel.
func (n *Notifier) PublishEventMessage(ctx context.Context, eventID int64, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, EventChannel(eventID), payload).Err()
}

// StartChatSubscriber subscribes to every event chat channel and calls
// onMessage for each incoming message.
func (n *Notifier) StartChatSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "chat:event:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in ChatSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// EventChannel derives the Redis channel name for an event's chat.
func EventChannel(eventID int64) string {
	return "chat:event:" + strconv.FormatInt(eventID, 10)
}

// ParseEventChannel extracts the event ID from a chat channel name.
// Returns false for channels that are not event chat channels, including
// the history list keys which share the prefix.
func ParseEventChannel(channel string) (int64, bool) {
	rest, ok := strings.CutPrefix(channel, "chat:event:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
