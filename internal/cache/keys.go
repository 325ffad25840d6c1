// Package cache provides Redis connectivity, key management, and TTLs for
// chat storage and event caching.
package cache

import (
	"fmt"
	"time"
)

const (
	EventKeyPrefix  = "event:%d"
	EventKeyPattern = "event:*"
	EventChatPrefix = "chat:event:%d:messages"
	RateLimitPrefix = "ratelimit:%s:%s"
	EventListKey    = "events:all"
)

const (
	EventTTL     = 5 * time.Minute
	EventListTTL = 30 * time.Second
)

// EventKey is the Redis key caching a single event record.
func EventKey(eventID int64) string {
	return fmt.Sprintf(EventKeyPrefix, eventID)
}

// EventChatKey is the Redis list holding an event's chat history.
func EventChatKey(eventID int64) string {
	return fmt.Sprintf(EventChatPrefix, eventID)
}

// RateLimitKey is the Redis counter key for one rate-limited resource and client.
func RateLimitKey(resource, client string) string {
	return fmt.Sprintf(RateLimitPrefix, resource, client)
}
