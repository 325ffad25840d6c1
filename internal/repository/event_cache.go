package repository

import (
	"context"
	"encoding/json"
	"time"

	"knowhere/internal/cache"
	"knowhere/internal/models"

	"github.com/redis/go-redis/v9"
)

// cachedEventRepository is a read-through Redis cache in front of the
// database repository. The full listing lives under one key with a short
// TTL, single events under their own keys with a longer one. Writes
// invalidate whatever they may have changed; cache trouble is absorbed and
// reads fall through to the database.
type cachedEventRepository struct {
	inner EventRepository
	rdb   *redis.Client
}

// NewCachedEventRepository wraps repo with a Redis read-through cache.
// A nil client returns repo unchanged.
func NewCachedEventRepository(repo EventRepository, rdb *redis.Client) EventRepository {
	if rdb == nil {
		return repo
	}
	return &cachedEventRepository{inner: repo, rdb: rdb}
}

func (r *cachedEventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	if raw, err := r.rdb.Get(ctx, cache.EventListKey).Result(); err == nil {
		var events []models.Event
		if err := json.Unmarshal([]byte(raw), &events); err == nil {
			return events, nil
		}
		r.rdb.Del(ctx, cache.EventListKey)
	}

	events, err := r.inner.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, cache.EventListKey, events, cache.EventListTTL)
	return events, nil
}

func (r *cachedEventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	key := cache.EventKey(id)
	if raw, err := r.rdb.Get(ctx, key).Result(); err == nil {
		var event models.Event
		if err := json.Unmarshal([]byte(raw), &event); err == nil {
			return &event, nil
		}
		r.rdb.Del(ctx, key)
	}

	event, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, event, cache.EventTTL)
	return event, nil
}

func (r *cachedEventRepository) Create(ctx context.Context, event *models.Event) error {
	if err := r.inner.Create(ctx, event); err != nil {
		return err
	}
	r.rdb.Del(ctx, cache.EventListKey)
	return nil
}

func (r *cachedEventRepository) Delete(ctx context.Context, id int64) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.rdb.Del(ctx, cache.EventKey(id), cache.EventListKey)
	return nil
}

func (r *cachedEventRepository) DeleteAll(ctx context.Context) error {
	r.dropEventKeys(ctx)
	if err := r.inner.DeleteAll(ctx); err != nil {
		return err
	}
	r.rdb.Del(ctx, cache.EventListKey)
	return nil
}

func (r *cachedEventRepository) ReplaceAll(ctx context.Context, events []models.Event) error {
	r.dropEventKeys(ctx)
	if err := r.inner.ReplaceAll(ctx, events); err != nil {
		return err
	}
	r.rdb.Del(ctx, cache.EventListKey)
	return nil
}

func (r *cachedEventRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if n, err := r.rdb.Exists(ctx, cache.EventKey(id)).Result(); err == nil && n > 0 {
		return true, nil
	}
	return r.inner.Exists(ctx, id)
}

// store caches a value best effort; a failed write only costs a cache miss.
func (r *cachedEventRepository) store(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	r.rdb.Set(ctx, key, payload, ttl)
}

// dropEventKeys clears every cached single-event record. Bulk deletes
// cannot name the ids they remove, so the whole keyspace slice goes.
func (r *cachedEventRepository) dropEventKeys(ctx context.Context) {
	iter := r.rdb.Scan(ctx, 0, cache.EventKeyPattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		r.rdb.Del(ctx, keys...)
	}
}
