// Package repository provides data access layers for events and chat history.
package repository

import (
	"context"
	"errors"

	"knowhere/internal/models"
	"knowhere/internal/observability"

	"gorm.io/gorm"
)

// EventRepository defines the interface for event data operations
type EventRepository interface {
	ListAll(ctx context.Context) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	ReplaceAll(ctx context.Context, events []models.Event) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// eventRepository implements EventRepository
type eventRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	traces  *observability.TraceLayer
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
		traces:  observability.GetTraceLayer(),
	}
}

func (r *eventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "ListAll", "events")
	defer span.End()
	defer r.metrics.TrackQuery("list_all", "events")()

	var events []models.Event
	err := r.db.WithContext(ctx).Order("id ASC").Find(&events).Error
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "GetByID", "events")
	defer span.End()
	defer r.metrics.TrackQuery("get_by_id", "events")()

	var event models.Event
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordErrorInContext(ctx, err)
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Create", "events")
	defer span.End()
	defer r.metrics.TrackQuery("create", "events")()

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		observability.RecordErrorInContext(ctx, err)
		return err
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Delete", "events")
	defer span.End()
	defer r.metrics.TrackQuery("delete", "events")()

	res := r.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id)
	if res.Error != nil {
		observability.RecordErrorInContext(ctx, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *eventRepository) DeleteAll(ctx context.Context) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "DeleteAll", "events")
	defer span.End()
	defer r.metrics.TrackQuery("delete_all", "events")()

	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Event{}).Error; err != nil {
		observability.RecordErrorInContext(ctx, err)
		return err
	}
	return nil
}

// ReplaceAll swaps the full event set in a single transaction so readers
// never observe a partially written listing.
func (r *eventRepository) ReplaceAll(ctx context.Context, events []models.Event) error {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "ReplaceAll", "events")
	defer span.End()
	defer r.metrics.TrackQuery("replace_all", "events")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Event{}).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		return tx.Create(&events).Error
	})
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
	}
	return err
}

func (r *eventRepository) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "Exists", "events")
	defer span.End()
	defer r.metrics.TrackQuery("exists", "events")()

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		observability.RecordErrorInContext(ctx, err)
		return false, err
	}
	return count > 0, nil
}
