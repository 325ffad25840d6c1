package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"knowhere/internal/middleware"
	"knowhere/internal/models"
	"knowhere/internal/observability"
	"knowhere/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// EventService provides event listing and lifecycle business logic.
type EventService struct {
	eventRepo repository.EventRepository
	clearChat func(ctx context.Context, eventID int64) error

	mu     sync.Mutex
	lastID int64
}

// NewEventService returns a new EventService. clearChat is invoked when an
// event is removed so its chat history does not outlive it; it may be nil.
func NewEventService(
	eventRepo repository.EventRepository,
	clearChat func(ctx context.Context, eventID int64) error,
) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		clearChat: clearChat,
	}
}

// CreateEventInput is the input for creating an event.
type CreateEventInput struct {
	Title       string
	Category    string
	Location    string
	Organizer   string
	Date        string
	Time        string
	Hours       float64
	Price       float64
	Capacity    int
	Description string
	Image       string
}

// ListEvents returns the filtered, status-sorted event listing.
// Storage read failures degrade to an empty listing rather than an error.
func (s *EventService) ListEvents(ctx context.Context, filter EventFilter, now time.Time) []EventView {
	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "event listing read failed, serving empty list",
			slog.String("error", err.Error()),
		)
		return []EventView{}
	}
	return FilterAndSort(events, filter, now)
}

// GetEvent returns a single event with its computed status.
func (s *EventService) GetEvent(ctx context.Context, id int64, now time.Time) (*EventView, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Event", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &EventView{Event: *event, Status: ComputeStatus(*event, now)}, nil
}

// CreateEvent validates the input, assigns a creation-time ID, and persists
// the event.
func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if !models.IsValidCategory(in.Category) {
		return nil, models.NewValidationError("Unknown category: " + in.Category)
	}
	if _, err := time.Parse(models.DateLayout, in.Date); err != nil {
		return nil, models.NewValidationError("Date must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse(models.TimeLayout, in.Time); err != nil {
		return nil, models.NewValidationError("Time must be in HH:MM format")
	}
	if in.Hours < 0 {
		return nil, models.NewValidationError("Duration cannot be negative")
	}
	if in.Price < 0 {
		return nil, models.NewValidationError("Price cannot be negative")
	}
	if in.Capacity < 1 {
		return nil, models.NewValidationError("Capacity must be at least 1")
	}

	span, ctx := observability.NewSpan(ctx, "event.create")
	defer span.End()
	span.AddAttributes(attribute.String("event.category", in.Category))

	event := &models.Event{
		ID:          s.nextID(),
		Title:       in.Title,
		Category:    in.Category,
		Location:    strings.TrimSpace(in.Location),
		Organizer:   strings.TrimSpace(in.Organizer),
		Date:        in.Date,
		Time:        in.Time,
		Hours:       in.Hours,
		Price:       in.Price,
		Capacity:    in.Capacity,
		Description: in.Description,
		Image:       in.Image,
		CreatedAt:   time.Now(),
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		span.SetError(err)
		return nil, models.NewStorageWriteError(err)
	}

	observability.EventsCreated.WithLabelValues(event.Category).Inc()
	middleware.Logger.InfoContext(ctx, "event created",
		slog.Int64("event_id", event.ID),
		slog.String("category", event.Category),
		slog.String("trace_id", span.TraceID()),
	)
	return event, nil
}

// DeleteEvent removes an event and its chat history.
func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Event", id)
		}
		return models.NewStorageWriteError(err)
	}

	if s.clearChat != nil {
		if err := s.clearChat(ctx, id); err != nil {
			// The event itself is gone; a stale chat list only wastes space
			middleware.Logger.WarnContext(ctx, "failed to clear chat history for deleted event",
				slog.Int64("event_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// ClearAll removes every event from storage.
func (s *EventService) ClearAll(ctx context.Context) error {
	if err := s.eventRepo.DeleteAll(ctx); err != nil {
		return models.NewStorageWriteError(err)
	}
	return nil
}

// nextID returns a millisecond-resolution timestamp ID, bumped past the
// previous one when two events are created within the same millisecond.
func (s *EventService) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}
