package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"knowhere/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubEventRepo implements repository.EventRepository with overridable funcs.
type stubEventRepo struct {
	listAllFn    func(ctx context.Context) ([]models.Event, error)
	getByIDFn    func(ctx context.Context, id int64) (*models.Event, error)
	createFn     func(ctx context.Context, event *models.Event) error
	deleteFn     func(ctx context.Context, id int64) error
	deleteAllFn  func(ctx context.Context) error
	replaceAllFn func(ctx context.Context, events []models.Event) error
	existsFn     func(ctx context.Context, id int64) (bool, error)
}

func (s *stubEventRepo) ListAll(ctx context.Context) ([]models.Event, error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx)
	}
	return nil, nil
}

func (s *stubEventRepo) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubEventRepo) Create(ctx context.Context, event *models.Event) error {
	if s.createFn != nil {
		return s.createFn(ctx, event)
	}
	return nil
}

func (s *stubEventRepo) Delete(ctx context.Context, id int64) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubEventRepo) DeleteAll(ctx context.Context) error {
	if s.deleteAllFn != nil {
		return s.deleteAllFn(ctx)
	}
	return nil
}

func (s *stubEventRepo) ReplaceAll(ctx context.Context, events []models.Event) error {
	if s.replaceAllFn != nil {
		return s.replaceAllFn(ctx, events)
	}
	return nil
}

func (s *stubEventRepo) Exists(ctx context.Context, id int64) (bool, error) {
	if s.existsFn != nil {
		return s.existsFn(ctx, id)
	}
	return false, nil
}

func validCreateInput() CreateEventInput {
	return CreateEventInput{
		Title:    "Go Meetup",
		Category: "Meetup",
		Location: "Berlin",
		Date:     "2026-03-20",
		Time:     "18:00",
		Hours:    2,
		Price:    10,
		Capacity: 50,
	}
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestCreateEventValidation(t *testing.T) {
	svc := NewEventService(&stubEventRepo{}, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateEventInput)
	}{
		{"empty title", func(in *CreateEventInput) { in.Title = "" }},
		{"whitespace title", func(in *CreateEventInput) { in.Title = "   " }},
		{"unknown category", func(in *CreateEventInput) { in.Category = "Rave" }},
		{"bad date format", func(in *CreateEventInput) { in.Date = "20/03/2026" }},
		{"bad time format", func(in *CreateEventInput) { in.Time = "6pm" }},
		{"negative hours", func(in *CreateEventInput) { in.Hours = -1 }},
		{"negative price", func(in *CreateEventInput) { in.Price = -5 }},
		{"zero capacity", func(in *CreateEventInput) { in.Capacity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput()
			tt.mutate(&in)
			_, err := svc.CreateEvent(ctx, in)
			assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
		})
	}
}

func TestCreateEventSuccess(t *testing.T) {
	var stored *models.Event
	repo := &stubEventRepo{
		createFn: func(_ context.Context, event *models.Event) error {
			stored = event
			return nil
		},
	}
	svc := NewEventService(repo, nil)

	before := time.Now().UnixMilli()
	event, err := svc.CreateEvent(context.Background(), validCreateInput())
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, "Go Meetup", event.Title)
	assert.GreaterOrEqual(t, event.ID, before)
}

func TestCreateEventIDsAreUnique(t *testing.T) {
	svc := NewEventService(&stubEventRepo{}, nil)
	ctx := context.Background()

	seen := make(map[int64]bool)
	var last int64
	for i := 0; i < 50; i++ {
		event, err := svc.CreateEvent(ctx, validCreateInput())
		require.NoError(t, err)
		assert.False(t, seen[event.ID], "duplicate id %d", event.ID)
		assert.Greater(t, event.ID, last)
		seen[event.ID] = true
		last = event.ID
	}
}

func TestCreateEventStorageFailure(t *testing.T) {
	repo := &stubEventRepo{
		createFn: func(context.Context, *models.Event) error {
			return errors.New("disk full")
		},
	}
	svc := NewEventService(repo, nil)

	_, err := svc.CreateEvent(context.Background(), validCreateInput())
	assert.Equal(t, "STORAGE_WRITE_ERROR", appErrCode(t, err))
}

func TestListEventsDegradesToEmpty(t *testing.T) {
	repo := &stubEventRepo{
		listAllFn: func(context.Context) ([]models.Event, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewEventService(repo, nil)

	views := svc.ListEvents(context.Background(), EventFilter{}, time.Now())
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestListEventsAppliesFilterAndSort(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := &stubEventRepo{
		listAllFn: func(context.Context) ([]models.Event, error) {
			return []models.Event{
				{ID: 1, Title: "Past Thing", Date: "2026-03-10", Time: "10:00", Hours: 1},
				{ID: 2, Title: "Live Thing", Date: "2026-03-14", Time: "11:00", Hours: 2},
			}, nil
		},
	}
	svc := NewEventService(repo, nil)

	views := svc.ListEvents(context.Background(), EventFilter{}, now)
	require.Len(t, views, 2)
	assert.Equal(t, int64(2), views[0].ID)
	assert.Equal(t, models.StatusLive, views[0].Status)
}

func TestGetEventNotFound(t *testing.T) {
	svc := NewEventService(&stubEventRepo{}, nil)

	_, err := svc.GetEvent(context.Background(), 123, time.Now())
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestDeleteEventClearsChat(t *testing.T) {
	var clearedID int64
	repo := &stubEventRepo{}
	svc := NewEventService(repo, func(_ context.Context, eventID int64) error {
		clearedID = eventID
		return nil
	})

	require.NoError(t, svc.DeleteEvent(context.Background(), 42))
	assert.Equal(t, int64(42), clearedID)
}

func TestDeleteEventNotFound(t *testing.T) {
	repo := &stubEventRepo{
		deleteFn: func(context.Context, int64) error {
			return gorm.ErrRecordNotFound
		},
	}
	svc := NewEventService(repo, nil)

	err := svc.DeleteEvent(context.Background(), 42)
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestDeleteEventSurvivesChatClearFailure(t *testing.T) {
	svc := NewEventService(&stubEventRepo{}, func(context.Context, int64) error {
		return errors.New("redis down")
	})

	assert.NoError(t, svc.DeleteEvent(context.Background(), 42))
}
