package repository

import (
	"context"
	"testing"

	"knowhere/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Event{}); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func makeEvent(id int64, title string) models.Event {
	return models.Event{
		ID:       id,
		Title:    title,
		Category: "Meetup",
		Location: "Online",
		Date:     "2026-03-14",
		Time:     "18:00",
		Hours:    2,
		Price:    10,
		Capacity: 50,
	}
}

func TestEventRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	t.Run("Create and GetByID", func(t *testing.T) {
		event := makeEvent(1700000000001, "Go Meetup")
		err := repo.Create(ctx, &event)
		assert.NoError(t, err)

		got, err := repo.GetByID(ctx, event.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Go Meetup", got.Title)
		assert.Equal(t, event.ID, got.ID)
	})

	t.Run("GetByID missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("ListAll ordered by id", func(t *testing.T) {
		require.NoError(t, repo.DeleteAll(ctx))
		require.NoError(t, repo.Create(ctx, &models.Event{ID: 30, Title: "c", Date: "2026-01-01", Time: "10:00"}))
		require.NoError(t, repo.Create(ctx, &models.Event{ID: 10, Title: "a", Date: "2026-01-01", Time: "10:00"}))
		require.NoError(t, repo.Create(ctx, &models.Event{ID: 20, Title: "b", Date: "2026-01-01", Time: "10:00"}))

		events, err := repo.ListAll(ctx)
		assert.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, int64(10), events[0].ID)
		assert.Equal(t, int64(20), events[1].ID)
		assert.Equal(t, int64(30), events[2].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		event := makeEvent(42, "removable")
		require.NoError(t, repo.Create(ctx, &event))

		assert.NoError(t, repo.Delete(ctx, 42))
		assert.ErrorIs(t, repo.Delete(ctx, 42), gorm.ErrRecordNotFound)
	})

	t.Run("Exists", func(t *testing.T) {
		event := makeEvent(77, "present")
		require.NoError(t, repo.Create(ctx, &event))

		ok, err := repo.Exists(ctx, 77)
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, 78)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ReplaceAll swaps the full set", func(t *testing.T) {
		require.NoError(t, repo.DeleteAll(ctx))
		require.NoError(t, repo.Create(ctx, &models.Event{ID: 1, Title: "old", Date: "2026-01-01", Time: "10:00"}))

		err := repo.ReplaceAll(ctx, []models.Event{
			makeEvent(2, "new-a"),
			makeEvent(3, "new-b"),
		})
		assert.NoError(t, err)

		events, err := repo.ListAll(ctx)
		assert.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "new-a", events[0].Title)
		assert.Equal(t, "new-b", events[1].Title)
	})

	t.Run("ReplaceAll with empty set clears storage", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &models.Event{ID: 5, Title: "x", Date: "2026-01-01", Time: "10:00"}))

		assert.NoError(t, repo.ReplaceAll(ctx, nil))

		events, err := repo.ListAll(ctx)
		assert.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestEventRepositoryWriteFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO \"events\"").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	event := makeEvent(1, "doomed")
	err = repo.Create(context.Background(), &event)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
