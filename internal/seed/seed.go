// Package seed provides helpers to create demo event data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"knowhere/internal/models"
	"knowhere/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
)

// Options configuration for the seeder
type Options struct {
	NumEvents   int
	ShouldClean bool
	// MaxDaysAhead bounds how far into the future generated events land.
	MaxDaysAhead int
	// PastRatio is the fraction of events scheduled in the past.
	PastRatio float64
}

var eventTitleNouns = []string{
	"Summit", "Night", "Jam", "Expo", "Bootcamp", "Showcase",
	"Sessions", "Festival", "Sprint", "Social",
}

// Seeder builds and persists demo events.
type Seeder struct {
	repo repository.EventRepository
	opts Options
	rng  *rand.Rand
	// synthetic millisecond IDs, spaced so they never collide
	nextID int64
}

// NewSeeder creates a Seeder bound to the provided repository.
func NewSeeder(repo repository.EventRepository, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	if opts.NumEvents <= 0 {
		opts.NumEvents = 25
	}
	if opts.MaxDaysAhead <= 0 {
		opts.MaxDaysAhead = 45
	}
	if opts.PastRatio < 0 || opts.PastRatio > 1 {
		opts.PastRatio = 0.2
	}
	return &Seeder{
		repo:   repo,
		opts:   opts,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID: time.Now().UnixMilli(),
	}
}

// BuildEvent constructs one plausible event without persisting it.
func (s *Seeder) BuildEvent(overrides ...func(*models.Event)) *models.Event {
	category := models.EventCategories[s.rng.Intn(len(models.EventCategories))]
	noun := eventTitleNouns[s.rng.Intn(len(eventTitleNouns))]

	daysAhead := s.rng.Intn(s.opts.MaxDaysAhead) + 1
	if s.rng.Float64() < s.opts.PastRatio {
		daysAhead = -daysAhead
	}
	start := time.Now().AddDate(0, 0, daysAhead)

	s.nextID++
	event := &models.Event{
		ID:          s.nextID,
		Title:       fmt.Sprintf("%s %s", gofakeit.HipsterWord(), noun),
		Category:    category,
		Location:    fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.StateAbr()),
		Organizer:   gofakeit.Company(),
		Date:        start.Format(models.DateLayout),
		Time:        fmt.Sprintf("%02d:%02d", 8+s.rng.Intn(12), 15*s.rng.Intn(4)),
		Hours:       float64(1+s.rng.Intn(6)) + 0.5*float64(s.rng.Intn(2)),
		Price:       float64(s.rng.Intn(8)) * 12.5,
		Capacity:    10 * (1 + s.rng.Intn(50)),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
	}

	for _, override := range overrides {
		override(event)
	}
	return event
}

// dateOffset formats a date the given number of days from now.
func dateOffset(days int) string {
	return time.Now().AddDate(0, 0, days).Format(models.DateLayout)
}

// Run clears the table when requested and inserts the configured number
// of generated events.
func (s *Seeder) Run(ctx context.Context) ([]models.Event, error) {
	if s.opts.ShouldClean {
		if err := s.repo.DeleteAll(ctx); err != nil {
			return nil, fmt.Errorf("cleaning events: %w", err)
		}
		log.Println("Cleared existing events")
	}

	events := make([]models.Event, 0, s.opts.NumEvents)
	for i := 0; i < s.opts.NumEvents; i++ {
		event := s.BuildEvent()
		if err := s.repo.Create(ctx, event); err != nil {
			return events, fmt.Errorf("creating event %q: %w", event.Title, err)
		}
		events = append(events, *event)
	}

	log.Printf("Seeded %d events", len(events))
	return events, nil
}
