package seed

import (
	"context"
	"fmt"
	"os"

	"knowhere/internal/models"

	"gopkg.in/yaml.v3"
)

// PresetEvent is one event entry in a preset file. Dates are given as day
// offsets from now so presets stay useful regardless of when they run.
type PresetEvent struct {
	Title       string  `yaml:"title"`
	Category    string  `yaml:"category"`
	Location    string  `yaml:"location"`
	Organizer   string  `yaml:"organizer"`
	DaysAhead   int     `yaml:"days_ahead"`
	Time        string  `yaml:"time"`
	Hours       float64 `yaml:"hours"`
	Price       float64 `yaml:"price"`
	Capacity    int     `yaml:"capacity"`
	Description string  `yaml:"description"`
}

// Preset is a named collection of curated events.
type Preset struct {
	Name   string        `yaml:"name"`
	Events []PresetEvent `yaml:"events"`
}

// LoadPreset reads and validates a preset YAML file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset: %w", err)
	}

	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("parsing preset: %w", err)
	}
	if len(preset.Events) == 0 {
		return nil, fmt.Errorf("preset %q contains no events", path)
	}
	for i, e := range preset.Events {
		if e.Title == "" {
			return nil, fmt.Errorf("preset event %d has no title", i)
		}
		if e.Category != "" && !models.IsValidCategory(e.Category) {
			return nil, fmt.Errorf("preset event %q has unknown category %q", e.Title, e.Category)
		}
	}
	return &preset, nil
}

// ApplyPreset inserts the preset's events, filling unset fields with
// generated values.
func (s *Seeder) ApplyPreset(ctx context.Context, preset *Preset) ([]models.Event, error) {
	events := make([]models.Event, 0, len(preset.Events))
	for _, pe := range preset.Events {
		pe := pe
		event := s.BuildEvent(func(event *models.Event) {
			event.Title = pe.Title
			if pe.Category != "" {
				event.Category = pe.Category
			}
			if pe.Location != "" {
				event.Location = pe.Location
			}
			if pe.Organizer != "" {
				event.Organizer = pe.Organizer
			}
			if pe.DaysAhead != 0 {
				event.Date = dateOffset(pe.DaysAhead)
			}
			if pe.Time != "" {
				event.Time = pe.Time
			}
			if pe.Hours > 0 {
				event.Hours = pe.Hours
			}
			if pe.Price > 0 {
				event.Price = pe.Price
			}
			if pe.Capacity > 0 {
				event.Capacity = pe.Capacity
			}
			if pe.Description != "" {
				event.Description = pe.Description
			}
		})
		if err := s.repo.Create(ctx, event); err != nil {
			return events, fmt.Errorf("creating preset event %q: %w", event.Title, err)
		}
		events = append(events, *event)
	}
	return events, nil
}
