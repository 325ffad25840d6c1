package service

import (
	"sort"
	"strings"
	"time"

	"knowhere/internal/models"
)

// EventView is an event annotated with its computed lifecycle status.
type EventView struct {
	models.Event
	Status models.EventStatus `json:"status"`
}

// EventFilter holds the listing filter criteria. Zero values pass everything.
type EventFilter struct {
	Query    string
	Category string
	Location string
	Statuses []models.EventStatus
	PriceMin *float64
	PriceMax *float64
}

// matchAll is the sentinel select-option meaning no restriction.
const matchAll = "All"

func (f EventFilter) matches(view EventView) bool {
	if q := strings.TrimSpace(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(view.Title), strings.ToLower(q)) {
			return false
		}
	}
	if f.Category != "" && f.Category != matchAll && view.Category != f.Category {
		return false
	}
	if f.Location != "" && f.Location != matchAll && view.Location != f.Location {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if view.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.PriceMin != nil && view.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && view.Price > *f.PriceMax {
		return false
	}
	return true
}

// FilterAndSort computes each event's status, drops events failing the
// filter, and orders the rest live first, then soon, upcoming, and past.
// The sort is stable, so events sharing a status keep their input order.
func FilterAndSort(events []models.Event, filter EventFilter, now time.Time) []EventView {
	views := make([]EventView, 0, len(events))
	for _, event := range events {
		view := EventView{Event: event, Status: ComputeStatus(event, now)}
		if filter.matches(view) {
			views = append(views, view)
		}
	}

	sort.SliceStable(views, func(i, j int) bool {
		return models.StatusRank(views[i].Status) < models.StatusRank(views[j].Status)
	})

	return views
}
