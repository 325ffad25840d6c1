// Package service provides application business logic (events, chat, sessions).
package service

import (
	"time"

	"knowhere/internal/models"
)

// ComputeStatus derives an event's lifecycle status from the reference time.
// Events with unparseable schedules are treated as past so they sink to the
// bottom of listings instead of breaking them.
func ComputeStatus(event models.Event, now time.Time) models.EventStatus {
	start, err := time.ParseInLocation(
		models.DateLayout+" "+models.TimeLayout,
		event.Date+" "+event.Time,
		now.Location(),
	)
	if err != nil {
		return models.StatusPast
	}

	duration := time.Duration(event.Hours * float64(time.Hour))
	end := start.Add(duration)

	if now.After(end) {
		return models.StatusPast
	}
	if !now.Before(start) {
		// A zero-length event has no live window at all
		if duration <= 0 {
			return models.StatusPast
		}
		return models.StatusLive
	}

	ny, nm, nd := now.Date()
	sy, sm, sd := start.Date()
	if ny == sy && nm == sm && nd == sd {
		return models.StatusSoon
	}
	return models.StatusUpcoming
}
