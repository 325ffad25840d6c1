package service

import (
	"testing"
	"time"

	"knowhere/internal/models"

	"github.com/stretchr/testify/assert"
)

func eventAt(date, clock string, hours float64) models.Event {
	return models.Event{
		ID:    1,
		Title: "test event",
		Date:  date,
		Time:  clock,
		Hours: hours,
	}
}

func TestComputeStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event models.Event
		want  models.EventStatus
	}{
		{
			name:  "future day is upcoming",
			event: eventAt("2026-03-20", "18:00", 2),
			want:  models.StatusUpcoming,
		},
		{
			name:  "later today is soon",
			event: eventAt("2026-03-14", "18:00", 2),
			want:  models.StatusSoon,
		},
		{
			name:  "in progress is live",
			event: eventAt("2026-03-14", "11:00", 2),
			want:  models.StatusLive,
		},
		{
			name:  "ended earlier today is past",
			event: eventAt("2026-03-14", "08:00", 2),
			want:  models.StatusPast,
		},
		{
			name:  "previous day is past",
			event: eventAt("2026-03-13", "18:00", 2),
			want:  models.StatusPast,
		},
		{
			name:  "live at exact start",
			event: eventAt("2026-03-14", "12:00", 2),
			want:  models.StatusLive,
		},
		{
			name:  "live at exact end",
			event: eventAt("2026-03-14", "10:00", 2),
			want:  models.StatusLive,
		},
		{
			name:  "past one second after end",
			event: eventAt("2026-03-14", "09:00", 2.9997),
			want:  models.StatusPast,
		},
		{
			name:  "fractional hours still in window",
			event: eventAt("2026-03-14", "11:00", 1.5),
			want:  models.StatusLive,
		},
		{
			name:  "unparseable date is past",
			event: eventAt("03/14/2026", "18:00", 2),
			want:  models.StatusPast,
		},
		{
			name:  "unparseable time is past",
			event: eventAt("2026-03-20", "6pm", 2),
			want:  models.StatusPast,
		},
		{
			name:  "empty schedule is past",
			event: eventAt("", "", 2),
			want:  models.StatusPast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatus(tt.event, now))
		})
	}
}

func TestComputeStatusZeroDuration(t *testing.T) {
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	event := eventAt("2026-03-14", "12:00", 0)

	// A zero-length event is never live, even at the exact start instant
	assert.Equal(t, models.StatusSoon, ComputeStatus(event, start.Add(-time.Minute)))
	assert.Equal(t, models.StatusPast, ComputeStatus(event, start))
	assert.Equal(t, models.StatusPast, ComputeStatus(event, start.Add(time.Minute)))
}

func TestComputeStatusNeverLiveWithoutDuration(t *testing.T) {
	event := eventAt("2026-03-14", "09:30", 0)

	// Sweep the whole day in coarse steps; no instant may report live
	for minute := 0; minute < 24*60; minute += 7 {
		now := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
		status := ComputeStatus(event, now)
		assert.NotEqual(t, models.StatusLive, status, "minute offset %d", minute)
	}
}

func TestComputeStatusUsesReferenceLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	assert.NoError(t, err)

	event := eventAt("2026-03-14", "12:00", 2)
	nowTokyo := time.Date(2026, 3, 14, 13, 0, 0, 0, tokyo)

	// The schedule is interpreted in the reference clock's location
	assert.Equal(t, models.StatusLive, ComputeStatus(event, nowTokyo))
}
