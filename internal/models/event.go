// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Event represents one organized happening listed on the board.
//
// Date and Time are stored as the organizer entered them ("2006-01-02" and
// "15:04"); together with Hours they define the scheduled window. The id is
// derived from the creation timestamp in milliseconds and is never reused.
type Event struct {
	ID          int64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	Category    string  `gorm:"size:50;index" json:"category"`
	Location    string  `gorm:"size:255;index" json:"location"`
	Organizer   string  `gorm:"size:255" json:"organizer"`
	Date        string  `gorm:"size:10" json:"date"`
	Time        string  `gorm:"size:5" json:"time"`
	Hours       float64 `gorm:"default:0" json:"hours"`
	Price       float64 `gorm:"default:0" json:"price"`
	Capacity    int     `gorm:"default:1" json:"capacity"`
	Description string  `gorm:"type:text" json:"description"`
	// Image is a self-contained data URL (base64 payload plus media type),
	// or empty when no image was uploaded.
	Image     string    `gorm:"type:text" json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Event) TableName() string {
	return "events"
}

// EventStatus is the lifecycle classification of an event relative to the
// current instant. It is always derived, never stored.
type EventStatus string

const (
	StatusLive     EventStatus = "live"
	StatusSoon     EventStatus = "soon"
	StatusUpcoming EventStatus = "upcoming"
	StatusPast     EventStatus = "past"
)

// StatusRank orders statuses by urgency for display sorting.
// Lower rank sorts first.
func StatusRank(s EventStatus) int {
	switch s {
	case StatusLive:
		return 0
	case StatusSoon:
		return 1
	case StatusUpcoming:
		return 2
	default:
		return 3
	}
}

// EventCategories are the predefined categories an organizer can pick from.
var EventCategories = []string{
	"Conference",
	"Workshop",
	"Meetup",
	"Concert",
	"Other",
}

// IsValidCategory reports whether the category is one of the predefined set.
func IsValidCategory(category string) bool {
	for _, c := range EventCategories {
		if c == category {
			return true
		}
	}
	return false
}

const (
	// DateLayout is the calendar-date format events are stored with.
	DateLayout = "2006-01-02"
	// TimeLayout is the wall-clock format events are stored with.
	TimeLayout = "15:04"
)
