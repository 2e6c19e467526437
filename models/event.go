package models

import "time"

// EventStatus mirrors the ENUM in the events table.
type EventStatus string

const (
	EventStatusSetup      EventStatus = "setup"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusCompleted  EventStatus = "completed"
)

type Event struct {
	ID            int         `json:"id" db:"id"`
	Name          string      `json:"name" db:"name"`
	SeedingRounds int         `json:"seeding_rounds" db:"seeding_rounds"`
	Status        EventStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`

	Teams    []Team    `json:"teams,omitempty" db:"-"`
	Brackets []Bracket `json:"brackets,omitempty" db:"-"`
}
