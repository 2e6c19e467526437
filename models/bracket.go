package models

import "time"

// BracketStatus mirrors the ENUM in the brackets table.
type BracketStatus string

const (
	BracketStatusSetup      BracketStatus = "setup"
	BracketStatusInProgress BracketStatus = "in_progress"
	BracketStatusCompleted  BracketStatus = "completed"
)

type EliminationType string

const (
	EliminationSingle EliminationType = "single"
	EliminationDouble EliminationType = "double"
)

type Bracket struct {
	ID              int             `json:"id" db:"id"`
	EventID         int             `json:"event_id" db:"event_id"`
	Name            string          `json:"name" db:"name"`
	EliminationType EliminationType `json:"elimination_type" db:"elimination_type"`
	BracketSize     int             `json:"bracket_size" db:"bracket_size"`
	ActualTeamCount *int            `json:"actual_team_count,omitempty" db:"actual_team_count"`
	Status          BracketStatus   `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// BracketEntry assigns one seed slot of a bracket. TeamID is null exactly
// when the slot is a bye.
type BracketEntry struct {
	ID           int  `json:"id" db:"id"`
	BracketID    int  `json:"bracket_id" db:"bracket_id"`
	SeedPosition int  `json:"seed_position" db:"seed_position"`
	TeamID       *int `json:"team_id" db:"team_id"`
	IsBye        bool `json:"is_bye" db:"is_bye"`

	Team *Team `json:"team,omitempty" db:"-"`
}
