package models

import "time"

// QueueStatus mirrors the ENUM in the match_queue table.
type QueueStatus string

const (
	QueueStatusQueued     QueueStatus = "queued"
	QueueStatusCalled     QueueStatus = "called"
	QueueStatusInProgress QueueStatus = "in_progress"
	QueueStatusCompleted  QueueStatus = "completed"
	QueueStatusSkipped    QueueStatus = "skipped"
)

type QueueType string

const (
	QueueTypeSeeding QueueType = "seeding"
	QueueTypeBracket QueueType = "bracket"
)

// QueueItem is one call-up slot. Exactly one of the two reference shapes is
// set: (SeedingTeamID, SeedingRound) for queue_type seeding, BracketGameID
// for queue_type bracket. QueuePosition values are a dense 1..N permutation
// per event after every mutation.
type QueueItem struct {
	ID            int         `json:"id" db:"id"`
	EventID       int         `json:"event_id" db:"event_id"`
	QueueType     QueueType   `json:"queue_type" db:"queue_type"`
	SeedingTeamID *int        `json:"seeding_team_id,omitempty" db:"seeding_team_id"`
	SeedingRound  *int        `json:"seeding_round,omitempty" db:"seeding_round"`
	BracketGameID *int        `json:"bracket_game_id,omitempty" db:"bracket_game_id"`
	QueuePosition int         `json:"queue_position" db:"queue_position"`
	Status        QueueStatus `json:"status" db:"status"`
	TableNumber   *string     `json:"table_number,omitempty" db:"table_number"`
	CalledAt      *time.Time  `json:"called_at,omitempty" db:"called_at"`
}
