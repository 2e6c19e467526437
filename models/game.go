package models

import "time"

// GameStatus mirrors the ENUM in the bracket_games table.
//
// pending    - at least one team slot unresolved
// ready      - both teams known, no score submitted
// in_progress - a scoring device claimed the game
// completed  - winner decided (terminal)
// bye        - auto-resolved at generation or by a bye cascade (terminal)
type GameStatus string

const (
	GameStatusPending    GameStatus = "pending"
	GameStatusReady      GameStatus = "ready"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
	GameStatusBye        GameStatus = "bye"
)

type BracketSide string

const (
	SideWinners BracketSide = "winners"
	SideLosers  BracketSide = "losers"
	SideFinals  BracketSide = "finals"
)

// BracketGame is one node of the advancement graph. Advancement pointers are
// plain game ids so the in-memory arena maps 1:1 onto the table.
//
// Team1Source/Team2Source describe where a slot's occupant comes from before
// it resolves: "seed-N" for a round-1 slot, "W<game>"/"L<game>" for the
// winner/loser of an earlier game, and "bye" once the slot has resolved to a
// bye (either at generation or through a cascaded double bye).
type BracketGame struct {
	ID          int         `json:"id" db:"id"`
	BracketID   int         `json:"bracket_id" db:"bracket_id"`
	GameNumber  int         `json:"game_number" db:"game_number"`
	RoundNumber int         `json:"round_number" db:"round_number"`
	RoundName   string      `json:"round_name" db:"round_name"`
	BracketSide BracketSide `json:"bracket_side" db:"bracket_side"`

	Team1ID     *int    `json:"team1_id" db:"team1_id"`
	Team2ID     *int    `json:"team2_id" db:"team2_id"`
	Team1Source *string `json:"team1_source,omitempty" db:"team1_source"`
	Team2Source *string `json:"team2_source,omitempty" db:"team2_source"`

	Status   GameStatus `json:"status" db:"status"`
	WinnerID *int       `json:"winner_id,omitempty" db:"winner_id"`
	LoserID  *int       `json:"loser_id,omitempty" db:"loser_id"`

	WinnerAdvancesToID *int `json:"winner_advances_to_id,omitempty" db:"winner_advances_to_id"`
	LoserAdvancesToID  *int `json:"loser_advances_to_id,omitempty" db:"loser_advances_to_id"`
	WinnerToSlot       *int `json:"winner_to_slot,omitempty" db:"winner_to_slot"`
	LoserToSlot        *int `json:"loser_to_slot,omitempty" db:"loser_to_slot"`

	Team1Score *int `json:"team1_score,omitempty" db:"team1_score"`
	Team2Score *int `json:"team2_score,omitempty" db:"team2_score"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// SlotTeam returns the team occupying the given slot (1 or 2), or nil.
func (g *BracketGame) SlotTeam(slot int) *int {
	if slot == 1 {
		return g.Team1ID
	}
	return g.Team2ID
}
