package models

// SeedingScore is one team's score for one preliminary round.
// Score is nullable: a row may exist before the round is played.
type SeedingScore struct {
	ID          int      `json:"id" db:"id"`
	TeamID      int      `json:"team_id" db:"team_id"`
	RoundNumber int      `json:"round_number" db:"round_number"`
	Score       *float64 `json:"score" db:"score"`
}

// SeedingRanking is derived data, fully replaced on every recalculation.
type SeedingRanking struct {
	TeamID          int     `json:"team_id" db:"team_id"`
	SeedAverage     float64 `json:"seed_average" db:"seed_average"`
	RawSeedScore    float64 `json:"raw_seed_score" db:"raw_seed_score"`
	SeedRank        int     `json:"seed_rank" db:"seed_rank"`
	TiebreakerValue float64 `json:"tiebreaker_value" db:"tiebreaker_value"`

	Team *Team `json:"team,omitempty" db:"-"`
}
