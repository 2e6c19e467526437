package repositories

import (
	"context"
	"errors"

	"github.com/kipr/colosseum-sub001/models"
)

var ErrSeedingScoreNotFound = errors.New("seeding score not found")

type SeedingRepository interface {
	UpsertScore(ctx context.Context, q SQLExecutor, score *models.SeedingScore) error
	ListScoresByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.SeedingScore, error)
	ReplaceRankings(ctx context.Context, q SQLExecutor, eventID int, rankings []models.SeedingRanking) error
	ListRankingsByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.SeedingRanking, error)
}

type postgresSeedingRepository struct{}

func NewPostgresSeedingRepository() SeedingRepository {
	return &postgresSeedingRepository{}
}

func (r *postgresSeedingRepository) UpsertScore(ctx context.Context, q SQLExecutor, score *models.SeedingScore) error {
	query := `
		INSERT INTO seeding_scores (team_id, round_number, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, round_number)
		DO UPDATE SET score = EXCLUDED.score
		RETURNING id`

	return q.QueryRowContext(ctx, query,
		score.TeamID,
		score.RoundNumber,
		score.Score,
	).Scan(&score.ID)
}

func (r *postgresSeedingRepository) ListScoresByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.SeedingScore, error) {
	query := `
		SELECT s.id, s.team_id, s.round_number, s.score
		FROM seeding_scores s
		JOIN teams t ON t.id = s.team_id
		WHERE t.event_id = $1
		ORDER BY t.team_number ASC, s.round_number ASC`

	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]*models.SeedingScore, 0)
	for rows.Next() {
		var score models.SeedingScore
		if err := rows.Scan(&score.ID, &score.TeamID, &score.RoundNumber, &score.Score); err != nil {
			return nil, err
		}
		scores = append(scores, &score)
	}
	return scores, rows.Err()
}

// ReplaceRankings fully replaces the derived ranking set for one event; a
// single score edit can move every team, so there is no incremental path.
func (r *postgresSeedingRepository) ReplaceRankings(ctx context.Context, q SQLExecutor, eventID int, rankings []models.SeedingRanking) error {
	deleteQuery := `
		DELETE FROM seeding_rankings
		WHERE team_id IN (SELECT id FROM teams WHERE event_id = $1)`
	if _, err := q.ExecContext(ctx, deleteQuery, eventID); err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO seeding_rankings (team_id, seed_average, raw_seed_score, seed_rank, tiebreaker_value)
		VALUES ($1, $2, $3, $4, $5)`
	for _, ranking := range rankings {
		if _, err := q.ExecContext(ctx, insertQuery,
			ranking.TeamID,
			ranking.SeedAverage,
			ranking.RawSeedScore,
			ranking.SeedRank,
			ranking.TiebreakerValue,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresSeedingRepository) ListRankingsByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.SeedingRanking, error) {
	query := `
		SELECT r.team_id, r.seed_average, r.raw_seed_score, r.seed_rank, r.tiebreaker_value,
		       t.id, t.event_id, t.team_number, t.team_name
		FROM seeding_rankings r
		JOIN teams t ON t.id = r.team_id
		WHERE t.event_id = $1
		ORDER BY r.seed_rank ASC`

	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*models.SeedingRanking, 0)
	for rows.Next() {
		var ranking models.SeedingRanking
		var team models.Team
		if err := rows.Scan(
			&ranking.TeamID,
			&ranking.SeedAverage,
			&ranking.RawSeedScore,
			&ranking.SeedRank,
			&ranking.TiebreakerValue,
			&team.ID,
			&team.EventID,
			&team.TeamNumber,
			&team.TeamName,
		); err != nil {
			return nil, err
		}
		ranking.Team = &team
		list = append(list, &ranking)
	}
	return list, rows.Err()
}
