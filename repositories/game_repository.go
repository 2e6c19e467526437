package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kipr/colosseum-sub001/models"
)

var ErrGameNotFound = errors.New("bracket game not found")

const gameColumns = `
	id, bracket_id, game_number, round_number, round_name, bracket_side,
	team1_id, team2_id, team1_source, team2_source,
	status, winner_id, loser_id,
	winner_advances_to_id, loser_advances_to_id, winner_to_slot, loser_to_slot,
	team1_score, team2_score, created_at, completed_at`

type GameRepository interface {
	Create(ctx context.Context, q SQLExecutor, game *models.BracketGame) error
	GetByID(ctx context.Context, q SQLExecutor, id int) (*models.BracketGame, error)
	GetByIDForUpdate(ctx context.Context, q SQLExecutor, id int) (*models.BracketGame, error)
	ListByBracket(ctx context.Context, q SQLExecutor, bracketID int) ([]*models.BracketGame, error)
	UpdateAdvancement(ctx context.Context, q SQLExecutor, id int, adv models.BracketGame) error
	UpdateState(ctx context.Context, q SQLExecutor, game *models.BracketGame) error
	DeleteByBracket(ctx context.Context, q SQLExecutor, bracketID int) error
}

type postgresGameRepository struct{}

func NewPostgresGameRepository() GameRepository {
	return &postgresGameRepository{}
}

func (r *postgresGameRepository) Create(ctx context.Context, q SQLExecutor, game *models.BracketGame) error {
	query := `
		INSERT INTO bracket_games
			(bracket_id, game_number, round_number, round_name, bracket_side,
			 team1_id, team2_id, team1_source, team2_source, status, winner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	return q.QueryRowContext(ctx, query,
		game.BracketID,
		game.GameNumber,
		game.RoundNumber,
		game.RoundName,
		game.BracketSide,
		game.Team1ID,
		game.Team2ID,
		game.Team1Source,
		game.Team2Source,
		game.Status,
		game.WinnerID,
	).Scan(&game.ID, &game.CreatedAt)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, q SQLExecutor, id int) (*models.BracketGame, error) {
	return r.getByID(ctx, q, id, false)
}

// GetByIDForUpdate locks the game row for the duration of the enclosing
// transaction, serializing concurrent submissions for the same game.
func (r *postgresGameRepository) GetByIDForUpdate(ctx context.Context, q SQLExecutor, id int) (*models.BracketGame, error) {
	return r.getByID(ctx, q, id, true)
}

func (r *postgresGameRepository) getByID(ctx context.Context, q SQLExecutor, id int, forUpdate bool) (*models.BracketGame, error) {
	query := `SELECT ` + gameColumns + ` FROM bracket_games WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	game := &models.BracketGame{}
	err := scanGame(q.QueryRowContext(ctx, query, id), game)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}

func (r *postgresGameRepository) ListByBracket(ctx context.Context, q SQLExecutor, bracketID int) ([]*models.BracketGame, error) {
	query := `SELECT ` + gameColumns + ` FROM bracket_games WHERE bracket_id = $1 ORDER BY game_number ASC`

	rows, err := q.QueryContext(ctx, query, bracketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.BracketGame, 0)
	for rows.Next() {
		var game models.BracketGame
		if err := scanGame(rows, &game); err != nil {
			return nil, err
		}
		games = append(games, &game)
	}
	return games, rows.Err()
}

// UpdateAdvancement wires one game's outgoing edges; run as the second pass
// of generation once every row has its id.
func (r *postgresGameRepository) UpdateAdvancement(ctx context.Context, q SQLExecutor, id int, adv models.BracketGame) error {
	query := `
		UPDATE bracket_games
		SET winner_advances_to_id = $1, loser_advances_to_id = $2,
		    winner_to_slot = $3, loser_to_slot = $4
		WHERE id = $5`

	result, err := q.ExecContext(ctx, query,
		adv.WinnerAdvancesToID,
		adv.LoserAdvancesToID,
		adv.WinnerToSlot,
		adv.LoserToSlot,
		id,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGameNotFound
	}
	return nil
}

// UpdateState persists every field the advancement engine may mutate.
func (r *postgresGameRepository) UpdateState(ctx context.Context, q SQLExecutor, game *models.BracketGame) error {
	query := `
		UPDATE bracket_games
		SET team1_id = $1, team2_id = $2, team1_source = $3, team2_source = $4,
		    status = $5, winner_id = $6, loser_id = $7,
		    team1_score = $8, team2_score = $9, completed_at = $10
		WHERE id = $11`

	result, err := q.ExecContext(ctx, query,
		game.Team1ID,
		game.Team2ID,
		game.Team1Source,
		game.Team2Source,
		game.Status,
		game.WinnerID,
		game.LoserID,
		game.Team1Score,
		game.Team2Score,
		game.CompletedAt,
		game.ID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGameNotFound
	}
	return nil
}

func (r *postgresGameRepository) DeleteByBracket(ctx context.Context, q SQLExecutor, bracketID int) error {
	_, err := q.ExecContext(ctx, `DELETE FROM bracket_games WHERE bracket_id = $1`, bracketID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner, game *models.BracketGame) error {
	return row.Scan(
		&game.ID,
		&game.BracketID,
		&game.GameNumber,
		&game.RoundNumber,
		&game.RoundName,
		&game.BracketSide,
		&game.Team1ID,
		&game.Team2ID,
		&game.Team1Source,
		&game.Team2Source,
		&game.Status,
		&game.WinnerID,
		&game.LoserID,
		&game.WinnerAdvancesToID,
		&game.LoserAdvancesToID,
		&game.WinnerToSlot,
		&game.LoserToSlot,
		&game.Team1Score,
		&game.Team2Score,
		&game.CreatedAt,
		&game.CompletedAt,
	)
}
