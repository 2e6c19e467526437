package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kipr/colosseum-sub001/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNumberConflict = errors.New("team number already used in this event")
	ErrTeamEventInvalid   = errors.New("team references an unknown event")
)

type TeamRepository interface {
	Create(ctx context.Context, q SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, q SQLExecutor, id int) (*models.Team, error)
	ListByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.Team, error)
	UpdateName(ctx context.Context, q SQLExecutor, id int, teamName string) error
	UpdateLogoKey(ctx context.Context, q SQLExecutor, id int, logoKey *string) error
}

type postgresTeamRepository struct{}

func NewPostgresTeamRepository() TeamRepository {
	return &postgresTeamRepository{}
}

func (r *postgresTeamRepository) Create(ctx context.Context, q SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (event_id, team_number, team_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := q.QueryRowContext(ctx, query,
		team.EventID,
		team.TeamNumber,
		team.TeamName,
	).Scan(&team.ID, &team.CreatedAt)

	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, q SQLExecutor, id int) (*models.Team, error) {
	query := `
		SELECT id, event_id, team_number, team_name, logo_key, created_at
		FROM teams
		WHERE id = $1`

	team := &models.Team{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.EventID,
		&team.TeamNumber,
		&team.TeamName,
		&team.LogoKey,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.Team, error) {
	query := `
		SELECT id, event_id, team_number, team_name, logo_key, created_at
		FROM teams
		WHERE event_id = $1
		ORDER BY team_number ASC`

	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.EventID, &team.TeamNumber, &team.TeamName, &team.LogoKey, &team.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, &team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateName(ctx context.Context, q SQLExecutor, id int, teamName string) error {
	result, err := q.ExecContext(ctx, `UPDATE teams SET team_name = $1 WHERE id = $2`, teamName, id)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, q SQLExecutor, id int, logoKey *string) error {
	result, err := q.ExecContext(ctx, `UPDATE teams SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "teams_event_id_team_number_key" {
				return ErrTeamNumberConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "teams_event_id_fkey" {
				return ErrTeamEventInvalid
			}
		}
	}
	return err
}
