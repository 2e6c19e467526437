package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kipr/colosseum-sub001/models"
	"github.com/lib/pq"
)

var (
	ErrBracketNotFound      = errors.New("bracket not found")
	ErrBracketNameConflict  = errors.New("bracket name already exists in this event")
	ErrBracketEventInvalid  = errors.New("bracket references an unknown event")
	ErrBracketEntryNotFound = errors.New("bracket entry not found")
)

// TeamBracketConflict reports one team that already holds an entry in
// another bracket, in the structured shape the create-bracket caller needs.
type TeamBracketConflict struct {
	TeamName    string `json:"team_name"`
	BracketName string `json:"bracket_name"`
}

type BracketRepository interface {
	Create(ctx context.Context, q SQLExecutor, bracket *models.Bracket) error
	GetByID(ctx context.Context, q SQLExecutor, id int) (*models.Bracket, error)
	GetByIDForUpdate(ctx context.Context, q SQLExecutor, id int) (*models.Bracket, error)
	ListByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.Bracket, error)
	UpdateStatus(ctx context.Context, q SQLExecutor, id int, status models.BracketStatus) error
	UpdateSize(ctx context.Context, q SQLExecutor, id int, bracketSize int, actualTeamCount *int) error

	ReplaceEntries(ctx context.Context, q SQLExecutor, bracketID int, entries []models.BracketEntry) error
	ListEntriesByBracket(ctx context.Context, q SQLExecutor, bracketID int) ([]*models.BracketEntry, error)
	ListTeamConflicts(ctx context.Context, q SQLExecutor, eventID, excludeBracketID int, teamIDs []int) ([]TeamBracketConflict, error)
}

type postgresBracketRepository struct{}

func NewPostgresBracketRepository() BracketRepository {
	return &postgresBracketRepository{}
}

func (r *postgresBracketRepository) Create(ctx context.Context, q SQLExecutor, bracket *models.Bracket) error {
	query := `
		INSERT INTO brackets (event_id, name, elimination_type, bracket_size, actual_team_count, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := q.QueryRowContext(ctx, query,
		bracket.EventID,
		bracket.Name,
		bracket.EliminationType,
		bracket.BracketSize,
		bracket.ActualTeamCount,
		bracket.Status,
	).Scan(&bracket.ID, &bracket.CreatedAt)

	return r.handleBracketError(err)
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, q SQLExecutor, id int) (*models.Bracket, error) {
	return r.getByID(ctx, q, id, false)
}

// GetByIDForUpdate locks the bracket row for the duration of the enclosing
// transaction. Advancement cascades rewrite downstream game rows from a full
// read of the bracket's game set, so cascades for one bracket must not
// interleave.
func (r *postgresBracketRepository) GetByIDForUpdate(ctx context.Context, q SQLExecutor, id int) (*models.Bracket, error) {
	return r.getByID(ctx, q, id, true)
}

func (r *postgresBracketRepository) getByID(ctx context.Context, q SQLExecutor, id int, forUpdate bool) (*models.Bracket, error) {
	query := `
		SELECT id, event_id, name, elimination_type, bracket_size, actual_team_count, status, created_at
		FROM brackets
		WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	bracket := &models.Bracket{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&bracket.ID,
		&bracket.EventID,
		&bracket.Name,
		&bracket.EliminationType,
		&bracket.BracketSize,
		&bracket.ActualTeamCount,
		&bracket.Status,
		&bracket.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, err
	}
	return bracket, nil
}

func (r *postgresBracketRepository) ListByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.Bracket, error) {
	query := `
		SELECT id, event_id, name, elimination_type, bracket_size, actual_team_count, status, created_at
		FROM brackets
		WHERE event_id = $1
		ORDER BY created_at ASC`

	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	brackets := make([]*models.Bracket, 0)
	for rows.Next() {
		var bracket models.Bracket
		if err := rows.Scan(
			&bracket.ID,
			&bracket.EventID,
			&bracket.Name,
			&bracket.EliminationType,
			&bracket.BracketSize,
			&bracket.ActualTeamCount,
			&bracket.Status,
			&bracket.CreatedAt,
		); err != nil {
			return nil, err
		}
		brackets = append(brackets, &bracket)
	}
	return brackets, rows.Err()
}

func (r *postgresBracketRepository) UpdateStatus(ctx context.Context, q SQLExecutor, id int, status models.BracketStatus) error {
	result, err := q.ExecContext(ctx, `UPDATE brackets SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBracketNotFound
	}
	return nil
}

func (r *postgresBracketRepository) UpdateSize(ctx context.Context, q SQLExecutor, id int, bracketSize int, actualTeamCount *int) error {
	result, err := q.ExecContext(ctx,
		`UPDATE brackets SET bracket_size = $1, actual_team_count = $2 WHERE id = $3`,
		bracketSize, actualTeamCount, id)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBracketNotFound
	}
	return nil
}

// ReplaceEntries swaps the full entry set of a bracket. Entries are
// load-bearing for the game graph, so partial updates are never allowed.
func (r *postgresBracketRepository) ReplaceEntries(ctx context.Context, q SQLExecutor, bracketID int, entries []models.BracketEntry) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM bracket_entries WHERE bracket_id = $1`, bracketID); err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO bracket_entries (bracket_id, seed_position, team_id, is_bye)
		VALUES ($1, $2, $3, $4)`
	for _, entry := range entries {
		if _, err := q.ExecContext(ctx, insertQuery, bracketID, entry.SeedPosition, entry.TeamID, entry.IsBye); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresBracketRepository) ListEntriesByBracket(ctx context.Context, q SQLExecutor, bracketID int) ([]*models.BracketEntry, error) {
	query := `
		SELECT e.id, e.bracket_id, e.seed_position, e.team_id, e.is_bye,
		       t.id, t.event_id, t.team_number, t.team_name
		FROM bracket_entries e
		LEFT JOIN teams t ON t.id = e.team_id
		WHERE e.bracket_id = $1
		ORDER BY e.seed_position ASC`

	rows, err := q.QueryContext(ctx, query, bracketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.BracketEntry, 0)
	for rows.Next() {
		var entry models.BracketEntry
		var teamID, teamEventID, teamNumber sql.NullInt64
		var teamName sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.BracketID,
			&entry.SeedPosition,
			&entry.TeamID,
			&entry.IsBye,
			&teamID,
			&teamEventID,
			&teamNumber,
			&teamName,
		); err != nil {
			return nil, err
		}
		if teamID.Valid {
			entry.Team = &models.Team{
				ID:         int(teamID.Int64),
				EventID:    int(teamEventID.Int64),
				TeamNumber: int(teamNumber.Int64),
				TeamName:   teamName.String,
			}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// ListTeamConflicts returns, for each requested team already holding a
// non-bye entry in another non-completed bracket of the event, the team and
// bracket names the caller needs to render the overlap.
func (r *postgresBracketRepository) ListTeamConflicts(ctx context.Context, q SQLExecutor, eventID, excludeBracketID int, teamIDs []int) ([]TeamBracketConflict, error) {
	query := `
		SELECT t.team_name, b.name
		FROM bracket_entries e
		JOIN brackets b ON b.id = e.bracket_id
		JOIN teams t ON t.id = e.team_id
		WHERE b.event_id = $1
		  AND b.id <> $2
		  AND b.status <> 'completed'
		  AND e.team_id = ANY($3)
		ORDER BY t.team_number ASC`

	rows, err := q.QueryContext(ctx, query, eventID, excludeBracketID, pq.Array(teamIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts := make([]TeamBracketConflict, 0)
	for rows.Next() {
		var c TeamBracketConflict
		if err := rows.Scan(&c.TeamName, &c.BracketName); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func (r *postgresBracketRepository) handleBracketError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "brackets_event_id_name_key" {
				return ErrBracketNameConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "brackets_event_id_fkey" {
				return ErrBracketEventInvalid
			}
		}
	}
	return err
}
