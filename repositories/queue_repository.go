package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kipr/colosseum-sub001/models"
)

var ErrQueueItemNotFound = errors.New("queue item not found")

type QueueRepository interface {
	Create(ctx context.Context, q SQLExecutor, item *models.QueueItem) error
	GetByID(ctx context.Context, q SQLExecutor, id int) (*models.QueueItem, error)
	ListByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.QueueItem, error)
	UpdatePosition(ctx context.Context, q SQLExecutor, id, position int) error
	Update(ctx context.Context, q SQLExecutor, item *models.QueueItem) error
	MaxPosition(ctx context.Context, q SQLExecutor, eventID int) (int, error)
	DeleteByEvent(ctx context.Context, q SQLExecutor, eventID int) error
}

type postgresQueueRepository struct{}

func NewPostgresQueueRepository() QueueRepository {
	return &postgresQueueRepository{}
}

const queueColumns = `
	id, event_id, queue_type, seeding_team_id, seeding_round, bracket_game_id,
	queue_position, status, table_number, called_at`

func (r *postgresQueueRepository) Create(ctx context.Context, q SQLExecutor, item *models.QueueItem) error {
	query := `
		INSERT INTO match_queue
			(event_id, queue_type, seeding_team_id, seeding_round, bracket_game_id,
			 queue_position, status, table_number, called_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	return q.QueryRowContext(ctx, query,
		item.EventID,
		item.QueueType,
		item.SeedingTeamID,
		item.SeedingRound,
		item.BracketGameID,
		item.QueuePosition,
		item.Status,
		item.TableNumber,
		item.CalledAt,
	).Scan(&item.ID)
}

func (r *postgresQueueRepository) GetByID(ctx context.Context, q SQLExecutor, id int) (*models.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM match_queue WHERE id = $1`

	item := &models.QueueItem{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.EventID,
		&item.QueueType,
		&item.SeedingTeamID,
		&item.SeedingRound,
		&item.BracketGameID,
		&item.QueuePosition,
		&item.Status,
		&item.TableNumber,
		&item.CalledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQueueItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *postgresQueueRepository) ListByEvent(ctx context.Context, q SQLExecutor, eventID int) ([]*models.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM match_queue WHERE event_id = $1 ORDER BY queue_position ASC`

	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.QueueItem, 0)
	for rows.Next() {
		var item models.QueueItem
		err := rows.Scan(
			&item.ID,
			&item.EventID,
			&item.QueueType,
			&item.SeedingTeamID,
			&item.SeedingRound,
			&item.BracketGameID,
			&item.QueuePosition,
			&item.Status,
			&item.TableNumber,
			&item.CalledAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *postgresQueueRepository) UpdatePosition(ctx context.Context, q SQLExecutor, id, position int) error {
	result, err := q.ExecContext(ctx, `UPDATE match_queue SET queue_position = $1 WHERE id = $2`, position, id)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrQueueItemNotFound
	}
	return nil
}

func (r *postgresQueueRepository) Update(ctx context.Context, q SQLExecutor, item *models.QueueItem) error {
	query := `
		UPDATE match_queue
		SET queue_position = $1, status = $2, table_number = $3, called_at = $4
		WHERE id = $5`

	result, err := q.ExecContext(ctx, query,
		item.QueuePosition,
		item.Status,
		item.TableNumber,
		item.CalledAt,
		item.ID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrQueueItemNotFound
	}
	return nil
}

func (r *postgresQueueRepository) MaxPosition(ctx context.Context, q SQLExecutor, eventID int) (int, error) {
	var max int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(queue_position), 0) FROM match_queue WHERE event_id = $1`,
		eventID,
	).Scan(&max)
	return max, err
}

func (r *postgresQueueRepository) DeleteByEvent(ctx context.Context, q SQLExecutor, eventID int) error {
	_, err := q.ExecContext(ctx, `DELETE FROM match_queue WHERE event_id = $1`, eventID)
	return err
}
