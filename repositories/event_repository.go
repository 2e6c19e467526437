package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kipr/colosseum-sub001/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	Create(ctx context.Context, q SQLExecutor, event *models.Event) error
	GetByID(ctx context.Context, q SQLExecutor, id int) (*models.Event, error)
	List(ctx context.Context, q SQLExecutor) ([]*models.Event, error)
	UpdateStatus(ctx context.Context, q SQLExecutor, id int, status models.EventStatus) error
}

type postgresEventRepository struct{}

func NewPostgresEventRepository() EventRepository {
	return &postgresEventRepository{}
}

func (r *postgresEventRepository) Create(ctx context.Context, q SQLExecutor, event *models.Event) error {
	query := `
		INSERT INTO events (name, seeding_rounds, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return q.QueryRowContext(ctx, query,
		event.Name,
		event.SeedingRounds,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *postgresEventRepository) GetByID(ctx context.Context, q SQLExecutor, id int) (*models.Event, error) {
	query := `
		SELECT id, name, seeding_rounds, status, created_at
		FROM events
		WHERE id = $1`

	event := &models.Event{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.SeedingRounds,
		&event.Status,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *postgresEventRepository) List(ctx context.Context, q SQLExecutor) ([]*models.Event, error) {
	query := `
		SELECT id, name, seeding_rounds, status, created_at
		FROM events
		ORDER BY created_at DESC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Name, &event.SeedingRounds, &event.Status, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, q SQLExecutor, id int, status models.EventStatus) error {
	result, err := q.ExecContext(ctx, `UPDATE events SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}
