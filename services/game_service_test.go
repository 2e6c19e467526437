package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipr/colosseum-sub001/models"
	"github.com/kipr/colosseum-sub001/repositories"
)

var gameRowColumns = []string{
	"id", "bracket_id", "game_number", "round_number", "round_name", "bracket_side",
	"team1_id", "team2_id", "team1_source", "team2_source",
	"status", "winner_id", "loser_id",
	"winner_advances_to_id", "loser_advances_to_id", "winner_to_slot", "loser_to_slot",
	"team1_score", "team2_score", "created_at", "completed_at",
}

// TestSubmitResultSerializesOnBracketRow pins the transaction shape of a
// score submission: the bracket row is locked before the game set is read,
// so two submissions feeding the same downstream game cannot each persist a
// cascade computed from a pre-cascade snapshot (one overwriting the other's
// advancement).
func TestSubmitResultSerializesOnBracketRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()

	// Unlocked game read, just to find the bracket.
	mock.ExpectQuery(`FROM bracket_games WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(gameRowColumns).AddRow(
			1, 7, 1, 1, "Semifinal", "winners",
			10, 40, "seed-1", "seed-2",
			"ready", nil, nil,
			3, nil, 1, nil,
			nil, nil, created, nil,
		))

	// The bracket row lock that serializes the cascade.
	mock.ExpectQuery(`(?s)FROM brackets.*FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_id", "name", "elimination_type", "bracket_size",
			"actual_team_count", "status", "created_at",
		}).AddRow(7, 1, "Main", "single", 4, 4, "in_progress", created))

	// The game set, read under the lock.
	mock.ExpectQuery(`FROM bracket_games WHERE bracket_id = \$1 ORDER BY game_number`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(gameRowColumns).
			AddRow(
				1, 7, 1, 1, "Semifinal", "winners",
				10, 40, "seed-1", "seed-2",
				"ready", nil, nil,
				3, nil, 1, nil,
				nil, nil, created, nil,
			).
			AddRow(
				2, 7, 2, 1, "Semifinal", "winners",
				20, 30, "seed-3", "seed-4",
				"ready", nil, nil,
				3, nil, 2, nil,
				nil, nil, created, nil,
			).
			AddRow(
				3, 7, 3, 2, "Final", "winners",
				nil, nil, "winner-of-W1-1", "winner-of-W1-2",
				"pending", nil, nil,
				nil, nil, nil, nil,
				nil, nil, created, nil,
			))

	// The cascade persists the submitted game and the final it feeds.
	mock.ExpectExec(`UPDATE bracket_games`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bracket_games`).WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	svc := NewGameService(
		db,
		repositories.NewPostgresBracketRepository(),
		repositories.NewPostgresGameRepository(),
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	updated, err := svc.SubmitResult(context.Background(), 1, SubmitResultInput{WinnerTeamID: 10})
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusCompleted, updated.Status)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, 10, *updated.WinnerID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
