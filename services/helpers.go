package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kipr/colosseum-sub001/models"
	"github.com/kipr/colosseum-sub001/repositories"
	"github.com/kipr/colosseum-sub001/storage"
)

// runInTx wraps fn in a transaction with rollback on error or panic.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapRepoError translates repository sentinels into service sentinels so
// handlers only ever match against the services package.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrBracketNotFound):
		return ErrBracketNotFound
	case errors.Is(err, repositories.ErrGameNotFound):
		return ErrGameNotFound
	case errors.Is(err, repositories.ErrQueueItemNotFound):
		return ErrQueueItemNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrBracketNameConflict):
		return ErrBracketNameConflict
	case errors.Is(err, repositories.ErrTeamNumberConflict):
		return ErrTeamNumberConflict
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrUserEmailConflict
	default:
		return err
	}
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team == nil || team.LogoKey == nil || *team.LogoKey == "" || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(*team.LogoKey); url != "" {
		team.LogoURL = &url
	}
}

func eventRoom(eventID int) string {
	return fmt.Sprintf("event:%d", eventID)
}
