package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kipr/colosseum-sub001/brackets"
	"github.com/kipr/colosseum-sub001/models"
	"github.com/kipr/colosseum-sub001/repositories"
)

type SubmitResultInput struct {
	WinnerTeamID int  `json:"winner_team_id"`
	Team1Score   *int `json:"team1_score"`
	Team2Score   *int `json:"team2_score"`
}

type GameService interface {
	SubmitResult(ctx context.Context, gameID int, input SubmitResultInput) (*models.BracketGame, error)
	StartGame(ctx context.Context, gameID int) (*models.BracketGame, error)
	GetByID(ctx context.Context, gameID int) (*models.BracketGame, error)
}

type gameService struct {
	db          *sql.DB
	bracketRepo repositories.BracketRepository
	gameRepo    repositories.GameRepository
	hub         *brackets.Hub
	logger      *slog.Logger
}

func NewGameService(
	db *sql.DB,
	bracketRepo repositories.BracketRepository,
	gameRepo repositories.GameRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) GameService {
	return &gameService{
		db:          db,
		bracketRepo: bracketRepo,
		gameRepo:    gameRepo,
		hub:         hub,
		logger:      logger,
	}
}

// SubmitResult records a winner for one game and advances the graph inside a
// single transaction. The bracket row lock serializes every cascade for the
// bracket: two submissions feeding the same downstream game would otherwise
// each rewrite it from their own pre-cascade read, losing one advancement.
// The second caller re-reads the game set under the lock and observes the
// first's completed state, going down the correction path or conflicting.
func (s *gameService) SubmitResult(ctx context.Context, gameID int, input SubmitResultInput) (*models.BracketGame, error) {
	if input.WinnerTeamID <= 0 {
		return nil, fmt.Errorf("%w: winner_team_id is required", ErrValidationFailed)
	}

	var (
		updated *models.BracketGame
		bracket *models.Bracket
	)
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		// Unlocked read, only to learn which bracket to serialize on.
		game, err := s.gameRepo.GetByID(ctx, tx, gameID)
		if err != nil {
			return mapRepoError(err)
		}

		bracket, err = s.bracketRepo.GetByIDForUpdate(ctx, tx, game.BracketID)
		if err != nil {
			return mapRepoError(err)
		}
		if bracket.Status != models.BracketStatusInProgress {
			return ErrBracketNotInProgress
		}

		// Read under the bracket lock: this is the state the cascade
		// mutates and persists.
		games, err := s.gameRepo.ListByBracket(ctx, tx, game.BracketID)
		if err != nil {
			return fmt.Errorf("failed to load games for bracket %d: %w", game.BracketID, err)
		}

		engine := brackets.NewEngine(games)
		updated, err = engine.SubmitResult(gameID, input.WinnerTeamID, input.Team1Score, input.Team2Score, time.Now().UTC())
		if err != nil {
			return err
		}

		for _, game := range engine.Changed() {
			if err := s.gameRepo.UpdateState(ctx, tx, game); err != nil {
				return fmt.Errorf("failed to persist game %d: %w", game.ID, err)
			}
		}

		if champion := engine.Champion(); champion != nil {
			if err := s.bracketRepo.UpdateStatus(ctx, tx, bracket.ID, models.BracketStatusCompleted); err != nil {
				return mapRepoError(err)
			}
			bracket.Status = models.BracketStatusCompleted
			s.logger.InfoContext(ctx, "bracket completed",
				slog.Int("bracket_id", bracket.ID),
				slog.Int("champion_team_id", *champion))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(eventRoom(bracket.EventID), brackets.MsgBracketUpdated, updated)
	}
	return updated, nil
}

// StartGame marks a ready game as in progress for a live scoring device.
func (s *gameService) StartGame(ctx context.Context, gameID int) (*models.BracketGame, error) {
	var updated *models.BracketGame
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		locked, err := s.gameRepo.GetByIDForUpdate(ctx, tx, gameID)
		if err != nil {
			return mapRepoError(err)
		}
		if locked.Status != models.GameStatusReady {
			return fmt.Errorf("%w: game %d is %s", brackets.ErrGameNotScoreable, gameID, locked.Status)
		}
		locked.Status = models.GameStatusInProgress
		if err := s.gameRepo.UpdateState(ctx, tx, locked); err != nil {
			return mapRepoError(err)
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *gameService) GetByID(ctx context.Context, gameID int) (*models.BracketGame, error) {
	game, err := s.gameRepo.GetByID(ctx, s.db, gameID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return game, nil
}
