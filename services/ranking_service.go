package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kipr/colosseum-sub001/brackets"
	"github.com/kipr/colosseum-sub001/models"
	"github.com/kipr/colosseum-sub001/rankings"
	"github.com/kipr/colosseum-sub001/repositories"
)

type UpsertScoreInput struct {
	TeamID      int      `json:"team_id"`
	RoundNumber int      `json:"round_number"`
	Score       *float64 `json:"score"`
}

type RankingService interface {
	UpsertScore(ctx context.Context, input UpsertScoreInput) (*models.SeedingScore, error)
	ListScores(ctx context.Context, eventID int) ([]*models.SeedingScore, error)
	Recalculate(ctx context.Context, eventID int) ([]*models.SeedingRanking, error)
	ListRankings(ctx context.Context, eventID int) ([]*models.SeedingRanking, error)
}

type rankingService struct {
	db          *sql.DB
	eventRepo   repositories.EventRepository
	teamRepo    repositories.TeamRepository
	seedingRepo repositories.SeedingRepository
	hub         *brackets.Hub
	logger      *slog.Logger
}

func NewRankingService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	seedingRepo repositories.SeedingRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) RankingService {
	return &rankingService{
		db:          db,
		eventRepo:   eventRepo,
		teamRepo:    teamRepo,
		seedingRepo: seedingRepo,
		hub:         hub,
		logger:      logger,
	}
}

func (s *rankingService) UpsertScore(ctx context.Context, input UpsertScoreInput) (*models.SeedingScore, error) {
	team, err := s.teamRepo.GetByID(ctx, s.db, input.TeamID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	event, err := s.eventRepo.GetByID(ctx, s.db, team.EventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if input.RoundNumber < 1 || input.RoundNumber > event.SeedingRounds {
		return nil, fmt.Errorf("%w: round %d of %d", ErrInvalidSeedingRound, input.RoundNumber, event.SeedingRounds)
	}

	score := &models.SeedingScore{
		TeamID:      input.TeamID,
		RoundNumber: input.RoundNumber,
		Score:       input.Score,
	}
	if err := s.seedingRepo.UpsertScore(ctx, s.db, score); err != nil {
		return nil, mapRepoError(err)
	}
	return score, nil
}

func (s *rankingService) ListScores(ctx context.Context, eventID int) ([]*models.SeedingScore, error) {
	scores, err := s.seedingRepo.ListScoresByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return scores, nil
}

// Recalculate rebuilds the event's ranking set from scratch. A single score
// edit can move every team, so the stored set is fully replaced rather than
// merged; running it twice with unchanged scores is a no-op.
func (s *rankingService) Recalculate(ctx context.Context, eventID int) ([]*models.SeedingRanking, error) {
	if _, err := s.eventRepo.GetByID(ctx, s.db, eventID); err != nil {
		return nil, mapRepoError(err)
	}

	teams, err := s.teamRepo.ListByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
	}
	scores, err := s.seedingRepo.ListScoresByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeding scores for event %d: %w", eventID, err)
	}

	scoresByTeam := make(map[int][]float64, len(teams))
	for _, sc := range scores {
		if sc.Score != nil {
			scoresByTeam[sc.TeamID] = append(scoresByTeam[sc.TeamID], *sc.Score)
		}
	}

	input := make([]rankings.TeamScores, 0, len(teams))
	for _, t := range teams {
		input = append(input, rankings.TeamScores{
			TeamID:     t.ID,
			TeamNumber: t.TeamNumber,
			Scores:     scoresByTeam[t.ID],
		})
	}

	computed := rankings.Calculate(input)

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.seedingRepo.ReplaceRankings(ctx, tx, eventID, computed)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace rankings for event %d: %w", eventID, err)
	}

	result, err := s.seedingRepo.ListRankingsByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(eventRoom(eventID), brackets.MsgRankingsUpdated, result)
	}
	return result, nil
}

func (s *rankingService) ListRankings(ctx context.Context, eventID int) ([]*models.SeedingRanking, error) {
	result, err := s.seedingRepo.ListRankingsByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return result, nil
}
