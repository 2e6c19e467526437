package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kipr/colosseum-sub001/brackets"
	"github.com/kipr/colosseum-sub001/models"
	"github.com/kipr/colosseum-sub001/repositories"
)

type PopulateResult struct {
	Created int `json:"created"`
}

type ReorderItem struct {
	ID            int `json:"id"`
	QueuePosition int `json:"queue_position"`
}

type AddQueueItemInput struct {
	EventID       int              `json:"event_id"`
	QueueType     models.QueueType `json:"queue_type"`
	SeedingTeamID *int             `json:"seeding_team_id"`
	SeedingRound  *int             `json:"seeding_round"`
	BracketGameID *int             `json:"bracket_game_id"`
}

type QueueService interface {
	ListByEvent(ctx context.Context, eventID int) ([]*models.QueueItem, error)
	PopulateFromBracket(ctx context.Context, eventID, bracketID int) (*PopulateResult, error)
	PopulateFromSeeding(ctx context.Context, eventID int) (*PopulateResult, error)
	Add(ctx context.Context, input AddQueueItemInput) (*models.QueueItem, error)
	Reorder(ctx context.Context, eventID int, items []ReorderItem) ([]*models.QueueItem, error)
	Call(ctx context.Context, id int, tableNumber *string) (*models.QueueItem, error)
	Uncall(ctx context.Context, id int) (*models.QueueItem, error)
	Skip(ctx context.Context, id int) (*models.QueueItem, error)
	Complete(ctx context.Context, id int) (*models.QueueItem, error)
}

type queueService struct {
	db          *sql.DB
	eventRepo   repositories.EventRepository
	teamRepo    repositories.TeamRepository
	seedingRepo repositories.SeedingRepository
	bracketRepo repositories.BracketRepository
	gameRepo    repositories.GameRepository
	queueRepo   repositories.QueueRepository
	hub         *brackets.Hub
	logger      *slog.Logger
}

func NewQueueService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	seedingRepo repositories.SeedingRepository,
	bracketRepo repositories.BracketRepository,
	gameRepo repositories.GameRepository,
	queueRepo repositories.QueueRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) QueueService {
	return &queueService{
		db:          db,
		eventRepo:   eventRepo,
		teamRepo:    teamRepo,
		seedingRepo: seedingRepo,
		bracketRepo: bracketRepo,
		gameRepo:    gameRepo,
		queueRepo:   queueRepo,
		hub:         hub,
		logger:      logger,
	}
}

func (s *queueService) ListByEvent(ctx context.Context, eventID int) ([]*models.QueueItem, error) {
	items, err := s.queueRepo.ListByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return items, nil
}

// PopulateFromBracket replaces the event's queue with every ready game of the
// bracket in game-number order.
func (s *queueService) PopulateFromBracket(ctx context.Context, eventID, bracketID int) (*PopulateResult, error) {
	bracket, err := s.bracketRepo.GetByID(ctx, s.db, bracketID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if bracket.EventID != eventID {
		return nil, fmt.Errorf("%w: bracket %d does not belong to event %d", ErrValidationFailed, bracketID, eventID)
	}

	games, err := s.gameRepo.ListByBracket(ctx, s.db, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for bracket %d: %w", bracketID, err)
	}

	var created int
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.queueRepo.DeleteByEvent(ctx, tx, eventID); err != nil {
			return fmt.Errorf("failed to clear queue for event %d: %w", eventID, err)
		}
		position := 0
		for _, game := range games {
			if game.Status != models.GameStatusReady {
				continue
			}
			position++
			gameID := game.ID
			item := &models.QueueItem{
				EventID:       eventID,
				QueueType:     models.QueueTypeBracket,
				BracketGameID: &gameID,
				QueuePosition: position,
				Status:        models.QueueStatusQueued,
			}
			if err := s.queueRepo.Create(ctx, tx, item); err != nil {
				return fmt.Errorf("failed to enqueue game %d: %w", gameID, err)
			}
		}
		created = position
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, eventID)
	return &PopulateResult{Created: created}, nil
}

// PopulateFromSeeding replaces the event's queue with every (team, round)
// pair still lacking a recorded score, teams in number order, rounds inside.
func (s *queueService) PopulateFromSeeding(ctx context.Context, eventID int) (*PopulateResult, error) {
	event, err := s.eventRepo.GetByID(ctx, s.db, eventID)
	if err != nil {
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

	pairs := pendingSeedingPairs(teams, scores, event.SeedingRounds)

	var created int
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.queueRepo.DeleteByEvent(ctx, tx, eventID); err != nil {
			return fmt.Errorf("failed to clear queue for event %d: %w", eventID, err)
		}
		for i, pair := range pairs {
			teamID := pair.teamID
			roundNumber := pair.round
			item := &models.QueueItem{
				EventID:       eventID,
				QueueType:     models.QueueTypeSeeding,
				SeedingTeamID: &teamID,
				SeedingRound:  &roundNumber,
				QueuePosition: i + 1,
				Status:        models.QueueStatusQueued,
			}
			if err := s.queueRepo.Create(ctx, tx, item); err != nil {
				return fmt.Errorf("failed to enqueue team %d round %d: %w", teamID, roundNumber, err)
			}
		}
		created = len(pairs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, eventID)
	return &PopulateResult{Created: created}, nil
}

// Add appends one item at the end of the event's queue.
func (s *queueService) Add(ctx context.Context, input AddQueueItemInput) (*models.QueueItem, error) {
	switch input.QueueType {
	case models.QueueTypeSeeding:
		if input.SeedingTeamID == nil || input.SeedingRound == nil || input.BracketGameID != nil {
			return nil, fmt.Errorf("%w: seeding item needs seeding_team_id and seeding_round", ErrValidationFailed)
		}
	case models.QueueTypeBracket:
		if input.BracketGameID == nil || input.SeedingTeamID != nil || input.SeedingRound != nil {
			return nil, fmt.Errorf("%w: bracket item needs bracket_game_id", ErrValidationFailed)
		}
	default:
		return nil, fmt.Errorf("%w: unknown queue_type %q", ErrValidationFailed, input.QueueType)
	}
	if _, err := s.eventRepo.GetByID(ctx, s.db, input.EventID); err != nil {
		return nil, mapRepoError(err)
	}

	item := &models.QueueItem{
		EventID:       input.EventID,
		QueueType:     input.QueueType,
		SeedingTeamID: input.SeedingTeamID,
		SeedingRound:  input.SeedingRound,
		BracketGameID: input.BracketGameID,
		Status:        models.QueueStatusQueued,
	}
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		max, err := s.queueRepo.MaxPosition(ctx, tx, input.EventID)
		if err != nil {
			return fmt.Errorf("failed to read queue tail for event %d: %w", input.EventID, err)
		}
		item.QueuePosition = max + 1
		return s.queueRepo.Create(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, input.EventID)
	return item, nil
}

// Reorder applies the requested positions and renumbers the whole queue
// densely, so positions stay a permutation of 1..N whatever the caller sent.
func (s *queueService) Reorder(ctx context.Context, eventID int, items []ReorderItem) ([]*models.QueueItem, error) {
	requested := make(map[int]int, len(items))
	for _, it := range items {
		if _, dup := requested[it.ID]; dup {
			return nil, fmt.Errorf("%w: queue item %d listed twice", ErrValidationFailed, it.ID)
		}
		requested[it.ID] = it.QueuePosition
	}

	var result []*models.QueueItem
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := s.queueRepo.ListByEvent(ctx, tx, eventID)
		if err != nil {
			return fmt.Errorf("failed to list queue for event %d: %w", eventID, err)
		}

		known := make(map[int]bool, len(current))
		for _, item := range current {
			known[item.ID] = true
		}
		for id := range requested {
			if !known[id] {
				return fmt.Errorf("%w: queue item %d does not belong to event %d", ErrValidationFailed, id, eventID)
			}
		}

		moved := renumberQueue(current, requested)
		for _, item := range moved {
			if err := s.queueRepo.UpdatePosition(ctx, tx, item.ID, item.QueuePosition); err != nil {
				return mapRepoError(err)
			}
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].QueuePosition < result[j].QueuePosition })
	s.broadcast(ctx, eventID)
	return result, nil
}

func (s *queueService) Call(ctx context.Context, id int, tableNumber *string) (*models.QueueItem, error) {
	return s.transition(ctx, id, func(item *models.QueueItem) error {
		if item.Status != models.QueueStatusQueued {
			return fmt.Errorf("%w: item %d is %s", ErrQueueItemNotQueued, id, item.Status)
		}
		now := time.Now().UTC()
		item.Status = models.QueueStatusCalled
		item.CalledAt = &now
		item.TableNumber = tableNumber
		return nil
	})
}

func (s *queueService) Uncall(ctx context.Context, id int) (*models.QueueItem, error) {
	return s.transition(ctx, id, func(item *models.QueueItem) error {
		if item.Status != models.QueueStatusCalled {
			return fmt.Errorf("%w: item %d is %s", ErrQueueItemNotCalled, id, item.Status)
		}
		item.Status = models.QueueStatusQueued
		item.CalledAt = nil
		item.TableNumber = nil
		return nil
	})
}

func (s *queueService) Skip(ctx context.Context, id int) (*models.QueueItem, error) {
	return s.transition(ctx, id, func(item *models.QueueItem) error {
		if item.Status != models.QueueStatusQueued && item.Status != models.QueueStatusCalled {
			return fmt.Errorf("%w: item %d is %s", ErrQueueItemNotQueued, id, item.Status)
		}
		item.Status = models.QueueStatusSkipped
		return nil
	})
}

func (s *queueService) Complete(ctx context.Context, id int) (*models.QueueItem, error) {
	return s.transition(ctx, id, func(item *models.QueueItem) error {
		if item.Status != models.QueueStatusCalled && item.Status != models.QueueStatusInProgress {
			return fmt.Errorf("%w: item %d is %s", ErrQueueItemNotCalled, id, item.Status)
		}
		item.Status = models.QueueStatusCompleted
		return nil
	})
}

func (s *queueService) transition(ctx context.Context, id int, apply func(*models.QueueItem) error) (*models.QueueItem, error) {
	var item *models.QueueItem
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		item, err = s.queueRepo.GetByID(ctx, tx, id)
		if err != nil {
			return mapRepoError(err)
		}
		if err := apply(item); err != nil {
			return err
		}
		return s.queueRepo.Update(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, item.EventID)
	return item, nil
}

type seedingPair struct {
	teamID int
	round  int
}

// pendingSeedingPairs lists every (team, round) combination still lacking a
// recorded score, teams in team-number order with rounds ascending inside.
func pendingSeedingPairs(teams []*models.Team, scores []*models.SeedingScore, rounds int) []seedingPair {
	scored := make(map[seedingPair]bool, len(scores))
	for _, sc := range scores {
		if sc.Score != nil {
			scored[seedingPair{sc.TeamID, sc.RoundNumber}] = true
		}
	}

	ordered := make([]*models.Team, len(teams))
	copy(ordered, teams)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].TeamNumber < ordered[j].TeamNumber })

	var pairs []seedingPair
	for _, team := range ordered {
		for round := 1; round <= rounds; round++ {
			if p := (seedingPair{team.ID, round}); !scored[p] {
				pairs = append(pairs, p)
			}
		}
	}
	return pairs
}

// renumberQueue applies the requested positions, sorts, and assigns dense
// 1..N positions in place. It returns the items whose position changed.
func renumberQueue(items []*models.QueueItem, requested map[int]int) []*models.QueueItem {
	sortKey := func(item *models.QueueItem) (int, int) {
		if pos, ok := requested[item.ID]; ok {
			// Requested positions win ties against untouched items.
			return pos, 0
		}
		return item.QueuePosition, 1
	}
	sort.SliceStable(items, func(i, j int) bool {
		pi, ti := sortKey(items[i])
		pj, tj := sortKey(items[j])
		if pi != pj {
			return pi < pj
		}
		return ti < tj
	})

	var moved []*models.QueueItem
	for i, item := range items {
		if item.QueuePosition != i+1 {
			item.QueuePosition = i + 1
			moved = append(moved, item)
		}
	}
	return moved
}

func (s *queueService) broadcast(ctx context.Context, eventID int) {
	if s.hub == nil {
		return
	}
	items, err := s.queueRepo.ListByEvent(ctx, s.db, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load queue for broadcast",
			slog.Int("event_id", eventID), slog.Any("error", err))
		return
	}
	s.hub.BroadcastToRoom(eventRoom(eventID), brackets.MsgQueueUpdated, items)
}
