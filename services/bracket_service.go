package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kipr/colosseum-sub001/brackets"
	"github.com/kipr/colosseum-sub001/models"
	"github.com/kipr/colosseum-sub001/repositories"
)

type CreateBracketInput struct {
	EventID         int                    `json:"event_id"`
	Name            string                 `json:"name"`
	EliminationType models.EliminationType `json:"elimination_type"`
	// TeamIDs defaults to every team of the event when empty.
	TeamIDs []int `json:"team_ids"`
	// BracketSize overrides the computed next-power-of-two size.
	BracketSize *int `json:"bracket_size"`
}

type EntriesResult struct {
	EntriesCreated int `json:"entries_created"`
	ByeCount       int `json:"bye_count"`
}

type GamesResult struct {
	GamesCreated int `json:"games_created"`
}

type BracketDetail struct {
	Bracket *models.Bracket        `json:"bracket"`
	Entries []*models.BracketEntry `json:"entries"`
	Games   []*models.BracketGame  `json:"games"`
}

type BracketService interface {
	Create(ctx context.Context, input CreateBracketInput) (*models.Bracket, error)
	GetDetail(ctx context.Context, bracketID int) (*BracketDetail, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Bracket, error)
	GenerateEntries(ctx context.Context, bracketID int, force bool) (*EntriesResult, error)
	GenerateGames(ctx context.Context, bracketID int, force bool) (*GamesResult, error)
}

type bracketService struct {
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

func NewBracketService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	seedingRepo repositories.SeedingRepository,
	bracketRepo repositories.BracketRepository,
	gameRepo repositories.GameRepository,
	queueRepo repositories.QueueRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
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

func (s *bracketService) Create(ctx context.Context, input CreateBracketInput) (*models.Bracket, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrBracketNameRequired
	}
	switch input.EliminationType {
	case models.EliminationSingle, models.EliminationDouble:
	default:
		return nil, fmt.Errorf("%w: unknown elimination_type %q", ErrValidationFailed, input.EliminationType)
	}

	event, err := s.eventRepo.GetByID(ctx, s.db, input.EventID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	teamIDs, err := s.resolveTeamIDs(ctx, event.ID, input.TeamIDs)
	if err != nil {
		return nil, err
	}

	size, err := resolveBracketSize(len(teamIDs), input.BracketSize)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.bracketRepo.ListTeamConflicts(ctx, s.db, event.ID, 0, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check team conflicts: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, &TeamConflictError{Conflicts: conflicts}
	}

	actual := len(teamIDs)
	bracket := &models.Bracket{
		EventID:         event.ID,
		Name:            name,
		EliminationType: input.EliminationType,
		BracketSize:     size,
		ActualTeamCount: &actual,
		Status:          models.BracketStatusSetup,
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.bracketRepo.Create(ctx, tx, bracket); err != nil {
			return mapRepoError(err)
		}
		ordered, err := s.orderTeams(ctx, tx, event.ID, teamIDs)
		if err != nil {
			return err
		}
		entries, err := brackets.BuildEntries(ordered, size)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		return s.bracketRepo.ReplaceEntries(ctx, tx, bracket.ID, entries)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket created",
		slog.Int("bracket_id", bracket.ID),
		slog.Int("event_id", event.ID),
		slog.String("elimination_type", string(input.EliminationType)),
		slog.Int("bracket_size", size),
		slog.Int("team_count", actual))
	return bracket, nil
}

// GenerateEntries rebuilds the seed-slot assignment from the bracket's
// entered teams and the current ranking order. Entries carry the game graph,
// so regeneration also drops any generated games and is force-gated.
func (s *bracketService) GenerateEntries(ctx context.Context, bracketID int, force bool) (*EntriesResult, error) {
	bracket, err := s.bracketRepo.GetByID(ctx, s.db, bracketID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if bracket.Status == models.BracketStatusCompleted {
		return nil, ErrBracketNotInSetup
	}

	existing, err := s.bracketRepo.ListEntriesByBracket(ctx, s.db, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for bracket %d: %w", bracketID, err)
	}
	if len(existing) > 0 && !force {
		return nil, ErrBracketHasEntries
	}

	teamIDs := make([]int, 0, len(existing))
	for _, e := range existing {
		if e.TeamID != nil {
			teamIDs = append(teamIDs, *e.TeamID)
		}
	}
	teamIDs, err = s.resolveTeamIDs(ctx, bracket.EventID, teamIDs)
	if err != nil {
		return nil, err
	}

	size, err := resolveBracketSize(len(teamIDs), &bracket.BracketSize)
	if err != nil {
		return nil, err
	}

	var result EntriesResult
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.gameRepo.DeleteByBracket(ctx, tx, bracketID); err != nil {
			return fmt.Errorf("failed to clear games for bracket %d: %w", bracketID, err)
		}
		if err := s.compactQueue(ctx, tx, bracket.EventID); err != nil {
			return err
		}
		ordered, err := s.orderTeams(ctx, tx, bracket.EventID, teamIDs)
		if err != nil {
			return err
		}
		entries, err := brackets.BuildEntries(ordered, size)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		if err := s.bracketRepo.ReplaceEntries(ctx, tx, bracketID, entries); err != nil {
			return err
		}
		actual := len(teamIDs)
		if err := s.bracketRepo.UpdateSize(ctx, tx, bracketID, size, &actual); err != nil {
			return mapRepoError(err)
		}
		result.EntriesCreated = len(entries)
		result.ByeCount = size - actual
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateGames expands the bracket's entries into the full game graph.
// Persistence takes three passes inside one transaction: insert rows in
// game-number order, wire the advancement pointers once every row has an id,
// then run the bye cascade to fixed point and persist what it touched.
func (s *bracketService) GenerateGames(ctx context.Context, bracketID int, force bool) (*GamesResult, error) {
	bracket, err := s.bracketRepo.GetByID(ctx, s.db, bracketID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if bracket.Status == models.BracketStatusCompleted {
		return nil, ErrBracketNotInSetup
	}

	entryRows, err := s.bracketRepo.ListEntriesByBracket(ctx, s.db, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for bracket %d: %w", bracketID, err)
	}
	if len(entryRows) == 0 {
		return nil, ErrBracketEntriesMissing
	}

	existing, err := s.gameRepo.ListByBracket(ctx, s.db, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for bracket %d: %w", bracketID, err)
	}
	if len(existing) > 0 && !force {
		return nil, ErrBracketHasGames
	}

	generator, err := brackets.NewGenerator(bracket.EliminationType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	entries := make([]models.BracketEntry, len(entryRows))
	for i, e := range entryRows {
		entries[i] = *e
	}
	nodes, err := generator.Build(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	var created int
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.gameRepo.DeleteByBracket(ctx, tx, bracketID); err != nil {
			return fmt.Errorf("failed to clear games for bracket %d: %w", bracketID, err)
		}
		if err := s.compactQueue(ctx, tx, bracket.EventID); err != nil {
			return err
		}

		// Pass 1: insert in game-number order, collecting database ids.
		idByUID := make(map[string]int, len(nodes))
		rows := make([]*models.BracketGame, 0, len(nodes))
		for _, n := range nodes {
			game := &models.BracketGame{
				BracketID:   bracketID,
				GameNumber:  n.GameNumber,
				RoundNumber: n.Round,
				RoundName:   n.RoundName,
				BracketSide: n.Side,
				Team1ID:     n.Team1ID,
				Team2ID:     n.Team2ID,
				Team1Source: sourceLabelFor(n, 1),
				Team2Source: sourceLabelFor(n, 2),
				Status:      n.Status,
				WinnerID:    n.WinnerID,
			}
			if err := s.gameRepo.Create(ctx, tx, game); err != nil {
				return fmt.Errorf("failed to insert game %s: %w", n.UID, err)
			}
			idByUID[n.UID] = game.ID
			rows = append(rows, game)
		}

		// Pass 2: resolve slot sources into integer advancement pointers.
		adv, err := brackets.WireAdvancement(nodes, idByUID)
		if err != nil {
			return fmt.Errorf("failed to wire advancement for bracket %d: %w", bracketID, err)
		}
		for i, n := range nodes {
			a := adv[n.UID]
			if a.WinnerToID == nil && a.LoserToID == nil {
				continue
			}
			game := rows[i]
			game.WinnerAdvancesToID = a.WinnerToID
			game.WinnerToSlot = a.WinnerToSlot
			game.LoserAdvancesToID = a.LoserToID
			game.LoserToSlot = a.LoserToSlot
			if err := s.gameRepo.UpdateAdvancement(ctx, tx, game.ID, *game); err != nil {
				return fmt.Errorf("failed to wire game %s: %w", n.UID, err)
			}
		}

		// Pass 3: cascade generation-time byes to fixed point.
		engine := brackets.NewEngine(rows)
		if err := engine.Cascade(); err != nil {
			return fmt.Errorf("bye cascade failed for bracket %d: %w", bracketID, err)
		}
		for _, game := range engine.Changed() {
			if err := s.gameRepo.UpdateState(ctx, tx, game); err != nil {
				return fmt.Errorf("failed to persist cascaded game %d: %w", game.ID, err)
			}
		}

		// An all-bye graph (single entrant) is decided at generation;
		// no score will ever be submitted, so complete the bracket now.
		newStatus := models.BracketStatusInProgress
		if engine.Champion() != nil {
			newStatus = models.BracketStatusCompleted
		}
		if bracket.Status != newStatus {
			if err := s.bracketRepo.UpdateStatus(ctx, tx, bracketID, newStatus); err != nil {
				return mapRepoError(err)
			}
		}
		created = len(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket games generated",
		slog.Int("bracket_id", bracketID),
		slog.Int("games_created", created),
		slog.Bool("force", force))
	if s.hub != nil {
		s.hub.BroadcastToRoom(eventRoom(bracket.EventID), brackets.MsgBracketUpdated, map[string]int{
			"bracket_id":    bracketID,
			"games_created": created,
		})
	}
	return &GamesResult{GamesCreated: created}, nil
}

func (s *bracketService) GetDetail(ctx context.Context, bracketID int) (*BracketDetail, error) {
	detail := &BracketDetail{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bracket, err := s.bracketRepo.GetByID(gCtx, s.db, bracketID)
		if err != nil {
			return mapRepoError(err)
		}
		detail.Bracket = bracket
		return nil
	})
	g.Go(func() error {
		entries, err := s.bracketRepo.ListEntriesByBracket(gCtx, s.db, bracketID)
		if err != nil {
			return fmt.Errorf("failed to list entries for bracket %d: %w", bracketID, err)
		}
		detail.Entries = entries
		return nil
	})
	g.Go(func() error {
		games, err := s.gameRepo.ListByBracket(gCtx, s.db, bracketID)
		if err != nil {
			return fmt.Errorf("failed to list games for bracket %d: %w", bracketID, err)
		}
		detail.Games = games
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *bracketService) ListByEvent(ctx context.Context, eventID int) ([]*models.Bracket, error) {
	list, err := s.bracketRepo.ListByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return list, nil
}

// resolveTeamIDs validates an explicit team selection against the event's
// teams, or falls back to every team of the event.
func (s *bracketService) resolveTeamIDs(ctx context.Context, eventID int, teamIDs []int) ([]int, error) {
	teams, err := s.teamRepo.ListByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
	}

	if len(teamIDs) == 0 {
		ids := make([]int, 0, len(teams))
		for _, t := range teams {
			ids = append(ids, t.ID)
		}
		if len(ids) == 0 {
			return nil, ErrNoTeamsSelected
		}
		return ids, nil
	}

	known := make(map[int]bool, len(teams))
	for _, t := range teams {
		known[t.ID] = true
	}
	seen := make(map[int]bool, len(teamIDs))
	ids := make([]int, 0, len(teamIDs))
	for _, id := range teamIDs {
		if !known[id] {
			return nil, fmt.Errorf("%w: team %d does not belong to event %d", ErrValidationFailed, id, eventID)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: team %d listed twice", ErrValidationFailed, id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// orderTeams sorts the selected teams best first: by seed_rank where a
// ranking exists, unranked teams after by team_number.
func (s *bracketService) orderTeams(ctx context.Context, q repositories.SQLExecutor, eventID int, teamIDs []int) ([]int, error) {
	rankingRows, err := s.seedingRepo.ListRankingsByEvent(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings for event %d: %w", eventID, err)
	}
	rankByTeam := make(map[int]int, len(rankingRows))
	for _, r := range rankingRows {
		rankByTeam[r.TeamID] = r.SeedRank
	}

	teams, err := s.teamRepo.ListByEvent(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
	}
	numberByTeam := make(map[int]int, len(teams))
	for _, t := range teams {
		numberByTeam[t.ID] = t.TeamNumber
	}

	ordered := make([]int, len(teamIDs))
	copy(ordered, teamIDs)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, iRanked := rankByTeam[ordered[i]]
		rj, jRanked := rankByTeam[ordered[j]]
		switch {
		case iRanked && jRanked:
			return ri < rj
		case iRanked:
			return true
		case jRanked:
			return false
		default:
			return numberByTeam[ordered[i]] < numberByTeam[ordered[j]]
		}
	})
	return ordered, nil
}

// compactQueue renumbers the event's queue after bracket games were deleted:
// the queue rows referencing them cascade away, and positions must stay a
// dense 1..N permutation.
func (s *bracketService) compactQueue(ctx context.Context, q repositories.SQLExecutor, eventID int) error {
	items, err := s.queueRepo.ListByEvent(ctx, q, eventID)
	if err != nil {
		return fmt.Errorf("failed to list queue for event %d: %w", eventID, err)
	}
	for _, item := range renumberQueue(items, nil) {
		if err := s.queueRepo.UpdatePosition(ctx, q, item.ID, item.QueuePosition); err != nil {
			return mapRepoError(err)
		}
	}
	return nil
}

func resolveBracketSize(teamCount int, override *int) (int, error) {
	computed, err := brackets.ComputeBracketSize(teamCount)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if override == nil || *override == 0 {
		return computed, nil
	}
	if !brackets.ValidBracketSize(*override) {
		return 0, ErrInvalidBracketSize
	}
	if *override < computed {
		return 0, fmt.Errorf("%w: size %d cannot hold %d teams", ErrValidationFailed, *override, teamCount)
	}
	return *override, nil
}

func sourceLabelFor(n *brackets.GameNode, slot int) *string {
	if slot == 1 {
		return brackets.SourceLabel(n.Team1Source, n.Team1Bye, seedPositionFor(n, 1))
	}
	return brackets.SourceLabel(n.Team2Source, n.Team2Bye, seedPositionFor(n, 2))
}

// seedPositionFor reports the physical slot a round-1 team was seeded into,
// used only for the "seed-N" source label.
func seedPositionFor(n *brackets.GameNode, slot int) int {
	if n.Round != 1 || n.Side != models.SideWinners {
		return 0
	}
	base := (n.Position - 1) * 2
	return base + slot
}
