package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kipr/colosseum-sub001/models"
	"github.com/kipr/colosseum-sub001/repositories"
)

const defaultSeedingRounds = 3

type CreateEventInput struct {
	Name          string `json:"name"`
	SeedingRounds int    `json:"seeding_rounds"`
}

type EventService interface {
	Create(ctx context.Context, input CreateEventInput) (*models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	UpdateStatus(ctx context.Context, id int, status models.EventStatus) (*models.Event, error)
}

type eventService struct {
	db          *sql.DB
	eventRepo   repositories.EventRepository
	teamRepo    repositories.TeamRepository
	bracketRepo repositories.BracketRepository
}

func NewEventService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	bracketRepo repositories.BracketRepository,
) EventService {
	return &eventService{
		db:          db,
		eventRepo:   eventRepo,
		teamRepo:    teamRepo,
		bracketRepo: bracketRepo,
	}
}

func (s *eventService) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrEventNameRequired
	}
	rounds := input.SeedingRounds
	if rounds == 0 {
		rounds = defaultSeedingRounds
	}
	if rounds < 1 {
		return nil, fmt.Errorf("%w: seeding_rounds must be positive", ErrValidationFailed)
	}

	event := &models.Event{
		Name:          name,
		SeedingRounds: rounds,
		Status:        models.EventStatusSetup,
	}
	if err := s.eventRepo.Create(ctx, s.db, event); err != nil {
		return nil, mapRepoError(err)
	}
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	teams, err := s.teamRepo.ListByEvent(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for event %d: %w", id, err)
	}
	event.Teams = make([]models.Team, 0, len(teams))
	for _, t := range teams {
		event.Teams = append(event.Teams, *t)
	}

	brackets, err := s.bracketRepo.ListByEvent(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets for event %d: %w", id, err)
	}
	event.Brackets = make([]models.Bracket, 0, len(brackets))
	for _, b := range brackets {
		event.Brackets = append(event.Brackets, *b)
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context) ([]*models.Event, error) {
	events, err := s.eventRepo.List(ctx, s.db)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return events, nil
}

func (s *eventService) UpdateStatus(ctx context.Context, id int, status models.EventStatus) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !validEventTransition(event.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusChange, event.Status, status)
	}
	if err := s.eventRepo.UpdateStatus(ctx, s.db, id, status); err != nil {
		return nil, mapRepoError(err)
	}
	event.Status = status
	return event, nil
}

func validEventTransition(current, next models.EventStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.EventStatus][]models.EventStatus{
		models.EventStatusSetup:      {models.EventStatusInProgress},
		models.EventStatusInProgress: {models.EventStatusCompleted},
		models.EventStatusCompleted:  {},
	}
	for _, n := range allowed[current] {
		if n == next {
			return true
		}
	}
	return false
}
