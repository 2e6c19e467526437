package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kipr/colosseum-sub001/models"
	"github.com/kipr/colosseum-sub001/repositories"
	"github.com/kipr/colosseum-sub001/storage"
	"github.com/kipr/colosseum-sub001/utils"
)

type CreateTeamInput struct {
	EventID    int    `json:"event_id"`
	TeamNumber int    `json:"team_number"`
	TeamName   string `json:"team_name"`
}

type TeamService interface {
	Create(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error)
	UpdateName(ctx context.Context, id int, teamName string) (*models.Team, error)
	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Team, error)
}

type teamService struct {
	db       *sql.DB
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewTeamService(db *sql.DB, teamRepo repositories.TeamRepository, uploader storage.FileUploader, logger *slog.Logger) TeamService {
	return &teamService{
		db:       db,
		teamRepo: teamRepo,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *teamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.TeamName)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if input.TeamNumber <= 0 {
		return nil, fmt.Errorf("%w: team_number must be positive", ErrValidationFailed)
	}

	team := &models.Team{
		EventID:    input.EventID,
		TeamNumber: input.TeamNumber,
		TeamName:   name,
	}
	if err := s.teamRepo.Create(ctx, s.db, team); err != nil {
		return nil, mapRepoError(err)
	}
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	for _, t := range teams {
		populateTeamLogoURL(t, s.uploader)
	}
	return teams, nil
}

func (s *teamService) UpdateName(ctx context.Context, id int, teamName string) (*models.Team, error) {
	name := strings.TrimSpace(teamName)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if err := s.teamRepo.UpdateName(ctx, s.db, id, name); err != nil {
		return nil, mapRepoError(err)
	}
	return s.GetByID(ctx, id)
}

func (s *teamService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	ext, err := utils.ExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("teams/%d/logo%s", team.ID, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	oldKey := team.LogoKey
	if err := s.teamRepo.UpdateLogoKey(ctx, s.db, id, &result.Key); err != nil {
		return nil, mapRepoError(err)
	}

	if oldKey != nil && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous team logo",
				slog.Int("team_id", id), slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	team.LogoKey = &result.Key
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}
