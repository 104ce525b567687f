package service

import (
	"context"
	"fmt"
	"strings"

	"stakeduel/models"

	"github.com/gosimple/slug"
)

type gameService struct {
	uowFactory UnitOfWorkFactory
}

// NewGameService creates a new game catalog service
func NewGameService(uowFactory UnitOfWorkFactory) GameService {
	return &gameService{
		uowFactory: uowFactory,
	}
}

// ListGames returns the active games
func (s *gameService) ListGames(ctx context.Context) ([]*models.Game, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	games, err := uow.GameRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// AddGame registers a game under a slug derived from its name
func (s *gameService) AddGame(ctx context.Context, name string, mode models.ResolutionMode) (*models.Game, error) {
	name = strings.TrimSpace(name)
	gameSlug := slug.Make(name)
	if gameSlug == "" {
		return nil, fmt.Errorf("%w: game name %q yields an empty slug", ErrInvalidInput, name)
	}
	if mode == "" {
		mode = models.ResolutionFirstFinish
	}
	if mode != models.ResolutionFirstFinish && mode != models.ResolutionBestScore {
		return nil, fmt.Errorf("%w: unknown resolution mode %q", ErrInvalidInput, mode)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.GameRepository().GetBySlug(ctx, gameSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: game %q already exists", ErrInvalidInput, gameSlug)
	}

	game := &models.Game{
		Slug:           gameSlug,
		Name:           name,
		ResolutionMode: mode,
		IsActive:       true,
	}
	if err := uow.GameRepository().Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return game, nil
}
