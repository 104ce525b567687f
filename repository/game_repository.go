package repository

import (
	"context"
	"errors"
	"fmt"

	"stakeduel/database"
	"stakeduel/models"

	"github.com/jackc/pgx/v5"
)

// GameRepository implements the GameRepository interface
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

const gameColumns = `id, slug, name, resolution_mode, is_active, created_at`

func scanGame(row pgx.Row) (*models.Game, error) {
	var g models.Game
	if err := row.Scan(&g.ID, &g.Slug, &g.Name, &g.ResolutionMode, &g.IsActive, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByID retrieves a game by ID
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	game, err := scanGame(r.q.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return game, nil
}

// GetBySlug retrieves a game by slug
func (r *GameRepository) GetBySlug(ctx context.Context, slug string) (*models.Game, error) {
	game, err := scanGame(r.q.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %q: %w", slug, err)
	}
	return game, nil
}

// ListActive returns the playable games ordered by name
func (r *GameRepository) ListActive(ctx context.Context) ([]*models.Game, error) {
	rows, err := r.q.Query(ctx, `SELECT `+gameColumns+` FROM games WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	games, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Game, error) {
		return scanGame(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan games: %w", err)
	}
	return games, nil
}

// Create adds a game to the catalog
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (slug, name, resolution_mode, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query, game.Slug, game.Name, game.ResolutionMode, game.IsActive).
		Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game %q: %w", game.Slug, err)
	}
	return nil
}
