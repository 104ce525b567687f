package repository

import (
	"context"
	"errors"
	"fmt"

	"stakeduel/database"
	"stakeduel/models"

	"github.com/jackc/pgx/v5"
)

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

const matchColumns = `
	m.id, m.game_id, m.creator_id, m.share_ref, m.stake, m.platform_fee, m.status,
	m.game_seed, m.winner_id, m.created_at, m.countdown_started_at, m.started_at,
	m.completed_at, m.cancelled_at, m.updated_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID,
		&m.GameID,
		&m.CreatorID,
		&m.ShareRef,
		&m.Stake,
		&m.PlatformFee,
		&m.Status,
		&m.GameSeed,
		&m.WinnerID,
		&m.CreatedAt,
		&m.CountdownStartedAt,
		&m.StartedAt,
		&m.CompletedAt,
		&m.CancelledAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMatches(rows pgx.Rows) ([]*models.Match, error) {
	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Match, error) {
		return scanMatch(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan matches: %w", err)
	}
	return matches, nil
}

// Create inserts a new match
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (game_id, creator_id, share_ref, stake, platform_fee, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		match.GameID,
		match.CreatorID,
		match.ShareRef,
		match.Stake,
		match.PlatformFee,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	return r.getOne(ctx, `SELECT `+matchColumns+` FROM matches m WHERE m.id = $1`, id)
}

// GetByIDForUpdate retrieves a match and locks its row for the rest of the transaction
func (r *MatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Match, error) {
	return r.getOne(ctx, `SELECT `+matchColumns+` FROM matches m WHERE m.id = $1 FOR UPDATE`, id)
}

// GetByShareRef retrieves a match by its public share reference
func (r *MatchRepository) GetByShareRef(ctx context.Context, shareRef string) (*models.Match, error) {
	return r.getOne(ctx, `SELECT `+matchColumns+` FROM matches m WHERE m.share_ref = $1`, shareRef)
}

func (r *MatchRepository) getOne(ctx context.Context, query string, arg any) (*models.Match, error) {
	match, err := scanMatch(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// Update persists the lifecycle fields. The seed is excluded; see AssignSeed.
func (r *MatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET status = $2,
			winner_id = $3,
			countdown_started_at = $4,
			started_at = $5,
			completed_at = $6,
			cancelled_at = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		match.ID,
		match.Status,
		match.WinnerID,
		match.CountdownStartedAt,
		match.StartedAt,
		match.CompletedAt,
		match.CancelledAt,
	).Scan(&match.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("match %d not found", match.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", match.ID, err)
	}
	return nil
}

// AssignSeed writes the seed only when the match has none
func (r *MatchRepository) AssignSeed(ctx context.Context, id int64, seed string) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE matches SET game_seed = $2, updated_at = NOW() WHERE id = $1 AND game_seed IS NULL`,
		id, seed)
	if err != nil {
		return false, fmt.Errorf("failed to assign seed to match %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListOpen returns joinable matches, newest first
func (r *MatchRepository) ListOpen(ctx context.Context, filter models.OpenMatchFilter) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches m
		WHERE m.status IN ('WAITING', 'PENDING_ACCEPTANCE')
			AND m.created_at >= $1
			AND m.creator_id <> $2
			AND ($3::bigint IS NULL OR m.game_id = $3)
			AND ($4::numeric IS NULL OR m.stake = $4)
		ORDER BY m.created_at DESC
		LIMIT $5
	`

	rows, err := r.q.Query(ctx, query,
		filter.CreatedAfter,
		filter.ExcludeUser,
		filter.GameID,
		filter.Stake,
		filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list open matches: %w", err)
	}
	return collectMatches(rows)
}

// ListByUser returns matches the user created or plays in, newest first
func (r *MatchRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches m
		WHERE m.creator_id = $1
			OR EXISTS (SELECT 1 FROM match_players p WHERE p.match_id = m.id AND p.user_id = $1)
		ORDER BY m.created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for user %d: %w", userID, err)
	}
	return collectMatches(rows)
}

// ListIDsByStatus returns match ids in a status, oldest update first
func (r *MatchRepository) ListIDsByStatus(ctx context.Context, status models.MatchStatus, limit int) ([]int64, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id FROM matches WHERE status = $1 ORDER BY updated_at LIMIT $2`,
		status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s matches: %w", status, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan match ids: %w", err)
	}
	return ids, nil
}
