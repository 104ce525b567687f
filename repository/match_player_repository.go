package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stakeduel/database"
	"stakeduel/models"

	"github.com/jackc/pgx/v5"
)

// MatchPlayerRepository implements the MatchPlayerRepository interface
type MatchPlayerRepository struct {
	q queryable
}

// NewMatchPlayerRepository creates a new match player repository
func NewMatchPlayerRepository(db *database.DB) *MatchPlayerRepository {
	return &MatchPlayerRepository{q: db.Pool}
}

func newMatchPlayerRepositoryWithTx(tx queryable) *MatchPlayerRepository {
	return &MatchPlayerRepository{q: tx}
}

const matchPlayerColumns = `id, match_id, user_id, joined_at, last_heartbeat_at, left_game, left_at, score, result_data, submitted_at`

func scanMatchPlayer(row pgx.Row) (*models.MatchPlayer, error) {
	var p models.MatchPlayer
	var data []byte
	err := row.Scan(
		&p.ID,
		&p.MatchID,
		&p.UserID,
		&p.JoinedAt,
		&p.LastHeartbeatAt,
		&p.LeftGame,
		&p.LeftAt,
		&p.Score,
		&data,
		&p.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		p.ResultData = json.RawMessage(data)
	}
	return &p, nil
}

// Create inserts a participant row
func (r *MatchPlayerRepository) Create(ctx context.Context, player *models.MatchPlayer) error {
	query := `
		INSERT INTO match_players (match_id, user_id)
		VALUES ($1, $2)
		RETURNING id, joined_at
	`
	err := r.q.QueryRow(ctx, query, player.MatchID, player.UserID).Scan(&player.ID, &player.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add player %d to match %d: %w", player.UserID, player.MatchID, err)
	}
	return nil
}

// ListByMatch returns the participants in join order
func (r *MatchPlayerRepository) ListByMatch(ctx context.Context, matchID int64) ([]*models.MatchPlayer, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+matchPlayerColumns+` FROM match_players WHERE match_id = $1 ORDER BY id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players of match %d: %w", matchID, err)
	}

	players, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.MatchPlayer, error) {
		return scanMatchPlayer(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan match players: %w", err)
	}
	return players, nil
}

// Get returns one participant, or nil
func (r *MatchPlayerRepository) Get(ctx context.Context, matchID, userID int64) (*models.MatchPlayer, error) {
	player, err := scanMatchPlayer(r.q.QueryRow(ctx,
		`SELECT `+matchPlayerColumns+` FROM match_players WHERE match_id = $1 AND user_id = $2`,
		matchID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d of match %d: %w", userID, matchID, err)
	}
	return player, nil
}

// TouchHeartbeat records liveness
func (r *MatchPlayerRepository) TouchHeartbeat(ctx context.Context, matchID, userID int64, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE match_players SET last_heartbeat_at = $3 WHERE match_id = $1 AND user_id = $2`,
		matchID, userID, at)
	if err != nil {
		return false, fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkLeft flags the player as having left; the first departure time is kept
func (r *MatchPlayerRepository) MarkLeft(ctx context.Context, matchID, userID int64, at time.Time) error {
	_, err := r.q.Exec(ctx, `
		UPDATE match_players
		SET left_game = TRUE, left_at = COALESCE(left_at, $3)
		WHERE match_id = $1 AND user_id = $2`,
		matchID, userID, at)
	if err != nil {
		return fmt.Errorf("failed to mark player %d as left: %w", userID, err)
	}
	return nil
}

// RecordResult stores a score once; later submissions are ignored
func (r *MatchPlayerRepository) RecordResult(ctx context.Context, matchID, userID int64, score int64, data json.RawMessage, at time.Time) error {
	var payload any
	if len(data) > 0 {
		payload = []byte(data)
	}

	_, err := r.q.Exec(ctx, `
		UPDATE match_players
		SET score = $3, result_data = $4, submitted_at = $5
		WHERE match_id = $1 AND user_id = $2 AND submitted_at IS NULL`,
		matchID, userID, score, payload, at)
	if err != nil {
		return fmt.Errorf("failed to record result of player %d: %w", userID, err)
	}
	return nil
}

// DefaultMissingScores gives players who never reported a score of zero
func (r *MatchPlayerRepository) DefaultMissingScores(ctx context.Context, matchID int64) error {
	_, err := r.q.Exec(ctx,
		`UPDATE match_players SET score = 0 WHERE match_id = $1 AND score IS NULL`, matchID)
	if err != nil {
		return fmt.Errorf("failed to default scores of match %d: %w", matchID, err)
	}
	return nil
}
