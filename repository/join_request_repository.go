package repository

import (
	"context"
	"errors"
	"fmt"

	"stakeduel/database"
	"stakeduel/models"

	"github.com/jackc/pgx/v5"
)

// JoinRequestRepository implements the JoinRequestRepository interface
type JoinRequestRepository struct {
	q queryable
}

// NewJoinRequestRepository creates a new join request repository
func NewJoinRequestRepository(db *database.DB) *JoinRequestRepository {
	return &JoinRequestRepository{q: db.Pool}
}

func newJoinRequestRepositoryWithTx(tx queryable) *JoinRequestRepository {
	return &JoinRequestRepository{q: tx}
}

const joinRequestColumns = `id, match_id, requester_id, status, created_at, updated_at`

func scanJoinRequest(row pgx.Row) (*models.JoinRequest, error) {
	var jr models.JoinRequest
	if err := row.Scan(&jr.ID, &jr.MatchID, &jr.RequesterID, &jr.Status, &jr.CreatedAt, &jr.UpdatedAt); err != nil {
		return nil, err
	}
	return &jr, nil
}

// Create inserts a pending request. When the requester already has one
// pending for the match, the existing row is loaded into request instead.
func (r *JoinRequestRepository) Create(ctx context.Context, request *models.JoinRequest) error {
	query := `
		INSERT INTO join_requests (match_id, requester_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (match_id, requester_id) WHERE status = 'pending' DO NOTHING
		RETURNING ` + joinRequestColumns

	created, err := scanJoinRequest(r.q.QueryRow(ctx, query, request.MatchID, request.RequesterID))
	if errors.Is(err, pgx.ErrNoRows) {
		created, err = r.GetPending(ctx, request.MatchID, request.RequesterID)
		if err == nil && created == nil {
			err = fmt.Errorf("pending join request vanished")
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create join request: %w", err)
	}

	*request = *created
	return nil
}

// GetByID retrieves a join request by ID
func (r *JoinRequestRepository) GetByID(ctx context.Context, id int64) (*models.JoinRequest, error) {
	jr, err := scanJoinRequest(r.q.QueryRow(ctx, `SELECT `+joinRequestColumns+` FROM join_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get join request %d: %w", id, err)
	}
	return jr, nil
}

// GetPending returns the requester's pending request for the match, or nil
func (r *JoinRequestRepository) GetPending(ctx context.Context, matchID, requesterID int64) (*models.JoinRequest, error) {
	jr, err := scanJoinRequest(r.q.QueryRow(ctx, `
		SELECT `+joinRequestColumns+`
		FROM join_requests
		WHERE match_id = $1 AND requester_id = $2 AND status = 'pending'`,
		matchID, requesterID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending join request: %w", err)
	}
	return jr, nil
}

// ListByMatch returns requests for a match in creation order. An empty
// status returns every request.
func (r *JoinRequestRepository) ListByMatch(ctx context.Context, matchID int64, status models.JoinRequestStatus) ([]*models.JoinRequest, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+joinRequestColumns+`
		FROM join_requests
		WHERE match_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY id`,
		matchID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	return collectJoinRequests(rows)
}

// UpdateStatus moves a request to a new status
func (r *JoinRequestRepository) UpdateStatus(ctx context.Context, id int64, status models.JoinRequestStatus) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE join_requests SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update join request %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("join request %d not found", id)
	}
	return nil
}

// RejectPendingExcept rejects the other pending requests of a match
func (r *JoinRequestRepository) RejectPendingExcept(ctx context.Context, matchID, keepID int64) ([]*models.JoinRequest, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE join_requests
		SET status = 'rejected', updated_at = NOW()
		WHERE match_id = $1 AND id <> $2 AND status = 'pending'
		RETURNING `+joinRequestColumns,
		matchID, keepID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject join requests: %w", err)
	}
	return collectJoinRequests(rows)
}

// CountPending counts the pending requests of a match
func (r *JoinRequestRepository) CountPending(ctx context.Context, matchID int64) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM join_requests WHERE match_id = $1 AND status = 'pending'`,
		matchID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count join requests: %w", err)
	}
	return count, nil
}

func collectJoinRequests(rows pgx.Rows) ([]*models.JoinRequest, error) {
	requests, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.JoinRequest, error) {
		return scanJoinRequest(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan join requests: %w", err)
	}
	return requests, nil
}
