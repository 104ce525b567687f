package repository

import (
	"context"
	"errors"
	"fmt"

	"stakeduel/database"
	"stakeduel/models"

	"github.com/jackc/pgx/v5"
)

// RevenueRepository implements the RevenueRepository interface
type RevenueRepository struct {
	q queryable
}

// NewRevenueRepository creates a new revenue repository
func NewRevenueRepository(db *database.DB) *RevenueRepository {
	return &RevenueRepository{q: db.Pool}
}

func newRevenueRepositoryWithTx(tx queryable) *RevenueRepository {
	return &RevenueRepository{q: tx}
}

// Record stores the fee withheld from a match. match_id is unique, so a
// second record for the same match fails.
func (r *RevenueRepository) Record(ctx context.Context, revenue *models.PlatformRevenue) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO platform_revenue (match_id, amount)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		revenue.MatchID, revenue.Amount).Scan(&revenue.ID, &revenue.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record revenue for match %d: %w", revenue.MatchID, err)
	}
	return nil
}

// GetByMatch returns the revenue row of a match, or nil
func (r *RevenueRepository) GetByMatch(ctx context.Context, matchID int64) (*models.PlatformRevenue, error) {
	var rev models.PlatformRevenue
	err := r.q.QueryRow(ctx,
		`SELECT id, match_id, amount, created_at FROM platform_revenue WHERE match_id = $1`,
		matchID).Scan(&rev.ID, &rev.MatchID, &rev.Amount, &rev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue for match %d: %w", matchID, err)
	}
	return &rev, nil
}

// Summary totals all recorded revenue
func (r *RevenueRepository) Summary(ctx context.Context) (*models.RevenueSummary, error) {
	var summary models.RevenueSummary
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM platform_revenue`,
	).Scan(&summary.Total, &summary.MatchCount)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize revenue: %w", err)
	}
	return &summary, nil
}
