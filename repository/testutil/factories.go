package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"stakeduel/database"
	"stakeduel/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var accountSeq atomic.Int64

// CreateTestAccount inserts an account funded with balance. The funding is
// written through the ledger so audits stay consistent.
func CreateTestAccount(t *testing.T, db *database.DB, balance string) *models.Account {
	t.Helper()
	ctx := context.Background()

	username := fmt.Sprintf("player-%d", accountSeq.Add(1))
	amount := decimal.RequireFromString(balance)

	var account models.Account
	err := db.QueryRow(ctx,
		`INSERT INTO accounts (username, balance) VALUES ($1, $2)
		 RETURNING id, username, balance, created_at, updated_at`,
		username, amount,
	).Scan(&account.ID, &account.Username, &account.Balance, &account.CreatedAt, &account.UpdatedAt)
	require.NoError(t, err)

	if amount.IsPositive() {
		_, err = db.Exec(ctx,
			`INSERT INTO ledger_entries (account_id, amount, balance_before, balance_after, category, description)
			 VALUES ($1, $2, 0, $2, 'manual_topup', 'test funding')`,
			account.ID, amount)
		require.NoError(t, err)
	}
	return &account
}

// GameBySlug loads one of the seeded games
func GameBySlug(t *testing.T, db *database.DB, slug string) *models.Game {
	t.Helper()

	var g models.Game
	err := db.QueryRow(context.Background(),
		`SELECT id, slug, name, resolution_mode, is_active, created_at FROM games WHERE slug = $1`, slug,
	).Scan(&g.ID, &g.Slug, &g.Name, &g.ResolutionMode, &g.IsActive, &g.CreatedAt)
	require.NoError(t, err)
	return &g
}

// Balance reads the stored balance of an account
func Balance(t *testing.T, db *database.DB, accountID int64) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(context.Background(), `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

// BackdateMatch shifts every timestamp of a match and its players into the past
func BackdateMatch(t *testing.T, db *database.DB, matchID int64, seconds int) {
	t.Helper()
	ctx := context.Background()
	shift := fmt.Sprintf("%d seconds", seconds)

	_, err := db.Exec(ctx, `
		UPDATE matches SET
			created_at = created_at - $2::interval,
			countdown_started_at = countdown_started_at - $2::interval,
			started_at = started_at - $2::interval
		WHERE id = $1`, matchID, shift)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		UPDATE match_players SET
			joined_at = joined_at - $2::interval,
			last_heartbeat_at = last_heartbeat_at - $2::interval
		WHERE match_id = $1`, matchID, shift)
	require.NoError(t, err)
}

// SetHeartbeat places one player's last heartbeat secondsAgo in the past
func SetHeartbeat(t *testing.T, db *database.DB, matchID, userID int64, secondsAgo int) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		UPDATE match_players SET last_heartbeat_at = NOW() - $3::interval
		WHERE match_id = $1 AND user_id = $2`,
		matchID, userID, fmt.Sprintf("%d seconds", secondsAgo))
	require.NoError(t, err)
}
