package repository

import (
	"context"
	"fmt"

	"stakeduel/database"
	"stakeduel/models"

	"github.com/jackc/pgx/v5"
)

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepositoryWithTx creates a new ledger repository with a transaction
func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

const ledgerColumns = `id, account_id, amount, balance_before, balance_after, category, match_id, description, created_at`

// Append inserts a new entry. Entries are never updated or deleted.
func (r *LedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries
		(account_id, amount, balance_before, balance_after, category, match_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.AccountID,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.Category,
		entry.MatchID,
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry for account %d: %w", entry.AccountID, err)
	}
	return nil
}

// ListByAccount returns the newest entries of an account first
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, accountID, limit, offset)
}

// ListChain returns every entry of an account in creation order
func (r *LedgerRepository) ListChain(ctx context.Context, accountID int64) ([]*models.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY id
	`
	return r.list(ctx, query, accountID)
}

// ListByMatch returns the entries referencing a match in creation order
func (r *LedgerRepository) ListByMatch(ctx context.Context, matchID int64) ([]*models.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE match_id = $1
		ORDER BY id
	`
	return r.list(ctx, query, matchID)
}

func (r *LedgerRepository) list(ctx context.Context, query string, args ...any) ([]*models.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.LedgerEntry, error) {
		var e models.LedgerEntry
		err := row.Scan(
			&e.ID,
			&e.AccountID,
			&e.Amount,
			&e.BalanceBefore,
			&e.BalanceAfter,
			&e.Category,
			&e.MatchID,
			&e.Description,
			&e.CreatedAt,
		)
		return &e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger entries: %w", err)
	}
	return entries, nil
}
