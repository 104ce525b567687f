package repository

import (
	"context"
	"errors"
	"fmt"

	"stakeduel/database"
	"stakeduel/models"
	"stakeduel/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `id, username, balance, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// GetByIDForShare retrieves an account and blocks balance updates to it until
// the transaction ends
func (r *AccountRepository) GetByIDForShare(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR SHARE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %d: %w", id, err)
	}
	return account, nil
}

// GetByUsername retrieves an account by username
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %q: %w", username, err)
	}
	return account, nil
}

// Create creates an account with a zero balance
func (r *AccountRepository) Create(ctx context.Context, username string) (*models.Account, error) {
	query := `
		INSERT INTO accounts (username)
		VALUES ($1)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %q: %w", username, err)
	}
	return account, nil
}

// AddToBalance applies a signed amount with one conditional UPDATE. The row
// lock taken by the UPDATE serializes concurrent changes to the same account,
// and the WHERE clause rejects any change that would go negative.
func (r *AccountRepository) AddToBalance(ctx context.Context, id int64, amount decimal.Decimal) (*service.BalanceChange, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND balance + $1 >= 0
		RETURNING balance - $1, balance
	`

	change := &service.BalanceChange{AccountID: id}
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&change.BalanceBefore, &change.BalanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		account, lookupErr := r.GetByID(ctx, id)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if account == nil {
			return nil, fmt.Errorf("account %d: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("account %d: %w", id, service.ErrInsufficientFunds)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update balance of account %d: %w", id, err)
	}
	return change, nil
}

// ListIDs returns every account id in ascending order
func (r *AccountRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan account ids: %w", err)
	}
	return ids, nil
}
