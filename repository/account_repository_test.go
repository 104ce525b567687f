package repository

import (
	"context"
	"errors"
	"testing"

	"stakeduel/models"
	"stakeduel/repository/testutil"
	"stakeduel/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_AddToBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("credit and debit", func(t *testing.T) {
		account := testutil.CreateTestAccount(t, testDB.DB, "50.00")

		change, err := repo.AddToBalance(ctx, account.ID, decimal.RequireFromString("-12.50"))
		require.NoError(t, err)
		assert.True(t, change.BalanceBefore.Equal(decimal.RequireFromString("50")))
		assert.True(t, change.BalanceAfter.Equal(decimal.RequireFromString("37.50")))

		change, err = repo.AddToBalance(ctx, account.ID, decimal.RequireFromString("2.50"))
		require.NoError(t, err)
		assert.True(t, change.BalanceAfter.Equal(decimal.RequireFromString("40")))
	})

	t.Run("debit to exactly zero", func(t *testing.T) {
		account := testutil.CreateTestAccount(t, testDB.DB, "10.00")

		change, err := repo.AddToBalance(ctx, account.ID, decimal.RequireFromString("-10"))
		require.NoError(t, err)
		assert.True(t, change.BalanceAfter.IsZero())
	})

	t.Run("overdraw is rejected and balance untouched", func(t *testing.T) {
		account := testutil.CreateTestAccount(t, testDB.DB, "5.00")

		_, err := repo.AddToBalance(ctx, account.ID, decimal.RequireFromString("-5.01"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrInsufficientFunds))
		assert.True(t, testutil.Balance(t, testDB.DB, account.ID).Equal(decimal.RequireFromString("5")))
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := repo.AddToBalance(ctx, 999999, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestAccountRepository_CreateAndLookup(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, created.Balance.IsZero())

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)

	missing, err := repo.GetByID(ctx, created.ID+1000)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.Create(ctx, "alice")
	assert.Error(t, err)
}

func TestLedgerRepository_EntriesAreImmutable(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, testDB.DB, "20.00")
	entry := &models.LedgerEntry{
		AccountID:     account.ID,
		Amount:        decimal.NewFromInt(-5),
		BalanceBefore: decimal.NewFromInt(20),
		BalanceAfter:  decimal.NewFromInt(15),
		Category:      models.LedgerCategoryWithdrawal,
		Description:   "test",
	}
	require.NoError(t, repo.Append(ctx, entry))
	assert.NotZero(t, entry.ID)

	_, err := testDB.DB.Exec(ctx, `UPDATE ledger_entries SET amount = -1 WHERE id = $1`, entry.ID)
	assert.Error(t, err)

	_, err = testDB.DB.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1`, entry.ID)
	assert.Error(t, err)

	t.Run("inconsistent entry is rejected", func(t *testing.T) {
		bad := &models.LedgerEntry{
			AccountID:     account.ID,
			Amount:        decimal.NewFromInt(-5),
			BalanceBefore: decimal.NewFromInt(15),
			BalanceAfter:  decimal.NewFromInt(11),
			Category:      models.LedgerCategoryWithdrawal,
		}
		assert.Error(t, repo.Append(ctx, bad))
	})

	chain, err := repo.ListChain(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, models.LedgerCategoryManualTopUp, chain[0].Category)
	assert.Equal(t, entry.ID, chain[1].ID)
}
