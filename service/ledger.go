package service

import (
	"context"
	"errors"
	"fmt"

	"stakeduel/events"
	"stakeduel/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// LedgerChange describes one signed balance movement
type LedgerChange struct {
	AccountID   int64
	Amount      decimal.Decimal
	Category    models.LedgerCategory
	MatchID     *int64
	Description string
}

// ApplyDelta is the single entry point for every balance change in the system.
// It runs inside the caller's unit of work: the balance update and the ledger
// entry commit or roll back together with everything else in that transaction.
// A change that would make the balance negative fails with ErrInsufficientFunds
// and leaves the balance untouched.
func ApplyDelta(ctx context.Context, uow UnitOfWork, change LedgerChange) (*models.LedgerEntry, error) {
	if change.Amount.IsZero() {
		return nil, fmt.Errorf("%w: ledger change must be non-zero", ErrInvalidAmount)
	}

	balance, err := uow.AccountRepository().AddToBalance(ctx, change.AccountID, change.Amount)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			log.WithFields(log.Fields{
				"accountId": change.AccountID,
				"amount":    change.Amount.String(),
				"category":  change.Category,
			}).Info("Rejected ledger change for insufficient funds")
		}
		return nil, err
	}

	entry := &models.LedgerEntry{
		AccountID:     change.AccountID,
		Amount:        change.Amount,
		BalanceBefore: balance.BalanceBefore,
		BalanceAfter:  balance.BalanceAfter,
		Category:      change.Category,
		MatchID:       change.MatchID,
		Description:   change.Description,
	}
	if err := uow.LedgerRepository().Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangedEvent{
		AccountID:     entry.AccountID,
		EntryID:       entry.ID,
		Amount:        entry.Amount,
		BalanceBefore: entry.BalanceBefore,
		BalanceAfter:  entry.BalanceAfter,
		Category:      entry.Category,
		MatchID:       entry.MatchID,
	})

	return entry, nil
}

// AuditLedger replays an account's chain and compares it with the stored balance
func AuditLedger(account *models.Account, chain []*models.LedgerEntry) *models.LedgerAudit {
	audit := &models.LedgerAudit{
		AccountID:     account.ID,
		StoredBalance: account.Balance,
		LedgerBalance: decimal.Zero,
		EntryCount:    len(chain),
	}

	running := decimal.Zero
	for _, entry := range chain {
		if !entry.BalanceBefore.Equal(running) || !entry.BalanceBefore.Add(entry.Amount).Equal(entry.BalanceAfter) {
			audit.BrokenEntryIDs = append(audit.BrokenEntryIDs, entry.ID)
		}
		running = running.Add(entry.Amount)
	}
	audit.LedgerBalance = running

	return audit
}
