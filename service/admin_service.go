package service

import (
	"context"
	"fmt"

	"stakeduel/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type adminService struct {
	uowFactory UnitOfWorkFactory
}

// NewAdminService creates the operator service
func NewAdminService(uowFactory UnitOfWorkFactory) AdminService {
	return &adminService{
		uowFactory: uowFactory,
	}
}

// TopUp credits an account manually through the ledger
func (s *adminService) TopUp(ctx context.Context, accountID int64, amount decimal.Decimal, note string) (*models.LedgerEntry, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return nil, fmt.Errorf("%w: top-up must be positive with at most two decimal places", ErrInvalidAmount)
	}
	if note == "" {
		note = "Manual top-up"
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := ApplyDelta(ctx, uow, LedgerChange{
		AccountID:   accountID,
		Amount:      amount,
		Category:    models.LedgerCategoryManualTopUp,
		Description: note,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to top up account %d: %w", accountID, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountId": accountID,
		"amount":    amount.String(),
		"balance":   entry.BalanceAfter.String(),
	}).Info("Account topped up")

	return entry, nil
}

// RevenueSummary totals the fees withheld from settled matches
func (s *adminService) RevenueSummary(ctx context.Context) (*models.RevenueSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	summary, err := uow.RevenueRepository().Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize revenue: %w", err)
	}
	return summary, nil
}

// AuditAccount replays one account's ledger against its stored balance
func (s *adminService) AuditAccount(ctx context.Context, accountID int64) (*models.LedgerAudit, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return s.audit(ctx, uow, accountID)
}

// AuditAll replays every account's ledger
func (s *adminService) AuditAll(ctx context.Context) ([]*models.LedgerAudit, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ids, err := uow.AccountRepository().ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	audits := make([]*models.LedgerAudit, 0, len(ids))
	for _, id := range ids {
		audit, err := s.audit(ctx, uow, id)
		if err != nil {
			return nil, err
		}
		if !audit.Consistent() {
			log.WithFields(log.Fields{
				"accountId":     id,
				"storedBalance": audit.StoredBalance.String(),
				"ledgerBalance": audit.LedgerBalance.String(),
				"brokenEntries": audit.BrokenEntryIDs,
			}).Warn("Ledger audit mismatch")
		}
		audits = append(audits, audit)
	}
	return audits, nil
}

func (s *adminService) audit(ctx context.Context, uow UnitOfWork, accountID int64) (*models.LedgerAudit, error) {
	// Lock the balance first so no delta can commit between the two reads
	account, err := uow.AccountRepository().GetByIDForShare(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	chain, err := uow.LedgerRepository().ListChain(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger chain: %w", err)
	}

	return AuditLedger(account, chain), nil
}
