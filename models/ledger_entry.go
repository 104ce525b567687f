package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerCategory classifies a balance change
type LedgerCategory string

const (
	LedgerCategoryStakeLock   LedgerCategory = "stake_lock"
	LedgerCategoryWinPayout   LedgerCategory = "win_payout"
	LedgerCategoryRefund      LedgerCategory = "refund"
	LedgerCategoryFee         LedgerCategory = "fee"
	LedgerCategoryManualTopUp LedgerCategory = "manual_topup"
	LedgerCategoryDeposit     LedgerCategory = "deposit"
	LedgerCategoryWithdrawal  LedgerCategory = "withdrawal"
)

// LedgerEntry is an immutable record of one balance change.
// BalanceAfter always equals BalanceBefore + Amount.
type LedgerEntry struct {
	ID            int64           `db:"id" json:"id"`
	AccountID     int64           `db:"account_id" json:"accountId"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balanceAfter"`
	Category      LedgerCategory  `db:"category" json:"category"`
	MatchID       *int64          `db:"match_id" json:"matchId,omitempty"`
	Description   string          `db:"description" json:"description"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// LedgerAudit is the result of replaying an account's ledger chain
type LedgerAudit struct {
	AccountID      int64           `json:"accountId"`
	StoredBalance  decimal.Decimal `json:"storedBalance"`
	LedgerBalance  decimal.Decimal `json:"ledgerBalance"`
	EntryCount     int             `json:"entryCount"`
	BrokenEntryIDs []int64         `json:"brokenEntryIds,omitempty"`
}

// Consistent reports whether the chain is unbroken and sums to the stored balance
func (a *LedgerAudit) Consistent() bool {
	return len(a.BrokenEntryIDs) == 0 && a.StoredBalance.Equal(a.LedgerBalance)
}
