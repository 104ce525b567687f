package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlatformRevenue records the fee withheld from one non-tie match
type PlatformRevenue struct {
	ID        int64           `db:"id" json:"id"`
	MatchID   int64           `db:"match_id" json:"matchId"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// RevenueSummary aggregates platform revenue
type RevenueSummary struct {
	Total      decimal.Decimal `json:"total"`
	MatchCount int64           `json:"matchCount"`
}
