package models

import (
	"github.com/shopspring/decimal"
)

// SettlementReason records which trigger terminated a match
type SettlementReason string

const (
	SettlementByScore       SettlementReason = "score"
	SettlementByForfeit     SettlementReason = "forfeit"
	SettlementByAbandonment SettlementReason = "abandonment"
	SettlementByTimeout     SettlementReason = "timeout"
)

// MatchOutcome describes how a match was (or is being) settled.
// Status stays ACTIVE while a best-score match waits for the second result.
type MatchOutcome struct {
	MatchID        int64            `json:"matchId"`
	Status         MatchStatus      `json:"status"`
	WinnerID       *int64           `json:"winnerId,omitempty"`
	Tie            bool             `json:"tie"`
	Payout         decimal.Decimal  `json:"payout"`
	Fee            decimal.Decimal  `json:"fee"`
	Reason         SettlementReason `json:"reason,omitempty"`
	AlreadySettled bool             `json:"alreadySettled"`
}

// Settled reports whether the outcome is final
func (o *MatchOutcome) Settled() bool {
	return o.Status == MatchStatusCompleted
}

// OpponentState is what a player sees about the other participant
type OpponentState string

const (
	OpponentConnected    OpponentState = "opponent_connected"
	OpponentDisconnected OpponentState = "opponent_disconnected"
	OpponentLeft         OpponentState = "opponent_left"
	OpponentMatchOver    OpponentState = "match_completed"
)

// OpponentStatus is the presence monitor's answer for one caller
type OpponentStatus struct {
	State                 OpponentState `json:"state"`
	OpponentID            int64         `json:"opponentId"`
	GraceSecondsRemaining int           `json:"graceSecondsRemaining,omitempty"`
	Outcome               *MatchOutcome `json:"outcome,omitempty"`
}
