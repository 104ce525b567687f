package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus represents the lifecycle state of a match
type MatchStatus string

const (
	MatchStatusWaiting           MatchStatus = "WAITING"
	MatchStatusPendingAcceptance MatchStatus = "PENDING_ACCEPTANCE"
	MatchStatusCountdown         MatchStatus = "COUNTDOWN"
	MatchStatusActive            MatchStatus = "ACTIVE"
	MatchStatusCompleted         MatchStatus = "COMPLETED"
	MatchStatusCancelled         MatchStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is possible
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCancelled
}

// IsOpen reports whether the match still accepts join requests
func (s MatchStatus) IsOpen() bool {
	return s == MatchStatusWaiting || s == MatchStatusPendingAcceptance
}

// HoldsStakes reports whether both stakes are locked in the match
func (s MatchStatus) HoldsStakes() bool {
	return s == MatchStatusCountdown || s == MatchStatusActive
}

// Match is a head-to-head wager on a single game.
// GameSeed is assigned once at acceptance and never changes afterwards.
type Match struct {
	ID                 int64           `db:"id" json:"id"`
	GameID             int64           `db:"game_id" json:"gameId"`
	CreatorID          int64           `db:"creator_id" json:"creatorId"`
	ShareRef           string          `db:"share_ref" json:"shareRef"`
	Stake              decimal.Decimal `db:"stake" json:"stake"`
	PlatformFee        decimal.Decimal `db:"platform_fee" json:"platformFee"`
	Status             MatchStatus     `db:"status" json:"status"`
	GameSeed           *string         `db:"game_seed" json:"gameSeed,omitempty"`
	WinnerID           *int64          `db:"winner_id" json:"winnerId,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	CountdownStartedAt *time.Time      `db:"countdown_started_at" json:"countdownStartedAt,omitempty"`
	StartedAt          *time.Time      `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt        *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	CancelledAt        *time.Time      `db:"cancelled_at" json:"cancelledAt,omitempty"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}

// Pot is the combined stake of both players
func (m *Match) Pot() decimal.Decimal {
	return m.Stake.Mul(decimal.NewFromInt(2))
}

// WinnerPayout is what the winner receives on a non-tie settlement
func (m *Match) WinnerPayout() decimal.Decimal {
	return m.Pot().Sub(m.PlatformFee)
}

// MatchSummary is the public lobby view of a match, shown to anyone holding
// its share reference
type MatchSummary struct {
	ID        int64           `json:"id"`
	GameID    int64           `json:"gameId"`
	CreatorID int64           `json:"creatorId"`
	ShareRef  string          `json:"shareRef"`
	Stake     decimal.Decimal `json:"stake"`
	Status    MatchStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Summary drops the seed, the winner and the lifecycle timestamps
func (m *Match) Summary() *MatchSummary {
	return &MatchSummary{
		ID:        m.ID,
		GameID:    m.GameID,
		CreatorID: m.CreatorID,
		ShareRef:  m.ShareRef,
		Stake:     m.Stake,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}

// OpenMatchFilter narrows the lobby listing
type OpenMatchFilter struct {
	GameID       *int64
	Stake        *decimal.Decimal
	CreatedAfter time.Time
	ExcludeUser  int64
	Limit        int
}

// MatchDetail is the full view of a match returned to pollers
type MatchDetail struct {
	Match        *Match         `json:"match"`
	Game         *Game          `json:"game,omitempty"`
	Players      []*MatchPlayer `json:"players"`
	JoinRequests []*JoinRequest `json:"joinRequests"`
}

// Player returns the participant row for userID, or nil
func (d *MatchDetail) Player(userID int64) *MatchPlayer {
	return FindPlayer(d.Players, userID)
}
