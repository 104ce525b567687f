package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"stakeduel/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const shareRefLength = 10

// CalculatePlatformFee returns the fee withheld from the pot, rounded to cents
func CalculatePlatformFee(stake, feeRate decimal.Decimal) decimal.Decimal {
	return stake.Mul(decimal.NewFromInt(2)).Mul(feeRate).Round(2)
}

// ValidateStake checks a stake against the configured bounds. A zero max means unbounded.
func ValidateStake(stake, minStake, maxStake decimal.Decimal) error {
	if !stake.IsPositive() {
		return fmt.Errorf("%w: stake must be positive", ErrInvalidAmount)
	}
	if !stake.Equal(stake.Round(2)) {
		return fmt.Errorf("%w: stake has more than two decimal places", ErrInvalidAmount)
	}
	if stake.LessThan(minStake) {
		return fmt.Errorf("%w: stake below minimum of %s", ErrInvalidAmount, minStake.StringFixed(2))
	}
	if maxStake.IsPositive() && stake.GreaterThan(maxStake) {
		return fmt.Errorf("%w: stake above maximum of %s", ErrInvalidAmount, maxStake.StringFixed(2))
	}
	return nil
}

// CancelCooldownRemaining returns the whole seconds left before a match may be
// cancelled, rounded up, or zero once the cooldown has passed.
func CancelCooldownRemaining(createdAt, now time.Time, cooldown time.Duration) int {
	remaining := cooldown - now.Sub(createdAt)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

// CountdownElapsed reports whether a COUNTDOWN match may go live
func CountdownElapsed(match *models.Match, now time.Time, countdown time.Duration) bool {
	if match.CountdownStartedAt == nil {
		return false
	}
	return !now.Before(match.CountdownStartedAt.Add(countdown))
}

// TimedOut reports whether an ACTIVE match has run past the match timeout
func TimedOut(match *models.Match, now time.Time, timeout time.Duration) bool {
	if match.StartedAt == nil || timeout <= 0 {
		return false
	}
	return !now.Before(match.StartedAt.Add(timeout))
}

// DecideWinner compares scores with missing scores counted as zero.
// It returns nil on a tie.
func DecideWinner(players []*models.MatchPlayer) *int64 {
	if len(players) != 2 {
		return nil
	}
	a, b := players[0], players[1]
	switch {
	case a.ScoreOrZero() > b.ScoreOrZero():
		return &a.UserID
	case b.ScoreOrZero() > a.ScoreOrZero():
		return &b.UserID
	default:
		return nil
	}
}

// ClassifyOpponent turns the opponent's heartbeat age into a presence state.
// The age is measured from the later of the last heartbeat and the match start,
// so a player who never sent a heartbeat gets the full grace period.
// For OpponentDisconnected the remaining grace in whole seconds is returned too.
// A player whose result is stored never counts as absent.
func ClassifyOpponent(opponent *models.MatchPlayer, startedAt, now time.Time, disconnectAfter, abandonAfter time.Duration) (models.OpponentState, int) {
	if opponent.LeftGame {
		return models.OpponentLeft, 0
	}
	// Done playing and waiting on the other score
	if opponent.HasSubmitted() {
		return models.OpponentConnected, 0
	}

	baseline := startedAt
	if opponent.LastHeartbeatAt != nil && opponent.LastHeartbeatAt.After(baseline) {
		baseline = *opponent.LastHeartbeatAt
	}

	age := now.Sub(baseline)
	switch {
	case age >= abandonAfter:
		return models.OpponentLeft, 0
	case age > disconnectAfter:
		return models.OpponentDisconnected, int(math.Ceil((abandonAfter - age).Seconds()))
	default:
		return models.OpponentConnected, 0
	}
}

// OutcomeFromMatch describes the stored result of a completed match
func OutcomeFromMatch(match *models.Match, alreadySettled bool) *models.MatchOutcome {
	outcome := &models.MatchOutcome{
		MatchID:        match.ID,
		Status:         match.Status,
		WinnerID:       match.WinnerID,
		AlreadySettled: alreadySettled,
		Payout:         decimal.Zero,
		Fee:            decimal.Zero,
	}
	if match.Status != models.MatchStatusCompleted {
		return outcome
	}
	if match.WinnerID == nil {
		outcome.Tie = true
		outcome.Payout = match.Stake
		return outcome
	}
	outcome.Payout = match.WinnerPayout()
	outcome.Fee = match.PlatformFee
	return outcome
}

// GenerateGameSeed returns 128 random bits, hex encoded
func GenerateGameSeed() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate game seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewShareRef returns a short uppercase reference players can pass around
func NewShareRef() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:shareRefLength])
}

// lockOrder returns account ids in ascending order; every multi-account
// transaction touches balances in this order.
func lockOrder(ids ...int64) []int64 {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

func utcNow() time.Time {
	return time.Now().UTC()
}
