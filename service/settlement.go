package service

import (
	"context"
	"fmt"

	"stakeduel/events"
	"stakeduel/models"

	log "github.com/sirupsen/logrus"
)

// settleMatch performs the single terminal transition of a match.
// The caller must hold the match row lock in the same unit of work. A match
// that is already COMPLETED is returned as is, so concurrent triggers that
// lose the race observe the committed winner instead of paying out twice.
// A nil winnerID settles as a tie: both stakes are refunded and no fee is taken.
func settleMatch(ctx context.Context, uow UnitOfWork, match *models.Match, players []*models.MatchPlayer, winnerID *int64, reason models.SettlementReason) (*models.MatchOutcome, error) {
	if match.Status == models.MatchStatusCompleted {
		return OutcomeFromMatch(match, true), nil
	}
	if !match.Status.HoldsStakes() {
		return nil, fmt.Errorf("%w: cannot settle a %s match", ErrInvalidState, match.Status)
	}
	if len(players) != 2 {
		return nil, fmt.Errorf("match %d has %d players, expected 2", match.ID, len(players))
	}
	if winnerID != nil && models.FindPlayer(players, *winnerID) == nil {
		return nil, fmt.Errorf("winner %d is not a participant of match %d", *winnerID, match.ID)
	}

	matchID := match.ID
	if winnerID == nil {
		for _, accountID := range lockOrder(players[0].UserID, players[1].UserID) {
			if _, err := ApplyDelta(ctx, uow, LedgerChange{
				AccountID:   accountID,
				Amount:      match.Stake,
				Category:    models.LedgerCategoryRefund,
				MatchID:     &matchID,
				Description: fmt.Sprintf("Refund for tied match %d", matchID),
			}); err != nil {
				return nil, fmt.Errorf("failed to refund account %d: %w", accountID, err)
			}
		}
	} else {
		if _, err := ApplyDelta(ctx, uow, LedgerChange{
			AccountID:   *winnerID,
			Amount:      match.WinnerPayout(),
			Category:    models.LedgerCategoryWinPayout,
			MatchID:     &matchID,
			Description: fmt.Sprintf("Winnings for match %d", matchID),
		}); err != nil {
			return nil, fmt.Errorf("failed to pay out winner %d: %w", *winnerID, err)
		}

		if err := uow.RevenueRepository().Record(ctx, &models.PlatformRevenue{
			MatchID: matchID,
			Amount:  match.PlatformFee,
		}); err != nil {
			return nil, fmt.Errorf("failed to record platform revenue: %w", err)
		}
	}

	settledAt := utcNow()
	match.Status = models.MatchStatusCompleted
	match.WinnerID = winnerID
	match.CompletedAt = &settledAt
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to complete match: %w", err)
	}

	outcome := OutcomeFromMatch(match, false)
	outcome.Reason = reason

	uow.EventBus().Publish(events.MatchCompletedEvent{
		MatchID:  matchID,
		WinnerID: winnerID,
		Tie:      outcome.Tie,
		Payout:   outcome.Payout,
		Fee:      outcome.Fee,
		Reason:   reason,
	})

	log.WithFields(log.Fields{
		"matchId":  matchID,
		"winnerId": winnerID,
		"tie":      outcome.Tie,
		"payout":   outcome.Payout.String(),
		"fee":      outcome.Fee.String(),
		"reason":   reason,
	}).Info("Match settled")

	return outcome, nil
}

// settleByScores settles using the stored scores, counting missing ones as zero
func settleByScores(ctx context.Context, uow UnitOfWork, match *models.Match, reason models.SettlementReason) (*models.MatchOutcome, error) {
	if match.Status == models.MatchStatusCompleted {
		return OutcomeFromMatch(match, true), nil
	}

	if err := uow.MatchPlayerRepository().DefaultMissingScores(ctx, match.ID); err != nil {
		return nil, fmt.Errorf("failed to default missing scores: %w", err)
	}
	players, err := uow.MatchPlayerRepository().ListByMatch(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match players: %w", err)
	}

	return settleMatch(ctx, uow, match, players, DecideWinner(players), reason)
}

// settleForfeit awards the match to the opponent of loserID
func settleForfeit(ctx context.Context, uow UnitOfWork, match *models.Match, loserID int64, reason models.SettlementReason) (*models.MatchOutcome, error) {
	if match.Status == models.MatchStatusCompleted {
		return OutcomeFromMatch(match, true), nil
	}

	players, err := uow.MatchPlayerRepository().ListByMatch(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match players: %w", err)
	}
	opponent := models.FindOpponent(players, loserID)
	if opponent == nil || models.FindPlayer(players, loserID) == nil {
		return nil, ErrNotAuthorized
	}

	return settleMatch(ctx, uow, match, players, &opponent.UserID, reason)
}
