package service

import (
	"context"
	"fmt"

	"stakeduel/config"
	"stakeduel/models"

	log "github.com/sirupsen/logrus"
)

type presenceService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewPresenceService creates the heartbeat and disconnect monitor
func NewPresenceService(uowFactory UnitOfWorkFactory, cfg *config.Config) PresenceService {
	return &presenceService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// Heartbeat records that the caller is still connected
func (s *presenceService) Heartbeat(ctx context.Context, matchID, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	found, err := uow.MatchPlayerRepository().TouchHeartbeat(ctx, matchID, userID, utcNow())
	if err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	if !found {
		return ErrNotAuthorized
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// OpponentStatus classifies the caller's opponent. An opponent past the
// abandonment threshold forfeits, and the returned status carries the outcome.
// Any other call has no side effects.
func (s *presenceService) OpponentStatus(ctx context.Context, matchID, userID int64) (*models.OpponentStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Read without locking; most polls change nothing
	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}

	status, opponent, err := s.classify(ctx, uow, match, userID)
	if err != nil || status.State != models.OpponentLeft {
		return status, err
	}

	// Re-evaluate under the row lock; a heartbeat or another settlement may have landed
	match, err = uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock match: %w", err)
	}
	status, opponent, err = s.classify(ctx, uow, match, userID)
	if err != nil || status.State != models.OpponentLeft {
		return status, err
	}

	// Award the match to the caller
	reason := models.SettlementByAbandonment
	if opponent.LeftGame {
		reason = models.SettlementByForfeit
	}
	outcome, err := settleForfeit(ctx, uow, match, opponent.UserID, reason)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchId":    matchID,
		"opponentId": opponent.UserID,
		"reason":     reason,
	}).Info("Opponent left the match")

	status.Outcome = outcome
	return status, nil
}

// classify reads the players and derives the caller's view of the opponent
func (s *presenceService) classify(ctx context.Context, uow UnitOfWork, match *models.Match, userID int64) (*models.OpponentStatus, *models.MatchPlayer, error) {
	players, err := uow.MatchPlayerRepository().ListByMatch(ctx, match.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get match players: %w", err)
	}
	if models.FindPlayer(players, userID) == nil {
		return nil, nil, ErrNotAuthorized
	}
	opponent := models.FindOpponent(players, userID)
	if opponent == nil {
		return nil, nil, fmt.Errorf("match %d has no opponent for %d", match.ID, userID)
	}

	status := &models.OpponentStatus{OpponentID: opponent.UserID}
	switch match.Status {
	case models.MatchStatusCompleted:
		status.State = models.OpponentMatchOver
		status.Outcome = OutcomeFromMatch(match, true)
		return status, opponent, nil
	case models.MatchStatusActive:
	default:
		// Presence is only judged during live play
		status.State = models.OpponentConnected
		return status, opponent, nil
	}

	status.State, status.GraceSecondsRemaining = ClassifyOpponent(
		opponent, *match.StartedAt, utcNow(), s.config.DisconnectAfter, s.config.AbandonAfter,
	)
	return status, opponent, nil
}

// Forfeit marks the caller as having left. A live match is settled in the
// opponent's favour; a settled match returns its outcome.
func (s *presenceService) Forfeit(ctx context.Context, matchID, userID int64) (*models.MatchOutcome, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}

	player, err := uow.MatchPlayerRepository().Get(ctx, matchID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match player: %w", err)
	}
	if player == nil {
		return nil, ErrNotAuthorized
	}

	if match.Status == models.MatchStatusCompleted {
		return OutcomeFromMatch(match, true), nil
	}
	if !match.Status.HoldsStakes() {
		return nil, fmt.Errorf("%w: match is %s", ErrInvalidState, match.Status)
	}

	// Record the departure, then pay the opponent
	if err := uow.MatchPlayerRepository().MarkLeft(ctx, matchID, userID, utcNow()); err != nil {
		return nil, fmt.Errorf("failed to mark player as left: %w", err)
	}

	outcome, err := settleForfeit(ctx, uow, match, userID, models.SettlementByForfeit)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return outcome, nil
}
