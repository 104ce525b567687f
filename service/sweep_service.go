package service

import (
	"context"
	"fmt"

	"stakeduel/config"
	"stakeduel/models"

	log "github.com/sirupsen/logrus"
)

const sweepBatchSize = 200

type sweepService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewSweepService creates the service the background sweeper drives.
// Every timer it applies is also applied when players poll, so a stopped
// sweeper delays transitions but never loses them.
func NewSweepService(uowFactory UnitOfWorkFactory, cfg *config.Config) SweepService {
	return &sweepService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// AdvanceCountdowns starts every match whose countdown has elapsed
func (s *sweepService) AdvanceCountdowns(ctx context.Context) (int, error) {
	ids, err := s.listIDs(ctx, models.MatchStatusCountdown)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, id := range ids {
		changed, err := applyTimers(ctx, s.uowFactory, s.config, id)
		if err != nil {
			log.WithFields(log.Fields{
				"matchId": id,
				"error":   err,
			}).Error("Failed to advance countdown")
			continue
		}
		if changed {
			started++
		}
	}
	return started, nil
}

// SettleStaleMatches settles live matches that timed out or were abandoned
func (s *sweepService) SettleStaleMatches(ctx context.Context) (int, error) {
	ids, err := s.listIDs(ctx, models.MatchStatusActive)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, id := range ids {
		changed, err := applyTimers(ctx, s.uowFactory, s.config, id)
		if err == nil && !changed {
			changed, err = s.settleAbandoned(ctx, id)
		}
		if err != nil {
			log.WithFields(log.Fields{
				"matchId": id,
				"error":   err,
			}).Error("Failed to settle stale match")
			continue
		}
		if changed {
			settled++
		}
	}
	return settled, nil
}

// settleAbandoned forfeits a player whose heartbeat is past the abandonment
// threshold. When both are gone the stored scores decide.
func (s *sweepService) settleAbandoned(ctx context.Context, matchID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to lock match: %w", err)
	}
	if match == nil || match.Status != models.MatchStatusActive || match.StartedAt == nil {
		return false, nil
	}

	// Find who is gone
	players, err := uow.MatchPlayerRepository().ListByMatch(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to get match players: %w", err)
	}

	checkedAt := utcNow()
	var gone []*models.MatchPlayer
	for _, p := range players {
		state, _ := ClassifyOpponent(p, *match.StartedAt, checkedAt, s.config.DisconnectAfter, s.config.AbandonAfter)
		if state == models.OpponentLeft {
			gone = append(gone, p)
		}
	}

	var outcome *models.MatchOutcome
	switch len(gone) {
	case 0:
		return false, nil
	case 1:
		reason := models.SettlementByAbandonment
		if gone[0].LeftGame {
			reason = models.SettlementByForfeit
		}
		outcome, err = settleForfeit(ctx, uow, match, gone[0].UserID, reason)
	default:
		outcome, err = settleByScores(ctx, uow, match, models.SettlementByAbandonment)
	}
	if err != nil {
		return false, err
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return !outcome.AlreadySettled, nil
}

func (s *sweepService) listIDs(ctx context.Context, status models.MatchStatus) ([]int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ids, err := uow.MatchRepository().ListIDsByStatus(ctx, status, sweepBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s matches: %w", status, err)
	}
	return ids, nil
}
