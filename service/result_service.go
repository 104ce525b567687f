package service

import (
	"context"
	"encoding/json"
	"fmt"

	"stakeduel/config"
	"stakeduel/models"

	log "github.com/sirupsen/logrus"
)

type resultService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewResultService creates the adapter games use to report scores
func NewResultService(uowFactory UnitOfWorkFactory, cfg *config.Config) ResultService {
	return &resultService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// SubmitResult stores the caller's score and settles the match according to
// the game's resolution mode. A result arriving after settlement returns the
// committed outcome. A result past the match timeout is not stored, and an
// opponent already past the abandonment threshold forfeits.
func (s *resultService) SubmitResult(ctx context.Context, matchID, userID int64, score int64, gameData json.RawMessage) (*models.MatchOutcome, error) {
	if score < 0 {
		return nil, fmt.Errorf("%w: score must not be negative", ErrInvalidInput)
	}
	if len(gameData) > 0 && !json.Valid(gameData) {
		return nil, fmt.Errorf("%w: game data must be valid JSON", ErrInvalidInput)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Lock the match
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
	if match.Status == models.MatchStatusCountdown {
		started, err := startIfDue(ctx, uow, match, s.config.CountdownDuration)
		if err != nil {
			return nil, err
		}
		if !started {
			return nil, ErrCountdownRunning
		}
	}
	if match.Status != models.MatchStatusActive {
		return nil, fmt.Errorf("%w: match is %s", ErrInvalidState, match.Status)
	}

	// A match past its timeout settles on what was stored before it expired
	if TimedOut(match, utcNow(), s.config.MatchTimeout) {
		outcome, err := settleByScores(ctx, uow, match, models.SettlementByTimeout)
		if err != nil {
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		log.WithFields(log.Fields{
			"matchId": matchID,
			"userId":  userID,
		}).Info("Result arrived after match timeout")
		return outcome, nil
	}
	if player.HasSubmitted() {
		return nil, ErrResultAlreadySubmitted
	}

	// Store the score
	if err := uow.MatchPlayerRepository().RecordResult(ctx, matchID, userID, score, gameData, utcNow()); err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}

	players, err := uow.MatchPlayerRepository().ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match players: %w", err)
	}

	// An opponent who already abandoned loses regardless of the resolution mode
	if opponent := models.FindOpponent(players, userID); opponent != nil && match.StartedAt != nil {
		state, _ := ClassifyOpponent(opponent, *match.StartedAt, utcNow(), s.config.DisconnectAfter, s.config.AbandonAfter)
		if state == models.OpponentLeft {
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
				"userId":     userID,
				"score":      score,
				"opponentId": opponent.UserID,
				"reason":     reason,
			}).Info("Result submitted against absent opponent")
			return outcome, nil
		}
	}

	// Resolve by the game's mode
	game, err := uow.GameRepository().GetByID(ctx, match.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	mode := models.ResolutionFirstFinish
	if game != nil && game.ResolutionMode != "" {
		mode = game.ResolutionMode
	}

	var outcome *models.MatchOutcome
	switch mode {
	case models.ResolutionBestScore:
		if allSubmitted(players) {
			outcome, err = settleMatch(ctx, uow, match, players, DecideWinner(players), models.SettlementByScore)
			if err != nil {
				return nil, err
			}
		} else {
			outcome = OutcomeFromMatch(match, false)
		}
	default:
		// The opponent has not finished and scores zero
		outcome, err = settleByScores(ctx, uow, match, models.SettlementByScore)
		if err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchId": matchID,
		"userId":  userID,
		"score":   score,
		"mode":    mode,
		"settled": outcome.Settled(),
	}).Info("Result submitted")

	return outcome, nil
}

func allSubmitted(players []*models.MatchPlayer) bool {
	if len(players) != 2 {
		return false
	}
	for _, p := range players {
		if !p.HasSubmitted() {
			return false
		}
	}
	return true
}
