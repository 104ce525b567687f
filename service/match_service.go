package service

import (
	"context"
	"fmt"
	"time"

	"stakeduel/config"
	"stakeduel/events"
	"stakeduel/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	defaultOpenMatchLimit = 50
	maxHistoryLimit       = 100
)

type matchService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewMatchService creates a new match service
func NewMatchService(uowFactory UnitOfWorkFactory, cfg *config.Config) MatchService {
	return &matchService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// Create opens a match in WAITING. The creator's balance is only checked here;
// stakes are locked when an opponent is accepted.
func (s *matchService) Create(ctx context.Context, userID, gameID int64, stake decimal.Decimal) (*models.Match, error) {
	if err := ValidateStake(stake, s.config.MinStake, s.config.MaxStake); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Get game
	game, err := uow.GameRepository().GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil || !game.IsActive {
		return nil, ErrGameUnavailable
	}

	// Check the creator can cover the stake; nothing is debited until acceptance
	creator, err := uow.AccountRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("account %d: %w", userID, ErrNotFound)
	}
	if !creator.CanCover(stake) {
		return nil, ErrInsufficientFunds
	}

	match := &models.Match{
		GameID:      game.ID,
		CreatorID:   userID,
		ShareRef:    NewShareRef(),
		Stake:       stake,
		PlatformFee: CalculatePlatformFee(stake, s.config.PlatformFeeRate),
		Status:      models.MatchStatusWaiting,
	}
	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	uow.EventBus().Publish(events.MatchCreatedEvent{
		MatchID:   match.ID,
		GameID:    match.GameID,
		CreatorID: match.CreatorID,
		Stake:     match.Stake,
		ShareRef:  match.ShareRef,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchId":   match.ID,
		"creatorId": userID,
		"gameId":    gameID,
		"stake":     stake.String(),
	}).Info("Match created")

	return match, nil
}

// RequestJoin records a pending request for the open seat
func (s *matchService) RequestJoin(ctx context.Context, matchID, userID int64) (*models.JoinRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Serializes with Accept so no request slips in after the seat is taken
	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	if match.CreatorID == userID {
		return nil, ErrOwnMatch
	}
	if !match.Status.IsOpen() {
		return nil, ErrMatchNotAvailable
	}

	// A repeated request returns the pending one
	existing, err := uow.JoinRequestRepository().GetPending(ctx, matchID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing request: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	requester, err := uow.AccountRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if requester == nil {
		return nil, fmt.Errorf("account %d: %w", userID, ErrNotFound)
	}
	if !requester.CanCover(match.Stake) {
		return nil, ErrInsufficientFunds
	}

	request := &models.JoinRequest{
		MatchID:     matchID,
		RequesterID: userID,
		Status:      models.JoinRequestPending,
	}
	if err := uow.JoinRequestRepository().Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	if match.Status == models.MatchStatusWaiting {
		match.Status = models.MatchStatusPendingAcceptance
		if err := uow.MatchRepository().Update(ctx, match); err != nil {
			return nil, fmt.Errorf("failed to update match: %w", err)
		}
	}

	uow.EventBus().Publish(events.JoinRequestedEvent{
		MatchID:     matchID,
		RequestID:   request.ID,
		CreatorID:   match.CreatorID,
		RequesterID: userID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return request, nil
}

// Accept locks both stakes, seats both players and starts the countdown in one
// transaction. Accepting an already accepted request returns the stored
// countdown start without moving money again.
func (s *matchService) Accept(ctx context.Context, matchID, creatorID, requestID int64) (time.Time, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return time.Time{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Lock the match
	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return time.Time{}, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	if match.CreatorID != creatorID {
		return time.Time{}, ErrNotAuthorized
	}

	// Get the join request
	request, err := uow.JoinRequestRepository().GetByID(ctx, requestID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get join request: %w", err)
	}
	if request == nil || request.MatchID != matchID {
		return time.Time{}, fmt.Errorf("join request %d: %w", requestID, ErrNotFound)
	}

	switch request.Status {
	case models.JoinRequestAccepted:
		if match.CountdownStartedAt == nil {
			return time.Time{}, fmt.Errorf("accepted match %d has no countdown start", matchID)
		}
		return *match.CountdownStartedAt, nil
	case models.JoinRequestRejected:
		return time.Time{}, ErrRequestAlreadyProcessed
	}

	if match.Status != models.MatchStatusPendingAcceptance {
		return time.Time{}, ErrMatchNotAvailable
	}

	// Stake lock: both debits or neither
	for _, accountID := range lockOrder(match.CreatorID, request.RequesterID) {
		if _, err := ApplyDelta(ctx, uow, LedgerChange{
			AccountID:   accountID,
			Amount:      match.Stake.Neg(),
			Category:    models.LedgerCategoryStakeLock,
			MatchID:     &match.ID,
			Description: fmt.Sprintf("Stake for match %d", match.ID),
		}); err != nil {
			return time.Time{}, fmt.Errorf("failed to lock stake of account %d: %w", accountID, err)
		}
	}

	// Seat both players
	joinedAt := utcNow()
	for _, userID := range []int64{match.CreatorID, request.RequesterID} {
		if err := uow.MatchPlayerRepository().Create(ctx, &models.MatchPlayer{
			MatchID:  match.ID,
			UserID:   userID,
			JoinedAt: joinedAt,
		}); err != nil {
			return time.Time{}, fmt.Errorf("failed to seat player %d: %w", userID, err)
		}
	}

	// Accept this request and turn the others away
	if err := uow.JoinRequestRepository().UpdateStatus(ctx, request.ID, models.JoinRequestAccepted); err != nil {
		return time.Time{}, fmt.Errorf("failed to accept join request: %w", err)
	}
	rejected, err := uow.JoinRequestRepository().RejectPendingExcept(ctx, match.ID, request.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to reject sibling requests: %w", err)
	}

	// Fix the game seed
	if match.GameSeed == nil {
		seed, err := GenerateGameSeed()
		if err != nil {
			return time.Time{}, err
		}
		assigned, err := uow.MatchRepository().AssignSeed(ctx, match.ID, seed)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to assign game seed: %w", err)
		}
		if !assigned {
			return time.Time{}, fmt.Errorf("game seed of match %d was assigned concurrently", match.ID)
		}
		match.GameSeed = &seed
	}

	// Start the countdown
	match.Status = models.MatchStatusCountdown
	match.CountdownStartedAt = &joinedAt
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return time.Time{}, fmt.Errorf("failed to start countdown: %w", err)
	}

	uow.EventBus().Publish(events.MatchAcceptedEvent{
		MatchID:            match.ID,
		CreatorID:          match.CreatorID,
		OpponentID:         request.RequesterID,
		Stake:              match.Stake,
		CountdownStartedAt: joinedAt.Format(time.RFC3339Nano),
	})
	for _, r := range rejected {
		uow.EventBus().Publish(events.JoinRequestRejectedEvent{
			MatchID:     r.MatchID,
			RequestID:   r.ID,
			RequesterID: r.RequesterID,
		})
	}

	if err := uow.Commit(); err != nil {
		return time.Time{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchId":          match.ID,
		"creatorId":        match.CreatorID,
		"opponentId":       request.RequesterID,
		"stake":            match.Stake.String(),
		"rejectedRequests": len(rejected),
	}).Info("Match accepted and stakes locked")

	return joinedAt, nil
}

// Reject declines a pending request; the match reopens when none are left
func (s *matchService) Reject(ctx context.Context, matchID, creatorID, requestID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	if match.CreatorID != creatorID {
		return ErrNotAuthorized
	}

	request, err := uow.JoinRequestRepository().GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get join request: %w", err)
	}
	if request == nil || request.MatchID != matchID {
		return fmt.Errorf("join request %d: %w", requestID, ErrNotFound)
	}

	switch request.Status {
	case models.JoinRequestRejected:
		return nil
	case models.JoinRequestAccepted:
		return ErrRequestAlreadyProcessed
	}

	if err := uow.JoinRequestRepository().UpdateStatus(ctx, request.ID, models.JoinRequestRejected); err != nil {
		return fmt.Errorf("failed to reject join request: %w", err)
	}

	// Reopen once nothing is pending
	if match.Status == models.MatchStatusPendingAcceptance {
		pending, err := uow.JoinRequestRepository().CountPending(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to count pending requests: %w", err)
		}
		if pending == 0 {
			match.Status = models.MatchStatusWaiting
			if err := uow.MatchRepository().Update(ctx, match); err != nil {
				return fmt.Errorf("failed to reopen match: %w", err)
			}
		}
	}

	uow.EventBus().Publish(events.JoinRequestRejectedEvent{
		MatchID:     matchID,
		RequestID:   request.ID,
		RequesterID: request.RequesterID,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Cancel withdraws a WAITING match once the cooldown has passed. No money moves.
func (s *matchService) Cancel(ctx context.Context, matchID, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	if match.CreatorID != userID {
		return ErrNotAuthorized
	}
	if match.Status != models.MatchStatusWaiting {
		return fmt.Errorf("%w: only a waiting match can be cancelled", ErrInvalidState)
	}

	cancelledAt := utcNow()
	if remaining := CancelCooldownRemaining(match.CreatedAt, cancelledAt, s.config.CancelCooldown); remaining > 0 {
		return &CancelCooldownError{RemainingSeconds: remaining}
	}

	match.Status = models.MatchStatusCancelled
	match.CancelledAt = &cancelledAt
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return fmt.Errorf("failed to cancel match: %w", err)
	}

	uow.EventBus().Publish(events.MatchCancelledEvent{
		MatchID:   match.ID,
		CreatorID: match.CreatorID,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("matchId", matchID).Info("Match cancelled")
	return nil
}

// Start moves a match whose countdown has elapsed to ACTIVE. Calling it on a
// live or finished match is a no-op that returns the current state.
func (s *matchService) Start(ctx context.Context, matchID, userID int64) (*models.Match, error) {
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

	switch match.Status {
	case models.MatchStatusActive, models.MatchStatusCompleted:
		return match, nil
	case models.MatchStatusCountdown:
	default:
		return nil, fmt.Errorf("%w: match is %s", ErrInvalidState, match.Status)
	}

	started, err := startIfDue(ctx, uow, match, s.config.CountdownDuration)
	if err != nil {
		return nil, err
	}
	if !started {
		return nil, ErrCountdownRunning
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return match, nil
}

// Get returns the match with its players and pending requests. Elapsed timers
// are applied first so pollers always see the current state.
func (s *matchService) Get(ctx context.Context, matchID, userID int64) (*models.MatchDetail, error) {
	if _, err := applyTimers(ctx, s.uowFactory, s.config, matchID); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}

	players, err := uow.MatchPlayerRepository().ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match players: %w", err)
	}
	pending, err := uow.JoinRequestRepository().ListByMatch(ctx, matchID, models.JoinRequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to get join requests: %w", err)
	}

	if !canView(match, players, pending, userID) {
		return nil, ErrNotAuthorized
	}

	game, err := uow.GameRepository().GetByID(ctx, match.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return &models.MatchDetail{
		Match:        match,
		Game:         game,
		Players:      players,
		JoinRequests: pending,
	}, nil
}

// GetByShareRef resolves a shareable reference to the lobby view of its match
func (s *matchService) GetByShareRef(ctx context.Context, shareRef string) (*models.MatchSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByShareRef(ctx, shareRef)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("share reference %q: %w", shareRef, ErrNotFound)
	}
	return match.Summary(), nil
}

// ListOpen returns recent joinable matches created by other users
func (s *matchService) ListOpen(ctx context.Context, userID int64, gameID *int64, stake *decimal.Decimal) ([]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListOpen(ctx, models.OpenMatchFilter{
		GameID:       gameID,
		Stake:        stake,
		CreatedAfter: utcNow().Add(-s.config.OpenMatchWindow),
		ExcludeUser:  userID,
		Limit:        defaultOpenMatchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open matches: %w", err)
	}
	return matches, nil
}

// ListForUser returns the matches a user created or played, newest first
func (s *matchService) ListForUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// canView allows the creator, either player and any pending requester
func canView(match *models.Match, players []*models.MatchPlayer, pending []*models.JoinRequest, userID int64) bool {
	if match.CreatorID == userID || models.FindPlayer(players, userID) != nil {
		return true
	}
	for _, r := range pending {
		if r.RequesterID == userID {
			return true
		}
	}
	return false
}

// startIfDue moves a locked COUNTDOWN match to ACTIVE once the countdown has
// elapsed and reports whether it did. The seed assigned at acceptance is
// required and never regenerated here.
func startIfDue(ctx context.Context, uow UnitOfWork, match *models.Match, countdown time.Duration) (bool, error) {
	if match.Status != models.MatchStatusCountdown {
		return false, nil
	}
	if match.GameSeed == nil {
		return false, fmt.Errorf("match %d: %w", match.ID, ErrSeedMissing)
	}

	startedAt := utcNow()
	if !CountdownElapsed(match, startedAt, countdown) {
		return false, nil
	}

	match.Status = models.MatchStatusActive
	match.StartedAt = &startedAt
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return false, fmt.Errorf("failed to start match: %w", err)
	}

	uow.EventBus().Publish(events.MatchStartedEvent{MatchID: match.ID})
	log.WithField("matchId", match.ID).Info("Match started")

	return true, nil
}

// applyTimers applies any elapsed countdown or match timeout to one match and
// reports whether a transition happened. It reads without a lock first and
// only takes the row lock when a transition is due, so redundant polling stays cheap.
func applyTimers(ctx context.Context, uowFactory UnitOfWorkFactory, cfg *config.Config, matchID int64) (bool, error) {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil || !timerDue(match, cfg) {
		return false, nil
	}

	match, err = uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to lock match: %w", err)
	}

	changed := false
	switch match.Status {
	case models.MatchStatusCountdown:
		changed, err = startIfDue(ctx, uow, match, cfg.CountdownDuration)
		if err != nil {
			return false, err
		}
	case models.MatchStatusActive:
		if TimedOut(match, utcNow(), cfg.MatchTimeout) {
			outcome, err := settleByScores(ctx, uow, match, models.SettlementByTimeout)
			if err != nil {
				return false, err
			}
			changed = !outcome.AlreadySettled
		}
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return changed, nil
}

func timerDue(match *models.Match, cfg *config.Config) bool {
	switch match.Status {
	case models.MatchStatusCountdown:
		return CountdownElapsed(match, utcNow(), cfg.CountdownDuration)
	case models.MatchStatusActive:
		return TimedOut(match, utcNow(), cfg.MatchTimeout)
	default:
		return false
	}
}
