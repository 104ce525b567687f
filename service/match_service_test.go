package service

import (
	"context"
	"testing"
	"time"

	"stakeduel/config"
	"stakeduel/events"
	"stakeduel/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type matchMocks struct {
	factory  *MockUnitOfWorkFactory
	uow      *MockUnitOfWork
	accounts *MockAccountRepository
	ledger   *MockLedgerRepository
	games    *MockGameRepository
	matches  *MockMatchRepository
	players  *MockMatchPlayerRepository
	requests *MockJoinRequestRepository
	revenue  *MockRevenueRepository
	events   *MockEventPublisher
}

func newMatchMocks() *matchMocks {
	m := &matchMocks{
		factory:  new(MockUnitOfWorkFactory),
		uow:      new(MockUnitOfWork),
		accounts: new(MockAccountRepository),
		ledger:   new(MockLedgerRepository),
		games:    new(MockGameRepository),
		matches:  new(MockMatchRepository),
		players:  new(MockMatchPlayerRepository),
		requests: new(MockJoinRequestRepository),
		revenue:  new(MockRevenueRepository),
		events:   new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.accounts, m.ledger, m.events)
	m.uow.SetMatchRepositories(m.games, m.matches, m.players, m.requests)
	m.uow.SetRevenueRepository(m.revenue)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func (m *matchMocks) expectCommit() {
	m.uow.On("Commit").Return(nil)
}

func (m *matchMocks) assertExpectations(t *testing.T) {
	assertAllMockExpectations(t, m.factory, m.uow, m.accounts, m.ledger, m.games, m.matches, m.players, m.requests, m.revenue, m.events)
}

func assertAllMockExpectations(t *testing.T, mocks ...interface{}) {
	for _, m := range mocks {
		if mockObj, ok := m.(interface{ AssertExpectations(mock.TestingT) bool }); ok {
			mockObj.AssertExpectations(t)
		}
	}
}

func testMatch(status models.MatchStatus) *models.Match {
	return &models.Match{
		ID:          10,
		GameID:      1,
		CreatorID:   100,
		ShareRef:    "ABCDEF1234",
		Stake:       d("10"),
		PlatformFee: d("1"),
		Status:      status,
		CreatedAt:   time.Now().UTC().Add(-2 * time.Minute),
	}
}

func TestMatchService_Create(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()

	t.Run("opens a waiting match with the fee fixed up front", func(t *testing.T) {
		m := newMatchMocks()
		m.expectCommit()
		svc := NewMatchService(m.factory, cfg)

		m.games.On("GetByID", ctx, int64(1)).Return(&models.Game{ID: 1, IsActive: true}, nil)
		m.accounts.On("GetByID", ctx, int64(100)).Return(&models.Account{ID: 100, Balance: d("50")}, nil)
		m.matches.On("Create", ctx, mock.MatchedBy(func(match *models.Match) bool {
			return match.Status == models.MatchStatusWaiting &&
				match.PlatformFee.Equal(d("1")) &&
				len(match.ShareRef) == 10 &&
				match.GameSeed == nil
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Match).ID = 10
		}).Return(nil)
		m.events.On("Publish", mock.AnythingOfType("events.MatchCreatedEvent")).Return()

		match, err := svc.Create(ctx, 100, 1, d("10"))
		require.NoError(t, err)
		assert.Equal(t, int64(10), match.ID)
		m.accounts.AssertNotCalled(t, "AddToBalance", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)

		m.games.On("GetByID", ctx, int64(1)).Return(&models.Game{ID: 1, IsActive: true}, nil)
		m.accounts.On("GetByID", ctx, int64(100)).Return(&models.Account{ID: 100, Balance: d("9.99")}, nil)

		_, err := svc.Create(ctx, 100, 1, d("10"))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		m.matches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("inactive game", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)

		m.games.On("GetByID", ctx, int64(1)).Return(&models.Game{ID: 1, IsActive: false}, nil)

		_, err := svc.Create(ctx, 100, 1, d("10"))
		assert.ErrorIs(t, err, ErrGameUnavailable)
	})

	t.Run("invalid stake never opens a transaction", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)

		_, err := svc.Create(ctx, 100, 1, d("-1"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
		m.factory.AssertNotCalled(t, "Create")
	})
}

func TestMatchService_RequestJoin(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()

	t.Run("repeat request returns the pending one", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)

		existing := &models.JoinRequest{ID: 5, MatchID: 10, RequesterID: 200, Status: models.JoinRequestPending}
		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusPendingAcceptance), nil)
		m.requests.On("GetPending", ctx, int64(10), int64(200)).Return(existing, nil)

		request, err := svc.RequestJoin(ctx, 10, 200)
		require.NoError(t, err)
		assert.Equal(t, existing, request)
		m.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("first request moves match to pending acceptance", func(t *testing.T) {
		m := newMatchMocks()
		m.expectCommit()
		svc := NewMatchService(m.factory, cfg)

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusWaiting), nil)
		m.requests.On("GetPending", ctx, int64(10), int64(200)).Return(nil, nil)
		m.accounts.On("GetByID", ctx, int64(200)).Return(&models.Account{ID: 200, Balance: d("10")}, nil)
		m.requests.On("Create", ctx, mock.AnythingOfType("*models.JoinRequest")).Return(nil)
		m.matches.On("Update", ctx, mock.MatchedBy(func(match *models.Match) bool {
			return match.Status == models.MatchStatusPendingAcceptance
		})).Return(nil)
		m.events.On("Publish", mock.AnythingOfType("events.JoinRequestedEvent")).Return()

		_, err := svc.RequestJoin(ctx, 10, 200)
		require.NoError(t, err)
		m.assertExpectations(t)
	})

	t.Run("own match", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)
		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusWaiting), nil)

		_, err := svc.RequestJoin(ctx, 10, 100)
		assert.ErrorIs(t, err, ErrOwnMatch)
	})

	t.Run("match already underway", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)
		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusCountdown), nil)

		_, err := svc.RequestJoin(ctx, 10, 200)
		assert.ErrorIs(t, err, ErrMatchNotAvailable)
	})
}

func TestMatchService_Accept(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()

	t.Run("already accepted returns stored countdown without moving money", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)

		match := testMatch(models.MatchStatusCountdown)
		countdown := time.Now().UTC().Add(-3 * time.Second)
		match.CountdownStartedAt = &countdown

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(match, nil)
		m.requests.On("GetByID", ctx, int64(5)).
			Return(&models.JoinRequest{ID: 5, MatchID: 10, RequesterID: 200, Status: models.JoinRequestAccepted}, nil)

		start, err := svc.Accept(ctx, 10, 100, 5)
		require.NoError(t, err)
		assert.Equal(t, countdown, start)
		m.accounts.AssertNotCalled(t, "AddToBalance", mock.Anything, mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("rejected request", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusPendingAcceptance), nil)
		m.requests.On("GetByID", ctx, int64(5)).
			Return(&models.JoinRequest{ID: 5, MatchID: 10, RequesterID: 200, Status: models.JoinRequestRejected}, nil)

		_, err := svc.Accept(ctx, 10, 100, 5)
		assert.ErrorIs(t, err, ErrRequestAlreadyProcessed)
	})

	t.Run("only the creator may accept", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)
		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusPendingAcceptance), nil)

		_, err := svc.Accept(ctx, 10, 200, 5)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("locks stakes in account order and assigns the seed", func(t *testing.T) {
		m := newMatchMocks()
		m.expectCommit()
		svc := NewMatchService(m.factory, cfg)

		match := testMatch(models.MatchStatusPendingAcceptance)
		match.CreatorID = 300
		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(match, nil)
		m.requests.On("GetByID", ctx, int64(5)).
			Return(&models.JoinRequest{ID: 5, MatchID: 10, RequesterID: 200, Status: models.JoinRequestPending}, nil)

		var debited []int64
		m.accounts.On("AddToBalance", ctx, mock.Anything, d("-10")).
			Run(func(args mock.Arguments) { debited = append(debited, args.Get(1).(int64)) }).
			Return(&BalanceChange{BalanceBefore: d("50"), BalanceAfter: d("40")}, nil)
		m.ledger.On("Append", ctx, mock.Anything).Return(nil)
		m.players.On("Create", ctx, mock.Anything).Return(nil).Twice()
		m.requests.On("UpdateStatus", ctx, int64(5), models.JoinRequestAccepted).Return(nil)
		m.requests.On("RejectPendingExcept", ctx, int64(10), int64(5)).
			Return([]*models.JoinRequest{{ID: 6, MatchID: 10, RequesterID: 400}}, nil)
		m.matches.On("AssignSeed", ctx, int64(10), mock.AnythingOfType("string")).Return(true, nil)
		m.matches.On("Update", ctx, mock.MatchedBy(func(match *models.Match) bool {
			return match.Status == models.MatchStatusCountdown && match.CountdownStartedAt != nil && match.GameSeed != nil
		})).Return(nil)
		m.events.On("Publish", mock.Anything).Return()

		_, err := svc.Accept(ctx, 10, 300, 5)
		require.NoError(t, err)
		assert.Equal(t, []int64{200, 300}, debited)
		m.events.AssertCalled(t, "Publish", events.JoinRequestRejectedEvent{MatchID: 10, RequestID: 6, RequesterID: 400})
		m.assertExpectations(t)
	})
}

func TestMatchService_Reject(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()

	t.Run("rejecting twice is a no-op", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusWaiting), nil)
		m.requests.On("GetByID", ctx, int64(5)).
			Return(&models.JoinRequest{ID: 5, MatchID: 10, RequesterID: 200, Status: models.JoinRequestRejected}, nil)

		assert.NoError(t, svc.Reject(ctx, 10, 100, 5))
		m.requests.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("last pending request reopens the match", func(t *testing.T) {
		m := newMatchMocks()
		m.expectCommit()
		svc := NewMatchService(m.factory, cfg)

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusPendingAcceptance), nil)
		m.requests.On("GetByID", ctx, int64(5)).
			Return(&models.JoinRequest{ID: 5, MatchID: 10, RequesterID: 200, Status: models.JoinRequestPending}, nil)
		m.requests.On("UpdateStatus", ctx, int64(5), models.JoinRequestRejected).Return(nil)
		m.requests.On("CountPending", ctx, int64(10)).Return(0, nil)
		m.matches.On("Update", ctx, mock.MatchedBy(func(match *models.Match) bool {
			return match.Status == models.MatchStatusWaiting
		})).Return(nil)
		m.events.On("Publish", mock.AnythingOfType("events.JoinRequestRejectedEvent")).Return()

		require.NoError(t, svc.Reject(ctx, 10, 100, 5))
		m.assertExpectations(t)
	})
}

func TestMatchService_Cancel(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()

	t.Run("within cooldown reports remaining seconds", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)

		match := testMatch(models.MatchStatusWaiting)
		match.CreatedAt = time.Now().UTC().Add(-20 * time.Second)
		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(match, nil)

		err := svc.Cancel(ctx, 10, 100)
		var cooldown *CancelCooldownError
		require.ErrorAs(t, err, &cooldown)
		assert.InDelta(t, 40, cooldown.RemainingSeconds, 1)
		assert.Contains(t, err.Error(), "before cancelling")
	})

	t.Run("after cooldown", func(t *testing.T) {
		m := newMatchMocks()
		m.expectCommit()
		svc := NewMatchService(m.factory, cfg)

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusWaiting), nil)
		m.matches.On("Update", ctx, mock.MatchedBy(func(match *models.Match) bool {
			return match.Status == models.MatchStatusCancelled && match.CancelledAt != nil
		})).Return(nil)
		m.events.On("Publish", events.MatchCancelledEvent{MatchID: 10, CreatorID: 100}).Return()

		require.NoError(t, svc.Cancel(ctx, 10, 100))
		m.accounts.AssertNotCalled(t, "AddToBalance", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("pending acceptance cannot be cancelled", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)
		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusPendingAcceptance), nil)

		assert.ErrorIs(t, svc.Cancel(ctx, 10, 100), ErrInvalidState)
	})

	t.Run("not the creator", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)
		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusWaiting), nil)

		assert.ErrorIs(t, svc.Cancel(ctx, 10, 200), ErrNotAuthorized)
	})
}

func TestMatchService_GetByShareRef(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()

	t.Run("returns the lobby view", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)

		seed := "0f3a9c1e"
		match := testMatch(models.MatchStatusCountdown)
		match.GameSeed = &seed
		m.matches.On("GetByShareRef", ctx, "ABCDEF1234").Return(match, nil)

		summary, err := svc.GetByShareRef(ctx, "ABCDEF1234")
		require.NoError(t, err)
		assert.Equal(t, int64(10), summary.ID)
		assert.Equal(t, int64(100), summary.CreatorID)
		assert.Equal(t, models.MatchStatusCountdown, summary.Status)
		assert.True(t, summary.Stake.Equal(d("10")))
	})

	t.Run("unknown reference", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewMatchService(m.factory, cfg)
		m.matches.On("GetByShareRef", ctx, "NOPE").Return(nil, nil)

		_, err := svc.GetByShareRef(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestResultService_SubmitResult(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()

	t.Run("settled match returns stored outcome", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewResultService(m.factory, cfg)

		winner := int64(100)
		match := testMatch(models.MatchStatusCompleted)
		match.WinnerID = &winner
		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(match, nil)
		m.players.On("Get", ctx, int64(10), int64(200)).Return(&models.MatchPlayer{MatchID: 10, UserID: 200}, nil)

		outcome, err := svc.SubmitResult(ctx, 10, 200, 55, nil)
		require.NoError(t, err)
		assert.True(t, outcome.AlreadySettled)
		assert.Equal(t, winner, *outcome.WinnerID)
		m.players.AssertNotCalled(t, "RecordResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non participant", func(t *testing.T) {
		m := newMatchMocks()
		svc := NewResultService(m.factory, cfg)

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(testMatch(models.MatchStatusActive), nil)
		m.players.On("Get", ctx, int64(10), int64(999)).Return(nil, nil)

		_, err := svc.SubmitResult(ctx, 10, 999, 1, nil)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("invalid payloads", func(t *testing.T) {
		svc := NewResultService(new(MockUnitOfWorkFactory), cfg)

		_, err := svc.SubmitResult(ctx, 10, 200, -1, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.SubmitResult(ctx, 10, 200, 1, []byte(`{not json`))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	// The opponent's last heartbeat is 40s old, past the 30s abandonment threshold
	silentOpponent := func(mode models.ResolutionMode, score int64) *matchMocks {
		m := newMatchMocks()
		m.expectCommit()

		match := testMatch(models.MatchStatusActive)
		startedAt := time.Now().UTC().Add(-2 * time.Minute)
		match.StartedAt = &startedAt
		lastBeat := time.Now().UTC().Add(-40 * time.Second)
		submittedAt := time.Now().UTC()

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(match, nil)
		m.players.On("Get", ctx, int64(10), int64(200)).Return(&models.MatchPlayer{MatchID: 10, UserID: 200}, nil)
		m.players.On("RecordResult", ctx, int64(10), int64(200), score, mock.Anything, mock.Anything).Return(nil)
		m.players.On("ListByMatch", ctx, int64(10)).Return([]*models.MatchPlayer{
			{MatchID: 10, UserID: 100, LastHeartbeatAt: &lastBeat},
			{MatchID: 10, UserID: 200, Score: &score, SubmittedAt: &submittedAt},
		}, nil)
		m.games.On("GetByID", ctx, int64(1)).Return(&models.Game{ID: 1, ResolutionMode: mode}, nil).Maybe()
		m.accounts.On("AddToBalance", ctx, int64(200), d("19")).
			Return(&BalanceChange{BalanceBefore: d("90"), BalanceAfter: d("109")}, nil)
		m.ledger.On("Append", ctx, mock.Anything).Return(nil)
		m.revenue.On("Record", ctx, mock.Anything).Return(nil)
		m.matches.On("Update", ctx, mock.MatchedBy(func(match *models.Match) bool {
			return match.Status == models.MatchStatusCompleted && match.WinnerID != nil && *match.WinnerID == 200
		})).Return(nil)
		m.events.On("Publish", mock.Anything).Return()
		return m
	}

	t.Run("best score result against an abandoned opponent wins", func(t *testing.T) {
		m := silentOpponent(models.ResolutionBestScore, 50)
		svc := NewResultService(m.factory, cfg)

		outcome, err := svc.SubmitResult(ctx, 10, 200, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCompleted, outcome.Status)
		require.NotNil(t, outcome.WinnerID)
		assert.Equal(t, int64(200), *outcome.WinnerID)
		assert.Equal(t, models.SettlementByAbandonment, outcome.Reason)
		m.assertExpectations(t)
	})

	t.Run("zero first finish result against an abandoned opponent wins", func(t *testing.T) {
		m := silentOpponent(models.ResolutionFirstFinish, 0)
		svc := NewResultService(m.factory, cfg)

		outcome, err := svc.SubmitResult(ctx, 10, 200, 0, nil)
		require.NoError(t, err)
		assert.False(t, outcome.Tie)
		require.NotNil(t, outcome.WinnerID)
		assert.Equal(t, int64(200), *outcome.WinnerID)
		assert.Equal(t, models.SettlementByAbandonment, outcome.Reason)
		m.players.AssertNotCalled(t, "DefaultMissingScores", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("opponent waiting on a submitted score is not abandoned", func(t *testing.T) {
		m := newMatchMocks()
		m.expectCommit()
		svc := NewResultService(m.factory, cfg)

		match := testMatch(models.MatchStatusActive)
		startedAt := time.Now().UTC().Add(-2 * time.Minute)
		match.StartedAt = &startedAt
		opponentScore, score := int64(900), int64(50)
		opponentAt := time.Now().UTC().Add(-time.Minute)
		submittedAt := time.Now().UTC()

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(match, nil)
		m.players.On("Get", ctx, int64(10), int64(200)).Return(&models.MatchPlayer{MatchID: 10, UserID: 200}, nil)
		m.players.On("RecordResult", ctx, int64(10), int64(200), score, mock.Anything, mock.Anything).Return(nil)
		m.players.On("ListByMatch", ctx, int64(10)).Return([]*models.MatchPlayer{
			{MatchID: 10, UserID: 100, Score: &opponentScore, SubmittedAt: &opponentAt},
			{MatchID: 10, UserID: 200, Score: &score, SubmittedAt: &submittedAt},
		}, nil)
		m.games.On("GetByID", ctx, int64(1)).Return(&models.Game{ID: 1, ResolutionMode: models.ResolutionBestScore}, nil)
		m.accounts.On("AddToBalance", ctx, int64(100), d("19")).
			Return(&BalanceChange{BalanceBefore: d("90"), BalanceAfter: d("109")}, nil)
		m.ledger.On("Append", ctx, mock.Anything).Return(nil)
		m.revenue.On("Record", ctx, mock.Anything).Return(nil)
		m.matches.On("Update", ctx, mock.Anything).Return(nil)
		m.events.On("Publish", mock.Anything).Return()

		outcome, err := svc.SubmitResult(ctx, 10, 200, score, nil)
		require.NoError(t, err)
		require.NotNil(t, outcome.WinnerID)
		assert.Equal(t, int64(100), *outcome.WinnerID)
		assert.Equal(t, models.SettlementByScore, outcome.Reason)
		m.assertExpectations(t)
	})

	t.Run("result after the match timeout settles without being stored", func(t *testing.T) {
		m := newMatchMocks()
		m.expectCommit()
		svc := NewResultService(m.factory, cfg)

		match := testMatch(models.MatchStatusActive)
		startedAt := time.Now().UTC().Add(-cfg.MatchTimeout - time.Minute)
		match.StartedAt = &startedAt
		zero := int64(0)

		m.matches.On("GetByIDForUpdate", ctx, int64(10)).Return(match, nil)
		m.players.On("Get", ctx, int64(10), int64(200)).Return(&models.MatchPlayer{MatchID: 10, UserID: 200}, nil)
		m.players.On("DefaultMissingScores", ctx, int64(10)).Return(nil)
		m.players.On("ListByMatch", ctx, int64(10)).Return([]*models.MatchPlayer{
			{MatchID: 10, UserID: 100, Score: &zero},
			{MatchID: 10, UserID: 200, Score: &zero},
		}, nil)
		m.accounts.On("AddToBalance", ctx, mock.Anything, d("10")).
			Return(&BalanceChange{BalanceBefore: d("90"), BalanceAfter: d("100")}, nil).Twice()
		m.ledger.On("Append", ctx, mock.Anything).Return(nil)
		m.matches.On("Update", ctx, mock.Anything).Return(nil)
		m.events.On("Publish", mock.Anything).Return()

		outcome, err := svc.SubmitResult(ctx, 10, 200, 500, nil)
		require.NoError(t, err)
		assert.True(t, outcome.Tie)
		assert.Equal(t, models.SettlementByTimeout, outcome.Reason)
		m.players.AssertNotCalled(t, "RecordResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})
}
