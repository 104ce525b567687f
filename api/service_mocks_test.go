package api

import (
	"context"
	"encoding/json"
	"time"

	"stakeduel/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockMatchService struct{ mock.Mock }

func (m *mockMatchService) Create(ctx context.Context, userID, gameID int64, stake decimal.Decimal) (*models.Match, error) {
	args := m.Called(ctx, userID, gameID, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *mockMatchService) RequestJoin(ctx context.Context, matchID, userID int64) (*models.JoinRequest, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinRequest), args.Error(1)
}

func (m *mockMatchService) Accept(ctx context.Context, matchID, creatorID, requestID int64) (time.Time, error) {
	args := m.Called(ctx, matchID, creatorID, requestID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockMatchService) Reject(ctx context.Context, matchID, creatorID, requestID int64) error {
	args := m.Called(ctx, matchID, creatorID, requestID)
	return args.Error(0)
}

func (m *mockMatchService) Cancel(ctx context.Context, matchID, userID int64) error {
	args := m.Called(ctx, matchID, userID)
	return args.Error(0)
}

func (m *mockMatchService) Start(ctx context.Context, matchID, userID int64) (*models.Match, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *mockMatchService) Get(ctx context.Context, matchID, userID int64) (*models.MatchDetail, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchDetail), args.Error(1)
}

func (m *mockMatchService) GetByShareRef(ctx context.Context, shareRef string) (*models.MatchSummary, error) {
	args := m.Called(ctx, shareRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchSummary), args.Error(1)
}

func (m *mockMatchService) ListOpen(ctx context.Context, userID int64, gameID *int64, stake *decimal.Decimal) ([]*models.Match, error) {
	args := m.Called(ctx, userID, gameID, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *mockMatchService) ListForUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

type mockResultService struct{ mock.Mock }

func (m *mockResultService) SubmitResult(ctx context.Context, matchID, userID int64, score int64, gameData json.RawMessage) (*models.MatchOutcome, error) {
	args := m.Called(ctx, matchID, userID, score, gameData)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchOutcome), args.Error(1)
}

type mockPresenceService struct{ mock.Mock }

func (m *mockPresenceService) Heartbeat(ctx context.Context, matchID, userID int64) error {
	args := m.Called(ctx, matchID, userID)
	return args.Error(0)
}

func (m *mockPresenceService) OpponentStatus(ctx context.Context, matchID, userID int64) (*models.OpponentStatus, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OpponentStatus), args.Error(1)
}

func (m *mockPresenceService) Forfeit(ctx context.Context, matchID, userID int64) (*models.MatchOutcome, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchOutcome), args.Error(1)
}

type mockAccountService struct{ mock.Mock }

func (m *mockAccountService) CreateAccount(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

type mockGameService struct{ mock.Mock }

func (m *mockGameService) ListGames(ctx context.Context) ([]*models.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Game), args.Error(1)
}

func (m *mockGameService) AddGame(ctx context.Context, name string, mode models.ResolutionMode) (*models.Game, error) {
	args := m.Called(ctx, name, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}
