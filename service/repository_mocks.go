package service

import (
	"context"
	"encoding/json"
	"time"

	"stakeduel/events"
	"stakeduel/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDForShare(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddToBalance(ctx context.Context, id int64, amount decimal.Decimal) (*BalanceChange, error) {
	args := m.Called(ctx, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BalanceChange), args.Error(1)
}

func (m *MockAccountRepository) ListIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListChain(ctx context.Context, accountID int64) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListByMatch(ctx context.Context, matchID int64) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameRepository) GetBySlug(ctx context.Context, slug string) (*models.Game, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameRepository) ListActive(ctx context.Context) ([]*models.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Game), args.Error(1)
}

func (m *MockGameRepository) Create(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByShareRef(ctx context.Context, shareRef string) (*models.Match, error) {
	args := m.Called(ctx, shareRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) Update(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) AssignSeed(ctx context.Context, id int64, seed string) (bool, error) {
	args := m.Called(ctx, id, seed)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) ListOpen(ctx context.Context, filter models.OpenMatchFilter) ([]*models.Match, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListIDsByStatus(ctx context.Context, status models.MatchStatus, limit int) ([]int64, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockMatchPlayerRepository is a mock implementation of MatchPlayerRepository
type MockMatchPlayerRepository struct {
	mock.Mock
}

func (m *MockMatchPlayerRepository) Create(ctx context.Context, player *models.MatchPlayer) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockMatchPlayerRepository) ListByMatch(ctx context.Context, matchID int64) ([]*models.MatchPlayer, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MatchPlayer), args.Error(1)
}

func (m *MockMatchPlayerRepository) Get(ctx context.Context, matchID, userID int64) (*models.MatchPlayer, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchPlayer), args.Error(1)
}

func (m *MockMatchPlayerRepository) TouchHeartbeat(ctx context.Context, matchID, userID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, matchID, userID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchPlayerRepository) MarkLeft(ctx context.Context, matchID, userID int64, at time.Time) error {
	args := m.Called(ctx, matchID, userID, at)
	return args.Error(0)
}

func (m *MockMatchPlayerRepository) RecordResult(ctx context.Context, matchID, userID int64, score int64, data json.RawMessage, at time.Time) error {
	args := m.Called(ctx, matchID, userID, score, data, at)
	return args.Error(0)
}

func (m *MockMatchPlayerRepository) DefaultMissingScores(ctx context.Context, matchID int64) error {
	args := m.Called(ctx, matchID)
	return args.Error(0)
}

// MockJoinRequestRepository is a mock implementation of JoinRequestRepository
type MockJoinRequestRepository struct {
	mock.Mock
}

func (m *MockJoinRequestRepository) Create(ctx context.Context, request *models.JoinRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockJoinRequestRepository) GetByID(ctx context.Context, id int64) (*models.JoinRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinRequest), args.Error(1)
}

func (m *MockJoinRequestRepository) GetPending(ctx context.Context, matchID, requesterID int64) (*models.JoinRequest, error) {
	args := m.Called(ctx, matchID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinRequest), args.Error(1)
}

func (m *MockJoinRequestRepository) ListByMatch(ctx context.Context, matchID int64, status models.JoinRequestStatus) ([]*models.JoinRequest, error) {
	args := m.Called(ctx, matchID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.JoinRequest), args.Error(1)
}

func (m *MockJoinRequestRepository) UpdateStatus(ctx context.Context, id int64, status models.JoinRequestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockJoinRequestRepository) RejectPendingExcept(ctx context.Context, matchID, keepID int64) ([]*models.JoinRequest, error) {
	args := m.Called(ctx, matchID, keepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.JoinRequest), args.Error(1)
}

func (m *MockJoinRequestRepository) CountPending(ctx context.Context, matchID int64) (int, error) {
	args := m.Called(ctx, matchID)
	return args.Int(0), args.Error(1)
}

// MockRevenueRepository is a mock implementation of RevenueRepository
type MockRevenueRepository struct {
	mock.Mock
}

func (m *MockRevenueRepository) Record(ctx context.Context, revenue *models.PlatformRevenue) error {
	args := m.Called(ctx, revenue)
	return args.Error(0)
}

func (m *MockRevenueRepository) GetByMatch(ctx context.Context, matchID int64) (*models.PlatformRevenue, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformRevenue), args.Error(1)
}

func (m *MockRevenueRepository) Summary(ctx context.Context) (*models.RevenueSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RevenueSummary), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork records transaction calls and hands out the repositories
// configured on it. Unset repositories are returned as nil interfaces.
type MockUnitOfWork struct {
	mock.Mock
	accountRepo     AccountRepository
	ledgerRepo      LedgerRepository
	gameRepo        GameRepository
	matchRepo       MatchRepository
	matchPlayerRepo MatchPlayerRepository
	joinRequestRepo JoinRequestRepository
	revenueRepo     RevenueRepository
	eventBus        EventPublisher
}

// SetRepositories configures the ledger-side repositories
func (m *MockUnitOfWork) SetRepositories(accounts AccountRepository, ledger LedgerRepository, eventBus EventPublisher) {
	m.accountRepo = accounts
	m.ledgerRepo = ledger
	m.eventBus = eventBus
}

// SetMatchRepositories configures the match-side repositories
func (m *MockUnitOfWork) SetMatchRepositories(games GameRepository, matches MatchRepository, players MatchPlayerRepository, requests JoinRequestRepository) {
	m.gameRepo = games
	m.matchRepo = matches
	m.matchPlayerRepo = players
	m.joinRequestRepo = requests
}

func (m *MockUnitOfWork) SetRevenueRepository(revenue RevenueRepository) {
	m.revenueRepo = revenue
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository         { return m.accountRepo }
func (m *MockUnitOfWork) LedgerRepository() LedgerRepository           { return m.ledgerRepo }
func (m *MockUnitOfWork) GameRepository() GameRepository               { return m.gameRepo }
func (m *MockUnitOfWork) MatchRepository() MatchRepository             { return m.matchRepo }
func (m *MockUnitOfWork) MatchPlayerRepository() MatchPlayerRepository { return m.matchPlayerRepo }
func (m *MockUnitOfWork) JoinRequestRepository() JoinRequestRepository { return m.joinRequestRepo }
func (m *MockUnitOfWork) RevenueRepository() RevenueRepository         { return m.revenueRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher                     { return m.eventBus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
