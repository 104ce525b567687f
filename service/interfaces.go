package service

import (
	"context"
	"encoding/json"
	"time"

	"stakeduel/events"
	"stakeduel/models"

	"github.com/shopspring/decimal"
)

// BalanceChange is the result of one conditional balance update
type BalanceChange struct {
	AccountID     int64
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// GetByIDForShare retrieves an account and holds a share lock on it, so its
	// balance cannot change until the transaction ends
	GetByIDForShare(ctx context.Context, id int64) (*models.Account, error)

	// GetByUsername retrieves an account by username, returning nil when it does not exist
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// Create creates an account with a zero balance
	Create(ctx context.Context, username string) (*models.Account, error)

	// AddToBalance applies a signed amount in a single conditional statement.
	// It fails with ErrInsufficientFunds when the result would be negative.
	AddToBalance(ctx context.Context, id int64, amount decimal.Decimal) (*BalanceChange, error)

	// ListIDs returns every account id in ascending order
	ListIDs(ctx context.Context) ([]int64, error)
}

// LedgerRepository defines the interface for the append-only ledger
type LedgerRepository interface {
	// Append inserts an entry and fills in its ID and CreatedAt
	Append(ctx context.Context, entry *models.LedgerEntry) error

	// ListByAccount returns the newest entries first
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.LedgerEntry, error)

	// ListChain returns every entry of an account in creation order
	ListChain(ctx context.Context, accountID int64) ([]*models.LedgerEntry, error)

	// ListByMatch returns the entries referencing a match in creation order
	ListByMatch(ctx context.Context, matchID int64) ([]*models.LedgerEntry, error)
}

// GameRepository defines the interface for the game catalog
type GameRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Game, error)
	GetBySlug(ctx context.Context, slug string) (*models.Game, error)
	ListActive(ctx context.Context) ([]*models.Game, error)
	Create(ctx context.Context, game *models.Game) error
}

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match without locking it
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// GetByIDForUpdate retrieves a match and holds its row lock until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Match, error)

	GetByShareRef(ctx context.Context, shareRef string) (*models.Match, error)

	// Update persists the mutable lifecycle fields of a match
	Update(ctx context.Context, match *models.Match) error

	// AssignSeed sets the game seed only if none exists yet and reports whether it did
	AssignSeed(ctx context.Context, id int64, seed string) (bool, error)

	ListOpen(ctx context.Context, filter models.OpenMatchFilter) ([]*models.Match, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error)

	// ListIDsByStatus returns ids of matches in the given status, oldest first
	ListIDsByStatus(ctx context.Context, status models.MatchStatus, limit int) ([]int64, error)
}

// MatchPlayerRepository defines the interface for match participants
type MatchPlayerRepository interface {
	Create(ctx context.Context, player *models.MatchPlayer) error
	ListByMatch(ctx context.Context, matchID int64) ([]*models.MatchPlayer, error)
	Get(ctx context.Context, matchID, userID int64) (*models.MatchPlayer, error)

	// TouchHeartbeat records liveness and reports whether the player row exists
	TouchHeartbeat(ctx context.Context, matchID, userID int64, at time.Time) (bool, error)

	MarkLeft(ctx context.Context, matchID, userID int64, at time.Time) error
	RecordResult(ctx context.Context, matchID, userID int64, score int64, data json.RawMessage, at time.Time) error

	// DefaultMissingScores sets a zero score for every player without one
	DefaultMissingScores(ctx context.Context, matchID int64) error
}

// JoinRequestRepository defines the interface for join requests
type JoinRequestRepository interface {
	Create(ctx context.Context, request *models.JoinRequest) error
	GetByID(ctx context.Context, id int64) (*models.JoinRequest, error)
	GetPending(ctx context.Context, matchID, requesterID int64) (*models.JoinRequest, error)
	ListByMatch(ctx context.Context, matchID int64, status models.JoinRequestStatus) ([]*models.JoinRequest, error)
	UpdateStatus(ctx context.Context, id int64, status models.JoinRequestStatus) error

	// RejectPendingExcept rejects every other pending request of the match and returns them
	RejectPendingExcept(ctx context.Context, matchID, keepID int64) ([]*models.JoinRequest, error)

	CountPending(ctx context.Context, matchID int64) (int, error)
}

// RevenueRepository defines the interface for platform revenue
type RevenueRepository interface {
	Record(ctx context.Context, revenue *models.PlatformRevenue) error
	GetByMatch(ctx context.Context, matchID int64) (*models.PlatformRevenue, error)
	Summary(ctx context.Context) (*models.RevenueSummary, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork spans one database transaction and the events raised inside it
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() AccountRepository
	LedgerRepository() LedgerRepository
	GameRepository() GameRepository
	MatchRepository() MatchRepository
	MatchPlayerRepository() MatchPlayerRepository
	JoinRequestRepository() JoinRequestRepository
	RevenueRepository() RevenueRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates new units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// MatchService drives a match from creation to the start of live play
type MatchService interface {
	// Create opens a match; no money moves
	Create(ctx context.Context, userID, gameID int64, stake decimal.Decimal) (*models.Match, error)

	// RequestJoin asks for the open seat; repeated calls return the same pending request
	RequestJoin(ctx context.Context, matchID, userID int64) (*models.JoinRequest, error)

	// Accept locks both stakes and starts the countdown; it returns the countdown start time
	Accept(ctx context.Context, matchID, creatorID, requestID int64) (time.Time, error)

	// Reject declines a join request
	Reject(ctx context.Context, matchID, creatorID, requestID int64) error

	// Cancel withdraws an open match after the cooldown
	Cancel(ctx context.Context, matchID, userID int64) error

	// Start moves an elapsed countdown to live play
	Start(ctx context.Context, matchID, userID int64) (*models.Match, error)

	// Get returns the full match state for a creator, player or pending requester
	Get(ctx context.Context, matchID, userID int64) (*models.MatchDetail, error)

	GetByShareRef(ctx context.Context, shareRef string) (*models.MatchSummary, error)
	ListOpen(ctx context.Context, userID int64, gameID *int64, stake *decimal.Decimal) ([]*models.Match, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error)
}

// ResultService is the contract through which games report scores
type ResultService interface {
	SubmitResult(ctx context.Context, matchID, userID int64, score int64, gameData json.RawMessage) (*models.MatchOutcome, error)
}

// PresenceService tracks participant liveness and routes abandonment into settlement
type PresenceService interface {
	Heartbeat(ctx context.Context, matchID, userID int64) error
	OpponentStatus(ctx context.Context, matchID, userID int64) (*models.OpponentStatus, error)
	Forfeit(ctx context.Context, matchID, userID int64) (*models.MatchOutcome, error)
}

// SweepService proactively applies timers that are otherwise evaluated on request
type SweepService interface {
	AdvanceCountdowns(ctx context.Context) (int, error)
	SettleStaleMatches(ctx context.Context) (int, error)
}

// AccountService exposes balances and ledger history to their owners
type AccountService interface {
	CreateAccount(ctx context.Context, username string) (*models.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
	ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]*models.LedgerEntry, error)
}

// AdminService holds operator-only money operations and reports
type AdminService interface {
	TopUp(ctx context.Context, accountID int64, amount decimal.Decimal, note string) (*models.LedgerEntry, error)
	RevenueSummary(ctx context.Context) (*models.RevenueSummary, error)
	AuditAccount(ctx context.Context, accountID int64) (*models.LedgerAudit, error)
	AuditAll(ctx context.Context) ([]*models.LedgerAudit, error)
}

// GameService manages the game catalog
type GameService interface {
	ListGames(ctx context.Context) ([]*models.Game, error)
	AddGame(ctx context.Context, name string, mode models.ResolutionMode) (*models.Game, error)
}
