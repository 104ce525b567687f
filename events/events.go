package events

import (
	"context"
	"sync"

	"stakeduel/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChanged      EventType = "balance_changed"
	EventTypeMatchCreated        EventType = "match_created"
	EventTypeJoinRequested       EventType = "join_requested"
	EventTypeJoinRequestRejected EventType = "join_request_rejected"
	EventTypeMatchAccepted       EventType = "match_accepted"
	EventTypeMatchStarted        EventType = "match_started"
	EventTypeMatchCompleted      EventType = "match_completed"
	EventTypeMatchCancelled      EventType = "match_cancelled"
)

// AllEventTypes lists every event type the engine emits
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeBalanceChanged,
		EventTypeMatchCreated,
		EventTypeJoinRequested,
		EventTypeJoinRequestRejected,
		EventTypeMatchAccepted,
		EventTypeMatchStarted,
		EventTypeMatchCompleted,
		EventTypeMatchCancelled,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangedEvent is emitted for every committed ledger entry
type BalanceChangedEvent struct {
	AccountID     int64                 `json:"accountId"`
	EntryID       int64                 `json:"entryId"`
	Amount        decimal.Decimal       `json:"amount"`
	BalanceBefore decimal.Decimal       `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal       `json:"balanceAfter"`
	Category      models.LedgerCategory `json:"category"`
	MatchID       *int64                `json:"matchId,omitempty"`
}

func (e BalanceChangedEvent) Type() EventType {
	return EventTypeBalanceChanged
}

// MatchCreatedEvent announces a new open match
type MatchCreatedEvent struct {
	MatchID   int64           `json:"matchId"`
	GameID    int64           `json:"gameId"`
	CreatorID int64           `json:"creatorId"`
	Stake     decimal.Decimal `json:"stake"`
	ShareRef  string          `json:"shareRef"`
}

func (e MatchCreatedEvent) Type() EventType {
	return EventTypeMatchCreated
}

// JoinRequestedEvent tells a creator that someone wants their open seat
type JoinRequestedEvent struct {
	MatchID     int64 `json:"matchId"`
	RequestID   int64 `json:"requestId"`
	CreatorID   int64 `json:"creatorId"`
	RequesterID int64 `json:"requesterId"`
}

func (e JoinRequestedEvent) Type() EventType {
	return EventTypeJoinRequested
}

// JoinRequestRejectedEvent tells a requester their request was declined
type JoinRequestRejectedEvent struct {
	MatchID     int64 `json:"matchId"`
	RequestID   int64 `json:"requestId"`
	RequesterID int64 `json:"requesterId"`
}

func (e JoinRequestRejectedEvent) Type() EventType {
	return EventTypeJoinRequestRejected
}

// MatchAcceptedEvent marks the stake lock and the start of the countdown
type MatchAcceptedEvent struct {
	MatchID            int64           `json:"matchId"`
	CreatorID          int64           `json:"creatorId"`
	OpponentID         int64           `json:"opponentId"`
	Stake              decimal.Decimal `json:"stake"`
	CountdownStartedAt string          `json:"countdownStartedAt"`
}

func (e MatchAcceptedEvent) Type() EventType {
	return EventTypeMatchAccepted
}

// MatchStartedEvent marks the transition to live play
type MatchStartedEvent struct {
	MatchID int64 `json:"matchId"`
}

func (e MatchStartedEvent) Type() EventType {
	return EventTypeMatchStarted
}

// MatchCompletedEvent is emitted exactly once per settled match
type MatchCompletedEvent struct {
	MatchID  int64                   `json:"matchId"`
	WinnerID *int64                  `json:"winnerId,omitempty"`
	Tie      bool                    `json:"tie"`
	Payout   decimal.Decimal         `json:"payout"`
	Fee      decimal.Decimal         `json:"fee"`
	Reason   models.SettlementReason `json:"reason"`
}

func (e MatchCompletedEvent) Type() EventType {
	return EventTypeMatchCompleted
}

// MatchCancelledEvent announces a creator withdrawing an open match
type MatchCancelledEvent struct {
	MatchID   int64 `json:"matchId"`
	CreatorID int64 `json:"creatorId"`
}

func (e MatchCancelledEvent) Type() EventType {
	return EventTypeMatchCancelled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes() {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until its
// transaction commits, then hands them to the real bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing committed events")

	// Handlers outlive the request, so they get a detached context
	eventCtx := context.WithoutCancel(ctx)
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of events waiting for commit
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
