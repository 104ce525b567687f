package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"stakeduel/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBus_FlushDeliversToMainBus(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan BalanceChangedEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChanged, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangedEvent); ok {
			received <- balanceEvent
		}
	})

	matchID := int64(7)
	testEvent := BalanceChangedEvent{
		AccountID:     42,
		EntryID:       1,
		Amount:        decimal.NewFromInt(-10),
		BalanceBefore: decimal.NewFromInt(100),
		BalanceAfter:  decimal.NewFromInt(90),
		Category:      models.LedgerCategoryStakeLock,
		MatchID:       &matchID,
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	transactionalBus.Flush(context.Background())
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case got := <-received:
		assert.Equal(t, testEvent.AccountID, got.AccountID)
		assert.True(t, testEvent.BalanceAfter.Equal(got.BalanceAfter))
		assert.Equal(t, models.LedgerCategoryStakeLock, got.Category)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan struct{}, 1)
	mainBus.Subscribe(EventTypeMatchCompleted, func(ctx context.Context, event Event) {
		received <- struct{}{}
	})

	transactionalBus.Publish(MatchCompletedEvent{MatchID: 1, Tie: true})
	transactionalBus.Discard()
	transactionalBus.Flush(context.Background())

	select {
	case <-received:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_SubscribeAllReceivesEveryType(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := make(map[EventType]bool)
	var wg sync.WaitGroup
	wg.Add(3)

	bus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		seen[event.Type()] = true
		mu.Unlock()
	})

	bus.Emit(context.Background(), MatchCreatedEvent{MatchID: 1})
	bus.Emit(context.Background(), MatchStartedEvent{MatchID: 1})
	bus.Emit(context.Background(), MatchCancelledEvent{MatchID: 2})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Handlers did not run within timeout")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.True(t, seen[EventTypeMatchCreated])
	assert.True(t, seen[EventTypeMatchStarted])
	assert.True(t, seen[EventTypeMatchCancelled])
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeMatchStarted, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeMatchStarted, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), MatchStartedEvent{MatchID: 3})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Second handler did not run")
	}
}
