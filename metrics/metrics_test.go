package metrics

import (
	"context"
	"errors"
	"testing"

	"stakeduel/events"
	"stakeduel/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEvent(t *testing.T) {
	ctx := context.Background()

	before := testutil.ToFloat64(LedgerEntriesTotal.WithLabelValues("stake_lock"))
	RecordEvent(ctx, events.BalanceChangedEvent{Category: models.LedgerCategoryStakeLock})
	assert.Equal(t, before+1, testutil.ToFloat64(LedgerEntriesTotal.WithLabelValues("stake_lock")))

	before = testutil.ToFloat64(SettlementsTotal.WithLabelValues("forfeit", "win"))
	RecordEvent(ctx, events.MatchCompletedEvent{Reason: models.SettlementByForfeit})
	assert.Equal(t, before+1, testutil.ToFloat64(SettlementsTotal.WithLabelValues("forfeit", "win")))

	before = testutil.ToFloat64(SettlementsTotal.WithLabelValues("score", "tie"))
	RecordEvent(ctx, events.MatchCompletedEvent{Reason: models.SettlementByScore, Tie: true})
	assert.Equal(t, before+1, testutil.ToFloat64(SettlementsTotal.WithLabelValues("score", "tie")))

	before = testutil.ToFloat64(MatchesCreatedTotal)
	RecordEvent(ctx, events.MatchCreatedEvent{MatchID: 1})
	assert.Equal(t, before+1, testutil.ToFloat64(MatchesCreatedTotal))
}

func TestRecordSweep(t *testing.T) {
	before := testutil.ToFloat64(SweeperTransitionsTotal.WithLabelValues("countdowns"))
	RecordSweep("countdowns", 3, nil)
	assert.Equal(t, before+3, testutil.ToFloat64(SweeperTransitionsTotal.WithLabelValues("countdowns")))

	errBefore := testutil.ToFloat64(SweeperErrorsTotal.WithLabelValues("countdowns"))
	RecordSweep("countdowns", 0, errors.New("db down"))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(SweeperErrorsTotal.WithLabelValues("countdowns")))
}
