package metrics

import (
	"context"

	"stakeduel/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeduel_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stakeduel_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeduel_ledger_entries_total",
			Help: "Total number of committed ledger entries",
		},
		[]string{"category"},
	)

	MatchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stakeduel_matches_created_total",
			Help: "Total number of matches opened",
		},
	)

	MatchesAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stakeduel_matches_accepted_total",
			Help: "Total number of matches whose stakes were locked",
		},
	)

	MatchesCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stakeduel_matches_cancelled_total",
			Help: "Total number of matches withdrawn by their creator",
		},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeduel_settlements_total",
			Help: "Total number of settled matches",
		},
		[]string{"reason", "outcome"},
	)

	SweeperTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeduel_sweeper_transitions_total",
			Help: "Matches advanced or settled by the background sweeper",
		},
		[]string{"job"},
	)

	SweeperErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeduel_sweeper_errors_total",
			Help: "Sweeper runs that failed",
		},
		[]string{"job"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeduel_events_published_total",
			Help: "Domain events forwarded to the message bus",
		},
		[]string{"subject", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSweep(job string, transitions int, err error) {
	if err != nil {
		SweeperErrorsTotal.WithLabelValues(job).Inc()
		return
	}
	SweeperTransitionsTotal.WithLabelValues(job).Add(float64(transitions))
}

func RecordEventPublished(subject string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublishedTotal.WithLabelValues(subject, status).Inc()
}

// RecordEvent updates the domain counters for one committed event
func RecordEvent(_ context.Context, event events.Event) {
	switch e := event.(type) {
	case events.BalanceChangedEvent:
		LedgerEntriesTotal.WithLabelValues(string(e.Category)).Inc()
	case events.MatchCreatedEvent:
		MatchesCreatedTotal.Inc()
	case events.MatchAcceptedEvent:
		MatchesAcceptedTotal.Inc()
	case events.MatchCancelledEvent:
		MatchesCancelledTotal.Inc()
	case events.MatchCompletedEvent:
		outcome := "win"
		if e.Tie {
			outcome = "tie"
		}
		SettlementsTotal.WithLabelValues(string(e.Reason), outcome).Inc()
	}
}

// Subscribe records every event committed on the bus
func Subscribe(bus *events.Bus) {
	bus.SubscribeAll(RecordEvent)
}
