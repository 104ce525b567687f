package application

import (
	"context"
	"fmt"
	"time"

	"stakeduel/metrics"
	"stakeduel/service"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

const (
	jobAdvanceCountdowns = "advance_countdowns"
	jobSettleStale       = "settle_stale_matches"
)

// SweeperWorker periodically applies match timers that are otherwise only
// evaluated when a player polls
type SweeperWorker struct {
	sweeper  service.SweepService
	interval time.Duration
}

// NewSweeperWorker creates a new sweeper worker
func NewSweeperWorker(sweeper service.SweepService, interval time.Duration) *SweeperWorker {
	return &SweeperWorker{
		sweeper:  sweeper,
		interval: interval,
	}
}

// Start schedules both sweep jobs and returns a stop function
func (w *SweeperWorker) Start(ctx context.Context) (func(), error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{jobAdvanceCountdowns, w.sweeper.AdvanceCountdowns},
		{jobSettleStale, w.sweeper.SettleStaleMatches},
	}
	for _, job := range jobs {
		_, err := sched.NewJob(
			gocron.DurationJob(w.interval),
			gocron.NewTask(w.RunJob, ctx, job.name, job.run),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
	}

	sched.Start()
	log.WithField("interval", w.interval).Info("Match sweeper started")

	return func() {
		if err := sched.Shutdown(); err != nil {
			log.WithError(err).Error("Failed to stop match sweeper")
			return
		}
		log.Info("Match sweeper stopped")
	}, nil
}

// RunJob executes one sweep and records its result
func (w *SweeperWorker) RunJob(ctx context.Context, name string, run func(context.Context) (int, error)) {
	if ctx.Err() != nil {
		return
	}

	transitions, err := run(ctx)
	metrics.RecordSweep(name, transitions, err)
	if err != nil {
		log.WithFields(log.Fields{
			"job":   name,
			"error": err,
		}).Error("Sweep failed")
		return
	}
	if transitions > 0 {
		log.WithFields(log.Fields{
			"job":         name,
			"transitions": transitions,
		}).Info("Sweep applied match transitions")
	}
}
