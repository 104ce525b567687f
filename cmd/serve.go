package cmd

import (
	"context"
	"fmt"

	"stakeduel/api"
	"stakeduel/application"
	"stakeduel/infrastructure"
	"stakeduel/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the match sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(cmd.Context())
	},
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.config

	var publisher *infrastructure.NATSEventPublisher
	if cfg.NATSServers != "" {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers, "stakeduel")
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		mapper := infrastructure.NewEventSubjectMapper()
		if err := natsClient.EnsureStream(infrastructure.MatchEventStream, mapper.GetAllSubjects(), "Match lifecycle and balance events"); err != nil {
			return err
		}
		publisher = infrastructure.NewNATSEventPublisher(natsClient, mapper)
	} else {
		log.Info("NATS_SERVERS not set, events stay in process")
	}
	application.RegisterEventSubscriptions(a.eventBus, publisher)

	matchService := service.NewMatchService(a.uowFactory, cfg)
	resultService := service.NewResultService(a.uowFactory, cfg)
	presenceService := service.NewPresenceService(a.uowFactory, cfg)
	sweepService := service.NewSweepService(a.uowFactory, cfg)

	stopSweeper, err := application.NewSweeperWorker(sweepService, cfg.SweepInterval).Start(ctx)
	if err != nil {
		return err
	}
	defer stopSweeper()

	server := api.NewServer(cfg, api.Services{
		Matches:  matchService,
		Results:  resultService,
		Presence: presenceService,
		Accounts: service.NewAccountService(a.uowFactory),
		Games:    service.NewGameService(a.uowFactory),
	})

	log.WithField("environment", cfg.Environment).Info("stakeduel is running")
	return server.Run(ctx)
}
