package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"stakeduel/config"
	"stakeduel/database"
	"stakeduel/events"
	"stakeduel/repository"
	"stakeduel/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "stakeduel",
	Short:         "Head-to-head wagering match engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line and exits non-zero on failure
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("Command failed")
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, accountCmd, topUpCmd, auditCmd, revenueCmd, tokenCmd, gamesCmd, eventsCmd)
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT
func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// app holds the wiring shared by the serve and admin commands
type app struct {
	config     *config.Config
	db         *database.DB
	eventBus   *events.Bus
	uowFactory service.UnitOfWorkFactory
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Get()
	setupLogging(cfg)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	eventBus := events.NewBus()
	return &app{
		config:     cfg,
		db:         db,
		eventBus:   eventBus,
		uowFactory: repository.NewUnitOfWorkFactory(db, eventBus),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
