package cmd

import (
	"fmt"

	"stakeduel/config"
	"stakeduel/infrastructure"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect published domain events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail [subject]",
	Short: "Print events from the NATS stream as they arrive",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		setupLogging(cfg)
		if cfg.NATSServers == "" {
			return fmt.Errorf("NATS_SERVERS is not set")
		}

		subject := "matches.>"
		if len(args) == 1 {
			subject = args[0]
		}
		durable, _ := cmd.Flags().GetString("durable")

		client := infrastructure.NewNATSClient(cfg.NATSServers, "stakeduel-tail")
		if err := client.Connect(cmd.Context()); err != nil {
			return err
		}
		defer client.Close()

		subscriber := infrastructure.NewNATSEventSubscriber(client, durable)
		err := subscriber.Subscribe(subject, func(subject string, envelope *infrastructure.EventEnvelope) error {
			cmd.Printf("%s %-28s %s %s\n",
				envelope.Timestamp.Format("15:04:05.000"), subject, envelope.EventType, envelope.Payload)
			return nil
		})
		if err != nil {
			return err
		}

		<-cmd.Context().Done()
		return nil
	},
}

func init() {
	eventsTailCmd.Flags().String("durable", "stakeduel-tail", "durable consumer prefix")
	eventsCmd.AddCommand(eventsTailCmd)
}
