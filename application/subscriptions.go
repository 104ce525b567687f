package application

import (
	"stakeduel/events"
	"stakeduel/infrastructure"
	"stakeduel/metrics"
)

// RegisterEventSubscriptions attaches the post-commit consumers to the bus.
// The NATS forwarder is optional.
func RegisterEventSubscriptions(bus *events.Bus, publisher *infrastructure.NATSEventPublisher) {
	metrics.Subscribe(bus)
	if publisher != nil {
		publisher.Attach(bus)
	}
}
