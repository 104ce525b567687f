package infrastructure

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// EnvelopeHandler processes one decoded envelope
type EnvelopeHandler func(subject string, envelope *EventEnvelope) error

// MessageSubscriber is the subset of NATSClient the subscriber needs
type MessageSubscriber interface {
	Subscribe(subject, durable string, handler func([]byte) error) error
}

// NATSEventSubscriber decodes envelopes from NATS subjects
type NATSEventSubscriber struct {
	client  MessageSubscriber
	durable string
}

// NewNATSEventSubscriber creates a subscriber whose consumers share the durable prefix
func NewNATSEventSubscriber(client MessageSubscriber, durable string) *NATSEventSubscriber {
	return &NATSEventSubscriber{
		client:  client,
		durable: durable,
	}
}

// Subscribe routes decoded envelopes on subject to handler
func (s *NATSEventSubscriber) Subscribe(subject string, handler EnvelopeHandler) error {
	return s.client.Subscribe(subject, s.durable, func(data []byte) error {
		envelope, err := DecodeEnvelope(data)
		if err != nil {
			log.WithFields(log.Fields{
				"subject": subject,
				"error":   err,
			}).Error("Failed to decode event envelope")
			return err
		}
		return handler(subject, envelope)
	})
}

// DecodeEnvelope parses a raw NATS message
func DecodeEnvelope(data []byte) (*EventEnvelope, error) {
	var envelope EventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	if envelope.EventType == "" {
		return nil, fmt.Errorf("event envelope has no type")
	}
	return &envelope, nil
}
