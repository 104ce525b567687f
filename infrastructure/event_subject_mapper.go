package infrastructure

import (
	"fmt"

	"stakeduel/events"
)

const (
	// MatchEventStream holds every domain event this service publishes
	MatchEventStream = "stakeduel_events"

	SubjectMatchCreated         = "matches.created"
	SubjectMatchJoinRequested   = "matches.join_requested"
	SubjectMatchJoinRejected    = "matches.join_rejected"
	SubjectMatchAccepted        = "matches.accepted"
	SubjectMatchStarted         = "matches.started"
	SubjectMatchCompleted       = "matches.completed"
	SubjectMatchCancelled       = "matches.cancelled"
	SubjectAccountBalanceChange = "accounts.balance_changed"
)

// EventSubjectMapper maps domain events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return m.MapTypeToSubject(event.Type())
}

// MapTypeToSubject converts an event type to its NATS subject
func (m *EventSubjectMapper) MapTypeToSubject(eventType events.EventType) string {
	switch eventType {
	case events.EventTypeMatchCreated:
		return SubjectMatchCreated
	case events.EventTypeJoinRequested:
		return SubjectMatchJoinRequested
	case events.EventTypeJoinRequestRejected:
		return SubjectMatchJoinRejected
	case events.EventTypeMatchAccepted:
		return SubjectMatchAccepted
	case events.EventTypeMatchStarted:
		return SubjectMatchStarted
	case events.EventTypeMatchCompleted:
		return SubjectMatchCompleted
	case events.EventTypeMatchCancelled:
		return SubjectMatchCancelled
	case events.EventTypeBalanceChanged:
		return SubjectAccountBalanceChange
	default:
		return fmt.Sprintf("unknown.%s", eventType)
	}
}

// GetAllSubjects returns every subject this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	types := events.AllEventTypes()
	subjects := make([]string, 0, len(types))
	for _, t := range types {
		subjects = append(subjects, m.MapTypeToSubject(t))
	}
	return subjects
}
