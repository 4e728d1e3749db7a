package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INGEST_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used by the bus subscriber when
// reconstructing events off the wire.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Lifecycle event codes published to the bus. Downstream consumers
// (analytics, ops alerting) subscribe by code.
const (
	TypeIngestStarted   = "INGEST_STARTED"
	TypeIngestCompleted = "INGEST_COMPLETED"
	TypeIngestFailed    = "INGEST_FAILED"
	TypeRecsGenerated   = "RECOMMENDATIONS_GENERATED"
	TypeFeedbackGiven   = "FEEDBACK_GIVEN"
)

func NewIngestStarted(sessionId string, totalRows int) Event {
	return BaseEvent{
		Type: TypeIngestStarted,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"total_rows": totalRows,
		},
		OccurredAt: time.Now(),
	}
}

func NewIngestCompleted(sessionId string, processed, added, failed int) Event {
	return BaseEvent{
		Type: TypeIngestCompleted,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"processed":  processed,
			"added":      added,
			"failed":     failed,
		},
		OccurredAt: time.Now(),
	}
}

func NewIngestFailed(sessionId string, reason string) Event {
	return BaseEvent{
		Type: TypeIngestFailed,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"reason":     reason,
		},
		OccurredAt: time.Now(),
	}
}

func NewRecsGenerated(sessionId string, count int, traceId string) Event {
	return BaseEvent{
		Type: TypeRecsGenerated,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"count":      count,
			"trace_id":   traceId,
		},
		OccurredAt: time.Now(),
	}
}

func NewFeedbackGiven(sessionId, recommendationId string, positive bool) Event {
	return BaseEvent{
		Type: TypeFeedbackGiven,
		Data: map[string]interface{}{
			"session_id":        sessionId,
			"recommendation_id": recommendationId,
			"positive":          positive,
		},
		OccurredAt: time.Now(),
	}
}
