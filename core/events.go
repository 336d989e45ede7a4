package core

import (
	"context"
	"time"
)

// Domain event types.
const (
	EventSubmissionSubmitted = "submission.submitted"
	EventSubmissionGraded    = "submission.graded"
	EventAttendanceOpened    = "attendance.opened"
	EventAttendanceClosed    = "attendance.closed"
	EventCourseEnrolled      = "course.enrolled"
)

type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"` // partition key; usually the course id
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

func NewEvent(typ, key string, payload interface{}) Event {
	return Event{Type: typ, Key: key, OccurredAt: NowFunc(), Payload: payload}
}

// EventPublisher is any service that can broadcast domain events.
// Publishing is best effort: callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// PublishEvents publishes events and logs any failure.
func PublishEvents(ctx context.Context, pub EventPublisher, logger Logger, events ...Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, events...); err != nil && logger != nil {
		logger.Warn("publishing events: "+err.Error(), err)
	}
}
