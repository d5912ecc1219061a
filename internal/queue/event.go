// Package queue defines the domain events exchanged over the message
// broker and the plumbing that publishes and consumes them. Events are
// published after the admission transaction commits, so consumers only
// ever see admissions that actually happened; a lost message is
// tolerable, a phantom one is not.
package queue

// RegistrationConfirmedEvent is published when a registration commits.
// It carries enough context for notification and analytics consumers to
// act without querying the primary database.
type RegistrationConfirmedEvent struct {
	MessageID      string `json:"message_id"`
	RegistrationID int64  `json:"registration_id"`
	UserID         int64  `json:"user_id"`
	EventID        int64  `json:"event_id"`
	EventTitle     string `json:"event_title"`
	RegisteredAt   string `json:"registered_at"`
}

// CheckInRecordedEvent is published when attendance is recorded.
type CheckInRecordedEvent struct {
	MessageID  string `json:"message_id"`
	CheckInID  int64  `json:"check_in_id"`
	Reference  string `json:"reference"`
	UserID     int64  `json:"user_id"`
	EventID    int64  `json:"event_id"`
	EventTitle string `json:"event_title"`
	Location   string `json:"location"`
	Method     string `json:"method"`
	RecordedAt string `json:"recorded_at"`
}

// Queue names. Both queues are declared durable by publisher and
// consumer alike, so declaration order does not matter.
const (
	RegistrationConfirmedQueue = "registration.confirmed"
	CheckInRecordedQueue       = "checkin.recorded"
)
