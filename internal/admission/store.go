package admission

import (
	"context"

	"github.com/campushq/campus-events/internal/model"
)

// EventGate is the slice of catalog state an admission decision reads:
// the fixed capacity and the lifecycle status of one event. It is
// returned by Tx.EventForAdmission while the event row is locked, so the
// values cannot change until the surrounding unit of work finishes.
type EventGate struct {
	ID       int64
	Capacity int
	Status   model.EventStatus
}

// Tx is the set of ledger operations available inside one serialized
// unit of work. Implementations must guarantee that between
// EventForAdmission and the end of the unit of work no other admission
// on the same event can observe or modify registration state; the MySQL
// implementation does this with SELECT ... FOR UPDATE on the event row.
type Tx interface {
	// EventForAdmission locks the event for the duration of the unit of
	// work and returns its capacity and status. Returns ErrEventNotFound
	// when the event does not exist.
	EventForAdmission(ctx context.Context, eventID int64) (EventGate, error)

	// HasConfirmedRegistration reports whether a CONFIRMED registration
	// exists for the pair.
	HasConfirmedRegistration(ctx context.Context, userID, eventID int64) (bool, error)

	// CountConfirmed returns the number of CONFIRMED registrations for
	// the event. Capacity is always derived from this count at decision
	// time, never from a cached counter.
	CountConfirmed(ctx context.Context, eventID int64) (int, error)

	// CreateRegistration persists reg as the active registration for its
	// (user, event) pair, either inserting a new row or reactivating a
	// CANCELLED one. It populates reg.ID and returns ErrConflict when a
	// CONFIRMED row already exists at the data layer.
	CreateRegistration(ctx context.Context, reg *model.Registration) error

	// CancelRegistration flips the pair's CONFIRMED registration to
	// CANCELLED. It reports whether a row was actually cancelled;
	// cancelling nothing is not an error.
	CancelRegistration(ctx context.Context, userID, eventID int64) (bool, error)

	// HasCheckIn reports whether attendance was already recorded for the
	// pair.
	HasCheckIn(ctx context.Context, userID, eventID int64) (bool, error)

	// CreateCheckIn persists ci, populating ci.ID. Returns ErrConflict
	// when a check-in already exists for the pair at the data layer.
	CreateCheckIn(ctx context.Context, ci *model.CheckIn) error
}

// Store runs admission units of work. Atomic executes fn inside one
// isolated transaction: every ledger read and write fn performs is
// committed together or not at all, and any error from fn rolls the
// whole unit back and is returned unchanged.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}
