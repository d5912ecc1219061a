// Package admission implements the single decision point for event
// registrations and check-ins. Given a (user, event) pair it atomically
// evaluates capacity and uniqueness against the ledgers and either
// commits a new row or rejects the request with one of the sentinel
// errors below. All other components treat these errors as the stable,
// machine-readable outcome of an admission attempt.
package admission

import "errors"

// ErrEventNotFound is returned when the referenced event does not exist
// in the catalog.
var ErrEventNotFound = errors.New("event not found")

// ErrEventClosed is returned when the event is CANCELLED and the
// service is configured to refuse admissions against cancelled events.
var ErrEventClosed = errors.New("event is cancelled")

// ErrEventFull is returned when the event has no remaining capacity.
// Capacity may free up again after a cancellation, so callers can retry.
var ErrEventFull = errors.New("event is full")

// ErrAlreadyRegistered is returned when the user already holds a
// CONFIRMED registration for the event. From the caller's point of view
// the end state matches what was asked for.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrNotRegistered is returned from check-in when no CONFIRMED
// registration exists for the (user, event) pair.
var ErrNotRegistered = errors.New("not registered for this event")

// ErrAlreadyCheckedIn is returned when attendance has already been
// recorded for the (user, event) pair.
var ErrAlreadyCheckedIn = errors.New("already checked in")

// ErrConflict is returned by Store implementations when a write loses a
// race and trips a uniqueness constraint at the data layer. The
// controller retries the whole admission sequence once before surfacing
// anything, so callers normally never observe this error.
var ErrConflict = errors.New("conflicting concurrent admission")
