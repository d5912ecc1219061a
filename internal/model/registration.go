package model

import "time"

// RegistrationStatus is the closed set of registration states. A
// registration is CONFIRMED while it holds a capacity slot and becomes
// CANCELLED when its owner gives the slot back. Rows are never deleted,
// so the ledger keeps the history of every (user, event) pair.
type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
)

// Valid reports whether s is a known registration state.
func (s RegistrationStatus) Valid() bool {
	return s == RegistrationConfirmed || s == RegistrationCancelled
}

// Registration represents one user's claim on one event's capacity.
// At most one row exists per (user_id, event_id); cancelling flips the
// status and a later re-registration reactivates the same row.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – registering user.
//  EventID      – event whose capacity is claimed.
//  Status       – CONFIRMED or CANCELLED.
//  RegisteredAt – when the current CONFIRMED claim was made.
//  Metadata     – optional client-supplied payload (nullable).
type Registration struct {
	ID           int64              // registrations.id
	UserID       int64              // registrations.user_id
	EventID      int64              // registrations.event_id
	Status       RegistrationStatus // registrations.status
	RegisteredAt time.Time          // registrations.registered_at
	Metadata     *string            // registrations.metadata (nullable)
}
