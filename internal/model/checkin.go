package model

import "time"

// CheckInMethod is the closed set of ways attendance can be recorded.
type CheckInMethod string

const (
	CheckInManual CheckInMethod = "MANUAL" // recorded by staff at the door
	CheckInQR     CheckInMethod = "QR"     // self check-in by scanning a QR code
	CheckInNFC    CheckInMethod = "NFC"    // tap with a campus card
)

// Valid reports whether m is a known check-in method.
func (m CheckInMethod) Valid() bool {
	switch m {
	case CheckInManual, CheckInQR, CheckInNFC:
		return true
	}
	return false
}

// CheckIn records verified attendance of a user at an event. A check-in
// requires a CONFIRMED registration for the same (user, event) pair and
// exists at most once per pair. Once written it is never mutated or
// deleted; attendance is a permanent fact.
//
// Fields:
//  ID          – primary key identifier.
//  Reference   – opaque external reference (UUID) for downstream systems.
//  UserID      – attending user.
//  EventID     – attended event.
//  CheckInTime – when attendance was recorded.
//  Location    – where the check-in happened (door, desk, gate).
//  Method      – how attendance was captured, see CheckInMethod.
//  Metadata    – optional client-supplied payload (nullable).
type CheckIn struct {
	ID          int64         // check_ins.id
	Reference   string        // check_ins.reference
	UserID      int64         // check_ins.user_id
	EventID     int64         // check_ins.event_id
	CheckInTime time.Time     // check_ins.check_in_time
	Location    string        // check_ins.location
	Method      CheckInMethod // check_ins.method
	Metadata    *string       // check_ins.metadata (nullable)
}
