package model

import "time"

// EventStatus is the closed set of lifecycle states an event moves
// through. The catalog owns transitions; this service only reads the
// current value when deciding admissions and aggregating reports.
type EventStatus string

const (
	EventUpcoming  EventStatus = "UPCOMING"
	EventOngoing   EventStatus = "ONGOING"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

// Valid reports whether s is one of the known event states.
func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventOngoing, EventCompleted, EventCancelled:
		return true
	}
	return false
}

// Event represents a row in the `events` table. Events are owned by the
// external catalog; capacity and status are read-only inputs to the
// admission controller. Capacity is a positive integer fixed at creation.
//
// Fields:
//  ID           – primary key identifier.
//  Title        – event title.
//  Description  – free-form description (nullable).
//  EventType    – catalog type label such as WORKSHOP or HACKATHON.
//  StartDate    – when the event begins.
//  EndDate      – when the event ends (never before StartDate).
//  Location     – venue description.
//  Capacity     – maximum simultaneous CONFIRMED registrations.
//  Status       – lifecycle state, see EventStatus.
//  Requirements – prerequisites for attendees (nullable).
//  CreatorID    – user who created the event in the catalog.
//  CategoryID   – optional reference into event_categories.
//  CreatedAt    – timestamp of creation.
type Event struct {
	ID           int64       // events.id
	Title        string      // events.title
	Description  *string     // events.description (nullable)
	EventType    string      // events.event_type
	StartDate    time.Time   // events.start_date
	EndDate      time.Time   // events.end_date
	Location     string      // events.location
	Capacity     int         // events.capacity
	Status       EventStatus // events.status
	Requirements *string     // events.requirements (nullable)
	CreatorID    int64       // events.creator_id
	CategoryID   *int64      // events.category_id (nullable)
	CreatedAt    time.Time   // events.created_at
}

// EventCategory represents a row in the `event_categories` table. It is
// consumed read-only when decorating event listings.
type EventCategory struct {
	ID          int64     // event_categories.id
	Name        string    // event_categories.name
	Description *string   // event_categories.description (nullable)
	CreatedAt   time.Time // event_categories.created_at
}
