package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/campushq/campus-events/internal/model"
)

// EventRepo provides the read side of the event catalog. Events are
// owned and written by an external catalog service; this repository only
// reads them for browse endpoints and joins them onto ledger state.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventSummary is an event decorated with catalog names and the current
// number of CONFIRMED registrations. It is the shape returned to browse
// endpoints. The registration count is a point-in-time read with no
// special isolation; the authoritative count lives behind the admission
// lock.
type EventSummary struct {
	ID                 int64   `json:"id"`
	Title              string  `json:"title"`
	Description        *string `json:"description,omitempty"`
	EventType          string  `json:"event_type"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	Location           string  `json:"location"`
	Capacity           int     `json:"capacity"`
	Status             string  `json:"status"`
	Requirements       *string `json:"requirements,omitempty"`
	Creator            *string `json:"creator,omitempty"`
	Category           *string `json:"category,omitempty"`
	RegistrationsCount int     `json:"registrations_count"`
}

// List returns every event with creator name, category name and
// confirmed registration count, ordered by start date ascending.
func (r *EventRepo) List(ctx context.Context) ([]EventSummary, error) {
	const q = `SELECT e.id, e.title, e.description, e.event_type, e.start_date, e.end_date,
	                  e.location, e.capacity, e.status, e.requirements,
	                  u.name, ec.name,
	                  COUNT(reg.id)
	           FROM events e
	           LEFT JOIN users u ON u.id = e.creator_id
	           LEFT JOIN event_categories ec ON ec.id = e.category_id
	           LEFT JOIN registrations reg ON reg.event_id = e.id AND reg.status = 'CONFIRMED'
	           GROUP BY e.id
	           ORDER BY e.start_date ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]EventSummary, 0)
	for rows.Next() {
		s, err := scanEventSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSummary returns one event with its catalog names and confirmed
// registration count, or ErrEventNotFound.
func (r *EventRepo) GetSummary(ctx context.Context, eventID int64) (*EventSummary, error) {
	const q = `SELECT e.id, e.title, e.description, e.event_type, e.start_date, e.end_date,
	                  e.location, e.capacity, e.status, e.requirements,
	                  u.name, ec.name,
	                  COUNT(reg.id)
	           FROM events e
	           LEFT JOIN users u ON u.id = e.creator_id
	           LEFT JOIN event_categories ec ON ec.id = e.category_id
	           LEFT JOIN registrations reg ON reg.event_id = e.id AND reg.status = 'CONFIRMED'
	           WHERE e.id = ?
	           GROUP BY e.id`
	row := r.db.QueryRowContext(ctx, q, eventID)
	s, err := scanEventSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	// A LEFT JOIN aggregate over a missing event can surface as a row of
	// NULLs on some configurations; guard on the primary key.
	if s.ID == 0 {
		return nil, ErrEventNotFound
	}
	return &s, nil
}

// GetByID returns the raw event row or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, eventID int64) (*model.Event, error) {
	const q = `SELECT id, title, description, event_type, start_date, end_date, location,
	                  capacity, status, requirements, creator_id, category_id, created_at
	           FROM events WHERE id = ?`
	var e model.Event
	var status string
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(
		&e.ID, &e.Title, &e.Description, &e.EventType, &e.StartDate, &e.EndDate, &e.Location,
		&e.Capacity, &status, &e.Requirements, &e.CreatorID, &e.CategoryID, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	e.Status = model.EventStatus(status)
	return &e, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventSummary(row rowScanner) (EventSummary, error) {
	var s EventSummary
	var start, end time.Time
	var creator, category sql.NullString
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.EventType, &start, &end,
		&s.Location, &s.Capacity, &s.Status, &s.Requirements,
		&creator, &category,
		&s.RegistrationsCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EventSummary{}, err
		}
		return EventSummary{}, fmt.Errorf("scan event summary: %w", err)
	}
	s.StartDate = start.UTC().Format(time.RFC3339)
	s.EndDate = end.UTC().Format(time.RFC3339)
	if creator.Valid {
		c := creator.String
		s.Creator = &c
	}
	if category.Valid {
		c := category.String
		s.Category = &c
	}
	return s, nil
}
