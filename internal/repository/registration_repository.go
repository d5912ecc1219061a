package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/campushq/campus-events/internal/model"
)

// RegistrationRepo provides read access to the registration ledger
// outside the admission lock: point lookups, counts and per-user
// listings. All writes to the ledger go through the AdmissionStore so
// the capacity invariant is enforced in one place.
type RegistrationRepo struct {
	db *sql.DB
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// RegistrationDetail is a registration joined with a summary of its
// event, as returned by the "my registrations" view.
type RegistrationDetail struct {
	ID           int64   `json:"id"`
	Status       string  `json:"status"`
	RegisteredAt string  `json:"registered_at"`
	Metadata     *string `json:"metadata,omitempty"`
	Event        struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		Description *string `json:"description,omitempty"`
		EventType   string  `json:"event_type"`
		StartDate   string  `json:"start_date"`
		EndDate     string  `json:"end_date"`
		Location    string  `json:"location"`
		Status      string  `json:"status"`
	} `json:"event"`
}

// ListByUser returns all of the user's registrations, cancelled ones
// included, newest first. An empty slice is returned when the user has
// none.
func (r *RegistrationRepo) ListByUser(ctx context.Context, userID int64) ([]RegistrationDetail, error) {
	const q = `SELECT reg.id, reg.status, reg.registered_at, reg.metadata,
	                  e.id, e.title, e.description, e.event_type, e.start_date, e.end_date,
	                  e.location, e.status
	           FROM registrations reg
	           JOIN events e ON e.id = reg.event_id
	           WHERE reg.user_id = ?
	           ORDER BY reg.registered_at DESC, reg.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	out := make([]RegistrationDetail, 0)
	for rows.Next() {
		var d RegistrationDetail
		var registeredAt, start, end time.Time
		if err := rows.Scan(
			&d.ID, &d.Status, &registeredAt, &d.Metadata,
			&d.Event.ID, &d.Event.Title, &d.Event.Description, &d.Event.EventType, &start, &end,
			&d.Event.Location, &d.Event.Status,
		); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		d.RegisteredAt = registeredAt.UTC().Format(time.RFC3339)
		d.Event.StartDate = start.UTC().Format(time.RFC3339)
		d.Event.EndDate = end.UTC().Format(time.RFC3339)
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetByUserAndEvent returns the ledger row for the pair regardless of
// status, or nil when the pair has never registered.
func (r *RegistrationRepo) GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*model.Registration, error) {
	const q = `SELECT id, user_id, event_id, status, registered_at, metadata
	           FROM registrations WHERE user_id = ? AND event_id = ?`
	var reg model.Registration
	var status string
	err := r.db.QueryRowContext(ctx, q, userID, eventID).Scan(
		&reg.ID, &reg.UserID, &reg.EventID, &status, &reg.RegisteredAt, &reg.Metadata,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	reg.Status = model.RegistrationStatus(status)
	return &reg, nil
}

// CountConfirmedByEvent returns the number of CONFIRMED registrations
// for the event as seen outside the admission lock.
func (r *RegistrationRepo) CountConfirmedByEvent(ctx context.Context, eventID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status = 'CONFIRMED'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}
