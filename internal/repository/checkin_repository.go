package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/campushq/campus-events/internal/model"
)

// CheckInRepo provides read access to the check-in ledger. Check-ins
// are written only by the AdmissionStore and never mutated afterwards.
type CheckInRepo struct {
	db *sql.DB
}

// NewCheckInRepo returns a new CheckInRepo bound to the given database.
func NewCheckInRepo(db *sql.DB) *CheckInRepo { return &CheckInRepo{db: db} }

// GetByUserAndEvent returns the pair's check-in, or nil when the user
// has not checked in to the event.
func (r *CheckInRepo) GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*model.CheckIn, error) {
	const q = `SELECT id, reference, user_id, event_id, check_in_time, location, method, metadata
	           FROM check_ins WHERE user_id = ? AND event_id = ?`
	var ci model.CheckIn
	var method string
	err := r.db.QueryRowContext(ctx, q, userID, eventID).Scan(
		&ci.ID, &ci.Reference, &ci.UserID, &ci.EventID, &ci.CheckInTime, &ci.Location, &method, &ci.Metadata,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get check-in: %w", err)
	}
	ci.Method = model.CheckInMethod(method)
	return &ci, nil
}

// CheckInRecord is a check-in with the attendee's name attached, used
// by the staff attendance view.
type CheckInRecord struct {
	ID          int64   `json:"id"`
	Reference   string  `json:"reference"`
	UserID      int64   `json:"user_id"`
	UserName    string  `json:"user_name"`
	CheckInTime string  `json:"check_in_time"`
	Location    string  `json:"location"`
	Method      string  `json:"method"`
	Metadata    *string `json:"metadata,omitempty"`
}

// ListByEvent returns all check-ins recorded for the event in check-in
// order.
func (r *CheckInRepo) ListByEvent(ctx context.Context, eventID int64) ([]CheckInRecord, error) {
	const q = `SELECT ci.id, ci.reference, ci.user_id, u.name, ci.check_in_time, ci.location, ci.method, ci.metadata
	           FROM check_ins ci
	           JOIN users u ON u.id = ci.user_id
	           WHERE ci.event_id = ?
	           ORDER BY ci.check_in_time ASC, ci.id ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	out := make([]CheckInRecord, 0)
	for rows.Next() {
		var rec CheckInRecord
		var at time.Time
		if err := rows.Scan(&rec.ID, &rec.Reference, &rec.UserID, &rec.UserName, &at, &rec.Location, &rec.Method, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		rec.CheckInTime = at.UTC().Format(time.RFC3339)
		out = append(out, rec)
	}
	return out, rows.Err()
}
