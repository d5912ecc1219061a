package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// AnalyticsRepo aggregates ledger and catalog state into the summary
// counts exposed by the reporting view. It is strictly read-only and
// enforces no invariants of its own; each query is a point-in-time read
// with whatever consistency a single aggregate statement offers.
type AnalyticsRepo struct {
	db *sql.DB
}

// NewAnalyticsRepo returns a new AnalyticsRepo bound to the given database.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

// EventCounts breaks events down by lifecycle state.
type EventCounts struct {
	Total     int `json:"total"`
	Upcoming  int `json:"upcoming"`
	Ongoing   int `json:"ongoing"`
	Completed int `json:"completed"`
}

// RegistrationCounts covers the registration ledger.
type RegistrationCounts struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
}

// UserCounts breaks directory users down by role.
type UserCounts struct {
	Total    int `json:"total"`
	Students int `json:"students"`
	Staff    int `json:"staff"`
}

// PopularEvent is one entry of the most-registered ranking.
type PopularEvent struct {
	EventID       int64  `json:"event_id"`
	Title         string `json:"title"`
	Registrations int    `json:"registrations"`
}

// Summary is the full reporting payload.
type Summary struct {
	Events        EventCounts        `json:"events"`
	Registrations RegistrationCounts `json:"registrations"`
	Users         UserCounts         `json:"users"`
	PopularEvents []PopularEvent     `json:"popular_events"`
}

// popularLimit bounds the most-registered ranking.
const popularLimit = 5

// Summary computes the aggregate counts and the top-N most-registered
// events. Ranking ties are broken by ascending event id (insertion
// order) so the output is deterministic.
func (r *AnalyticsRepo) Summary(ctx context.Context) (*Summary, error) {
	var s Summary

	const eventsQ = `SELECT COUNT(*),
	                        COALESCE(SUM(status = 'UPCOMING'), 0),
	                        COALESCE(SUM(status = 'ONGOING'), 0),
	                        COALESCE(SUM(status = 'COMPLETED'), 0)
	                 FROM events`
	if err := r.db.QueryRowContext(ctx, eventsQ).Scan(
		&s.Events.Total, &s.Events.Upcoming, &s.Events.Ongoing, &s.Events.Completed,
	); err != nil {
		return nil, fmt.Errorf("aggregate events: %w", err)
	}

	const regsQ = `SELECT COUNT(*), COALESCE(SUM(status = 'CONFIRMED'), 0) FROM registrations`
	if err := r.db.QueryRowContext(ctx, regsQ).Scan(&s.Registrations.Total, &s.Registrations.Confirmed); err != nil {
		return nil, fmt.Errorf("aggregate registrations: %w", err)
	}

	const usersQ = `SELECT COUNT(*),
	                       COALESCE(SUM(role = 'STUDENT'), 0),
	                       COALESCE(SUM(role = 'STAFF'), 0)
	                FROM users`
	if err := r.db.QueryRowContext(ctx, usersQ).Scan(&s.Users.Total, &s.Users.Students, &s.Users.Staff); err != nil {
		return nil, fmt.Errorf("aggregate users: %w", err)
	}

	popular, err := r.popularEvents(ctx)
	if err != nil {
		return nil, err
	}
	s.PopularEvents = popular
	return &s, nil
}

func (r *AnalyticsRepo) popularEvents(ctx context.Context) ([]PopularEvent, error) {
	const q = `SELECT e.id, e.title, COUNT(reg.id) AS registration_count
	           FROM events e
	           LEFT JOIN registrations reg ON reg.event_id = e.id AND reg.status = 'CONFIRMED'
	           GROUP BY e.id, e.title
	           ORDER BY registration_count DESC, e.id ASC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, popularLimit)
	if err != nil {
		return nil, fmt.Errorf("rank popular events: %w", err)
	}
	defer rows.Close()

	out := make([]PopularEvent, 0, popularLimit)
	for rows.Next() {
		var p PopularEvent
		if err := rows.Scan(&p.EventID, &p.Title, &p.Registrations); err != nil {
			return nil, fmt.Errorf("scan popular event: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
