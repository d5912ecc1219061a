package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campushq/campus-events/internal/admission"
	"github.com/campushq/campus-events/internal/model"
)

// AdmissionStore is the MySQL implementation of admission.Store. Each
// unit of work is one transaction, and EventForAdmission serializes
// concurrent admissions per event by taking a row-level exclusive lock
// on the event with SELECT ... FOR UPDATE: any other transaction that
// locks the same event row blocks until this one commits or rolls back.
// That makes the check-count-then-insert sequence indivisible relative
// to every other Register, Cancel or CheckIn on the same event, which
// is exactly the guarantee the controller relies on.
type AdmissionStore struct {
	db *sql.DB
}

// NewAdmissionStore returns an AdmissionStore bound to the given database.
func NewAdmissionStore(db *sql.DB) *AdmissionStore { return &AdmissionStore{db: db} }

// Atomic runs fn inside a transaction, committing on nil and rolling
// back on error. The error from fn is returned unchanged so admission
// sentinels pass through to the controller.
func (s *AdmissionStore) Atomic(ctx context.Context, fn func(tx admission.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admission tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&admissionTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit admission tx: %w", err)
	}
	committed = true
	return nil
}

// admissionTx exposes the ledger operations of one open transaction.
type admissionTx struct {
	tx *sql.Tx
}

// EventForAdmission locks the event row and returns the capacity and
// status the admission decision needs. The lock is held until the
// surrounding transaction finishes.
func (t *admissionTx) EventForAdmission(ctx context.Context, eventID int64) (admission.EventGate, error) {
	const q = `SELECT id, capacity, status FROM events WHERE id = ? FOR UPDATE`
	var gate admission.EventGate
	var status string
	err := t.tx.QueryRowContext(ctx, q, eventID).Scan(&gate.ID, &gate.Capacity, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return admission.EventGate{}, admission.ErrEventNotFound
		}
		return admission.EventGate{}, fmt.Errorf("lock event row: %w", err)
	}
	gate.Status = model.EventStatus(status)
	return gate, nil
}

func (t *admissionTx) HasConfirmedRegistration(ctx context.Context, userID, eventID int64) (bool, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE user_id = ? AND event_id = ? AND status = 'CONFIRMED'`
	var n int
	if err := t.tx.QueryRowContext(ctx, q, userID, eventID).Scan(&n); err != nil {
		return false, fmt.Errorf("check active registration: %w", err)
	}
	return n > 0, nil
}

func (t *admissionTx) CountConfirmed(ctx context.Context, eventID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status = 'CONFIRMED'`
	var n int
	if err := t.tx.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count confirmed registrations: %w", err)
	}
	return n, nil
}

// CreateRegistration inserts the registration row. Registrations are
// soft-cancelled, so the (user_id, event_id) unique key may already be
// occupied by a CANCELLED row; in that case the row is reactivated in
// place. A duplicate-key hit on a CONFIRMED row means a concurrent
// admission won the slot after our existence check, which is reported
// as admission.ErrConflict so the controller can re-run the sequence.
func (t *admissionTx) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	const ins = `INSERT INTO registrations (user_id, event_id, status, registered_at, metadata) VALUES (?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, ins, reg.UserID, reg.EventID, string(reg.Status), reg.RegisteredAt, reg.Metadata)
	if err == nil {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("registration insert id: %w", err)
		}
		reg.ID = id
		return nil
	}
	if !isDuplicateKey(err) {
		return fmt.Errorf("insert registration: %w", err)
	}
	// A row for the pair exists. Reactivate it only if it is CANCELLED;
	// zero rows affected means the existing row is CONFIRMED and this
	// write lost a race.
	const upd = `UPDATE registrations
	             SET status = 'CONFIRMED', registered_at = ?, metadata = ?
	             WHERE user_id = ? AND event_id = ? AND status = 'CANCELLED'`
	res, err = t.tx.ExecContext(ctx, upd, reg.RegisteredAt, reg.Metadata, reg.UserID, reg.EventID)
	if err != nil {
		return fmt.Errorf("reactivate registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reactivate registration: %w", err)
	}
	if n == 0 {
		return admission.ErrConflict
	}
	const sel = `SELECT id FROM registrations WHERE user_id = ? AND event_id = ?`
	if err := t.tx.QueryRowContext(ctx, sel, reg.UserID, reg.EventID).Scan(&reg.ID); err != nil {
		return fmt.Errorf("reload registration id: %w", err)
	}
	return nil
}

func (t *admissionTx) CancelRegistration(ctx context.Context, userID, eventID int64) (bool, error) {
	const q = `UPDATE registrations SET status = 'CANCELLED' WHERE user_id = ? AND event_id = ? AND status = 'CONFIRMED'`
	res, err := t.tx.ExecContext(ctx, q, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("cancel registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel registration: %w", err)
	}
	return n > 0, nil
}

func (t *admissionTx) HasCheckIn(ctx context.Context, userID, eventID int64) (bool, error) {
	const q = `SELECT COUNT(*) FROM check_ins WHERE user_id = ? AND event_id = ?`
	var n int
	if err := t.tx.QueryRowContext(ctx, q, userID, eventID).Scan(&n); err != nil {
		return false, fmt.Errorf("check existing check-in: %w", err)
	}
	return n > 0, nil
}

func (t *admissionTx) CreateCheckIn(ctx context.Context, ci *model.CheckIn) error {
	const q = `INSERT INTO check_ins (reference, user_id, event_id, check_in_time, location, method, metadata)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, ci.Reference, ci.UserID, ci.EventID, ci.CheckInTime, ci.Location, string(ci.Method), ci.Metadata)
	if err != nil {
		if isDuplicateKey(err) {
			return admission.ErrConflict
		}
		return fmt.Errorf("insert check-in: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("check-in insert id: %w", err)
	}
	ci.ID = id
	return nil
}
