package admission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/campushq/campus-events/internal/model"
)

// Controller is the admission authority for registrations and check-ins.
// One logical instance serves many concurrent callers; correctness under
// races is delegated to the Store contract (per-event serialization) plus
// the data-layer uniqueness constraints as a second line of defense.
//
// The capacity check and the insert always happen inside the same unit
// of work, so for an event with capacity C at most C CONFIRMED
// registrations ever coexist, no matter how many callers race for the
// last slot.
type Controller struct {
	store Store

	// admitCancelledEvents controls whether CANCELLED events still accept
	// registrations and check-ins. Policy flag, off by default.
	admitCancelledEvents bool

	now func() time.Time
}

// NewController constructs a Controller on top of the given store.
func NewController(store Store, admitCancelledEvents bool) *Controller {
	if store == nil {
		panic("nil store passed to NewController")
	}
	return &Controller{
		store:                store,
		admitCancelledEvents: admitCancelledEvents,
		now:                  time.Now,
	}
}

// Register claims one capacity slot on the event for the user. On
// success it returns the CONFIRMED registration. Failure modes:
// ErrEventNotFound, ErrEventClosed, ErrAlreadyRegistered, ErrEventFull.
//
// A data-layer conflict (a racing writer winning the same slot between
// our check and our insert) triggers exactly one automatic re-run of the
// whole sequence; the re-run then observes the winner's row and reports
// the accurate outcome.
func (c *Controller) Register(ctx context.Context, userID, eventID int64, metadata *string) (*model.Registration, error) {
	reg, err := c.register(ctx, userID, eventID, metadata)
	if errors.Is(err, ErrConflict) {
		reg, err = c.register(ctx, userID, eventID, metadata)
	}
	return reg, err
}

func (c *Controller) register(ctx context.Context, userID, eventID int64, metadata *string) (*model.Registration, error) {
	var out *model.Registration
	err := c.store.Atomic(ctx, func(tx Tx) error {
		gate, err := tx.EventForAdmission(ctx, eventID)
		if err != nil {
			return err
		}
		if gate.Status == model.EventCancelled && !c.admitCancelledEvents {
			return ErrEventClosed
		}
		active, err := tx.HasConfirmedRegistration(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if active {
			return ErrAlreadyRegistered
		}
		confirmed, err := tx.CountConfirmed(ctx, eventID)
		if err != nil {
			return err
		}
		if confirmed >= gate.Capacity {
			return ErrEventFull
		}
		reg := &model.Registration{
			UserID:       userID,
			EventID:      eventID,
			Status:       model.RegistrationConfirmed,
			RegisteredAt: c.now().UTC(),
			Metadata:     metadata,
		}
		if err := tx.CreateRegistration(ctx, reg); err != nil {
			return err
		}
		out = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelRegistration releases the user's CONFIRMED registration on the
// event, if any. It is idempotent: cancelling an absent registration,
// or one for an event that no longer exists, is a no-op success. The
// freed slot becomes visible to the next Register the moment the unit
// of work commits, because capacity is derived by counting CONFIRMED
// rows rather than kept in a counter.
func (c *Controller) CancelRegistration(ctx context.Context, userID, eventID int64) error {
	return c.store.Atomic(ctx, func(tx Tx) error {
		// Lock the event row so cancellation and registration on the same
		// event never interleave mid-decision.
		if _, err := tx.EventForAdmission(ctx, eventID); err != nil {
			if errors.Is(err, ErrEventNotFound) {
				return nil
			}
			return err
		}
		_, err := tx.CancelRegistration(ctx, userID, eventID)
		return err
	})
}

// CheckIn records the user's attendance at the event. The user must
// hold a CONFIRMED registration and must not have checked in before.
// An empty method defaults to MANUAL. Check-in never consumes capacity.
// Failure modes: ErrNotRegistered, ErrAlreadyCheckedIn, ErrEventClosed.
func (c *Controller) CheckIn(ctx context.Context, userID, eventID int64, location string, method model.CheckInMethod, metadata *string) (*model.CheckIn, error) {
	ci, err := c.checkIn(ctx, userID, eventID, location, method, metadata)
	if errors.Is(err, ErrConflict) {
		ci, err = c.checkIn(ctx, userID, eventID, location, method, metadata)
	}
	return ci, err
}

func (c *Controller) checkIn(ctx context.Context, userID, eventID int64, location string, method model.CheckInMethod, metadata *string) (*model.CheckIn, error) {
	if method == "" {
		method = model.CheckInManual
	}
	var out *model.CheckIn
	err := c.store.Atomic(ctx, func(tx Tx) error {
		gate, err := tx.EventForAdmission(ctx, eventID)
		if err != nil {
			if errors.Is(err, ErrEventNotFound) {
				// The caller-facing contract speaks in registration terms: a
				// user cannot be registered for an event that does not exist.
				return ErrNotRegistered
			}
			return err
		}
		if gate.Status == model.EventCancelled && !c.admitCancelledEvents {
			return ErrEventClosed
		}
		registered, err := tx.HasConfirmedRegistration(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if !registered {
			return ErrNotRegistered
		}
		checked, err := tx.HasCheckIn(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if checked {
			return ErrAlreadyCheckedIn
		}
		ci := &model.CheckIn{
			Reference:   uuid.New().String(),
			UserID:      userID,
			EventID:     eventID,
			CheckInTime: c.now().UTC(),
			Location:    location,
			Method:      method,
			Metadata:    metadata,
		}
		if err := tx.CreateCheckIn(ctx, ci); err != nil {
			return err
		}
		out = ci
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
