package admission

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/campushq/campus-events/internal/model"
)

// pairKey identifies a (user, event) pair in the fake ledgers.
type pairKey struct {
	userID  int64
	eventID int64
}

// memStore is an in-memory Store for controller tests. A single mutex
// around Atomic gives it the serialization the contract demands; the
// controller only writes as the final step of a unit of work, so a
// failed unit never leaves partial state behind and no rollback
// machinery is needed.
type memStore struct {
	mu       sync.Mutex
	events   map[int64]EventGate
	regs     map[pairKey]*model.Registration
	checkIns map[pairKey]*model.CheckIn
	nextID   int64

	// conflictsLeft makes the next N CreateRegistration / CreateCheckIn
	// calls fail with ErrConflict, simulating a lost data-layer race.
	conflictsLeft int
	createCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		events:   make(map[int64]EventGate),
		regs:     make(map[pairKey]*model.Registration),
		checkIns: make(map[pairKey]*model.CheckIn),
	}
}

func (s *memStore) addEvent(id int64, capacity int, status model.EventStatus) {
	s.events[id] = EventGate{ID: id, Capacity: capacity, Status: status}
}

func (s *memStore) Atomic(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (s *memStore) EventForAdmission(_ context.Context, eventID int64) (EventGate, error) {
	gate, ok := s.events[eventID]
	if !ok {
		return EventGate{}, ErrEventNotFound
	}
	return gate, nil
}

func (s *memStore) HasConfirmedRegistration(_ context.Context, userID, eventID int64) (bool, error) {
	reg, ok := s.regs[pairKey{userID, eventID}]
	return ok && reg.Status == model.RegistrationConfirmed, nil
}

func (s *memStore) CountConfirmed(_ context.Context, eventID int64) (int, error) {
	n := 0
	for _, reg := range s.regs {
		if reg.EventID == eventID && reg.Status == model.RegistrationConfirmed {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateRegistration(_ context.Context, reg *model.Registration) error {
	s.createCalls++
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return ErrConflict
	}
	key := pairKey{reg.UserID, reg.EventID}
	if existing, ok := s.regs[key]; ok {
		if existing.Status == model.RegistrationConfirmed {
			return ErrConflict
		}
		// Reactivate the CANCELLED row in place, keeping its identity.
		existing.Status = model.RegistrationConfirmed
		existing.RegisteredAt = reg.RegisteredAt
		existing.Metadata = reg.Metadata
		reg.ID = existing.ID
		return nil
	}
	s.nextID++
	reg.ID = s.nextID
	clone := *reg
	s.regs[key] = &clone
	return nil
}

func (s *memStore) CancelRegistration(_ context.Context, userID, eventID int64) (bool, error) {
	reg, ok := s.regs[pairKey{userID, eventID}]
	if !ok || reg.Status != model.RegistrationConfirmed {
		return false, nil
	}
	reg.Status = model.RegistrationCancelled
	return true, nil
}

func (s *memStore) HasCheckIn(_ context.Context, userID, eventID int64) (bool, error) {
	_, ok := s.checkIns[pairKey{userID, eventID}]
	return ok, nil
}

func (s *memStore) CreateCheckIn(_ context.Context, ci *model.CheckIn) error {
	s.createCalls++
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return ErrConflict
	}
	key := pairKey{ci.UserID, ci.EventID}
	if _, ok := s.checkIns[key]; ok {
		return ErrConflict
	}
	s.nextID++
	ci.ID = s.nextID
	clone := *ci
	s.checkIns[key] = &clone
	return nil
}

func TestRegister_Success(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 10, model.EventUpcoming)
	ctrl := NewController(store, false)

	meta := `{"source":"test"}`
	reg, err := ctrl.Register(context.Background(), 7, 1, &meta)
	require.NoError(t, err)
	require.NotNil(t, reg)
	require.Greater(t, reg.ID, int64(0))
	require.Equal(t, model.RegistrationConfirmed, reg.Status)
	require.Equal(t, int64(7), reg.UserID)
	require.Equal(t, int64(1), reg.EventID)
	require.False(t, reg.RegisteredAt.IsZero())
}

func TestRegister_EventNotFound(t *testing.T) {
	ctrl := NewController(newMemStore(), false)

	reg, err := ctrl.Register(context.Background(), 7, 99, nil)
	require.ErrorIs(t, err, ErrEventNotFound)
	require.Nil(t, reg)
}

func TestRegister_CancelledEvent(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 10, model.EventCancelled)

	t.Run("refused by default", func(t *testing.T) {
		ctrl := NewController(store, false)
		_, err := ctrl.Register(context.Background(), 7, 1, nil)
		require.ErrorIs(t, err, ErrEventClosed)
	})

	t.Run("admitted when policy allows", func(t *testing.T) {
		ctrl := NewController(store, true)
		reg, err := ctrl.Register(context.Background(), 7, 1, nil)
		require.NoError(t, err)
		require.Equal(t, model.RegistrationConfirmed, reg.Status)
	})
}

func TestRegister_Duplicate(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 10, model.EventUpcoming)
	ctrl := NewController(store, false)

	_, err := ctrl.Register(context.Background(), 7, 1, nil)
	require.NoError(t, err)

	_, err = ctrl.Register(context.Background(), 7, 1, nil)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	n, err := store.CountConfirmed(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRegister_Full(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 2, model.EventUpcoming)
	ctrl := NewController(store, false)

	for user := int64(1); user <= 2; user++ {
		_, err := ctrl.Register(context.Background(), user, 1, nil)
		require.NoError(t, err)
	}

	_, err := ctrl.Register(context.Background(), 3, 1, nil)
	require.ErrorIs(t, err, ErrEventFull)
}

func TestRegister_RetriesOnceOnConflict(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 10, model.EventUpcoming)
	store.conflictsLeft = 1
	ctrl := NewController(store, false)

	reg, err := ctrl.Register(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	require.Equal(t, model.RegistrationConfirmed, reg.Status)
	require.Equal(t, 2, store.createCalls, "conflict should trigger exactly one re-run")
}

func TestRegister_ConflictSurfacesAfterSecondFailure(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 10, model.EventUpcoming)
	store.conflictsLeft = 2
	ctrl := NewController(store, false)

	_, err := ctrl.Register(context.Background(), 7, 1, nil)
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, 2, store.createCalls)
}

// TestRegister_ConcurrentCapacity races ten users for five slots and
// checks that exactly five win, the rest see ErrEventFull and the
// ledger never exceeds capacity.
func TestRegister_ConcurrentCapacity(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 5, model.EventUpcoming)
	ctrl := NewController(store, false)

	const racers = 10
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ctrl.Register(context.Background(), int64(i+1), 1, nil)
		}(i)
	}
	wg.Wait()

	won, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrEventFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 5, won)
	require.Equal(t, 5, full)

	n, err := store.CountConfirmed(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestCancel_Idempotent(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 5, model.EventUpcoming)
	ctrl := NewController(store, false)

	// Nothing to cancel: still a success.
	require.NoError(t, ctrl.CancelRegistration(context.Background(), 7, 1))

	// Event that does not exist: also a no-op success.
	require.NoError(t, ctrl.CancelRegistration(context.Background(), 7, 99))

	_, err := ctrl.Register(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	require.NoError(t, ctrl.CancelRegistration(context.Background(), 7, 1))
	require.NoError(t, ctrl.CancelRegistration(context.Background(), 7, 1))

	n, err := store.CountConfirmed(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestCancel_FreesSlot(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 1, model.EventUpcoming)
	ctrl := NewController(store, false)

	_, err := ctrl.Register(context.Background(), 1, 1, nil)
	require.NoError(t, err)

	_, err = ctrl.Register(context.Background(), 2, 1, nil)
	require.ErrorIs(t, err, ErrEventFull)

	require.NoError(t, ctrl.CancelRegistration(context.Background(), 1, 1))

	reg, err := ctrl.Register(context.Background(), 2, 1, nil)
	require.NoError(t, err)
	require.Equal(t, model.RegistrationConfirmed, reg.Status)
}

func TestRegister_ReactivatesCancelledRow(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 5, model.EventUpcoming)
	ctrl := NewController(store, false)

	first, err := ctrl.Register(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	require.NoError(t, ctrl.CancelRegistration(context.Background(), 7, 1))

	second, err := ctrl.Register(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "re-registration should reuse the pair's row")
	require.Equal(t, model.RegistrationConfirmed, second.Status)
}

func TestCheckIn_Success(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 5, model.EventOngoing)
	ctrl := NewController(store, false)

	_, err := ctrl.Register(context.Background(), 7, 1, nil)
	require.NoError(t, err)

	ci, err := ctrl.CheckIn(context.Background(), 7, 1, "main gate", "", nil)
	require.NoError(t, err)
	require.Greater(t, ci.ID, int64(0))
	require.NotEmpty(t, ci.Reference)
	require.Equal(t, model.CheckInManual, ci.Method, "empty method defaults to MANUAL")
	require.Equal(t, "main gate", ci.Location)
	require.False(t, ci.CheckInTime.IsZero())
}

func TestCheckIn_NotRegistered(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 5, model.EventOngoing)
	ctrl := NewController(store, false)

	_, err := ctrl.CheckIn(context.Background(), 7, 1, "", model.CheckInQR, nil)
	require.ErrorIs(t, err, ErrNotRegistered)

	// A cancelled registration does not admit either.
	_, err = ctrl.Register(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	require.NoError(t, ctrl.CancelRegistration(context.Background(), 7, 1))
	_, err = ctrl.CheckIn(context.Background(), 7, 1, "", model.CheckInQR, nil)
	require.ErrorIs(t, err, ErrNotRegistered)

	// Missing event reads as not registered, not as a catalog error.
	_, err = ctrl.CheckIn(context.Background(), 7, 99, "", model.CheckInQR, nil)
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestCheckIn_Double(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 5, model.EventOngoing)
	ctrl := NewController(store, false)

	_, err := ctrl.Register(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	_, err = ctrl.CheckIn(context.Background(), 7, 1, "door A", model.CheckInNFC, nil)
	require.NoError(t, err)

	_, err = ctrl.CheckIn(context.Background(), 7, 1, "door B", model.CheckInNFC, nil)
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestCheckIn_CancelledEvent(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, 5, model.EventUpcoming)
	ctrl := NewController(store, false)

	_, err := ctrl.Register(context.Background(), 7, 1, nil)
	require.NoError(t, err)

	store.addEvent(1, 5, model.EventCancelled)
	_, err = ctrl.CheckIn(context.Background(), 7, 1, "", model.CheckInManual, nil)
	require.ErrorIs(t, err, ErrEventClosed)
}

// TestAdmission_CapacityNeverExceeded drives random interleavings of
// registrations and cancellations and checks the core invariant: the
// number of CONFIRMED registrations never exceeds the event capacity.
func TestAdmission_CapacityNeverExceeded(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(r, "capacity")
		users := rapid.IntRange(1, 20).Draw(r, "users")
		steps := rapid.IntRange(1, 60).Draw(r, "steps")

		store := newMemStore()
		store.addEvent(1, capacity, model.EventUpcoming)
		ctrl := NewController(store, false)

		for i := 0; i < steps; i++ {
			userID := int64(rapid.IntRange(1, users).Draw(r, "user"))
			if rapid.Bool().Draw(r, "register") {
				_, err := ctrl.Register(context.Background(), userID, 1, nil)
				if err != nil {
					require.True(r,
						errors.Is(err, ErrAlreadyRegistered) || errors.Is(err, ErrEventFull),
						"unexpected error: %v", err)
				}
			} else {
				require.NoError(r, ctrl.CancelRegistration(context.Background(), userID, 1))
			}

			n, err := store.CountConfirmed(context.Background(), 1)
			require.NoError(r, err)
			require.LessOrEqual(r, n, capacity)
		}
	})
}
