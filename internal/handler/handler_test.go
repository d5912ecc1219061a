package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-events/internal/admission"
	"github.com/campushq/campus-events/internal/identity"
	"github.com/campushq/campus-events/internal/model"
	"github.com/campushq/campus-events/internal/repository"
)

// fakeStore is a minimal in-memory admission.Store for exercising the
// HTTP layer. It serves a single event and tracks registrations and
// check-ins per user id.
type fakeStore struct {
	gate      admission.EventGate
	hasEvent  bool
	confirmed map[int64]bool
	checked   map[int64]bool
	nextID    int64
}

func newFakeStore(capacity int, status model.EventStatus) *fakeStore {
	return &fakeStore{
		gate:      admission.EventGate{ID: 1, Capacity: capacity, Status: status},
		hasEvent:  true,
		confirmed: make(map[int64]bool),
		checked:   make(map[int64]bool),
	}
}

func (s *fakeStore) Atomic(_ context.Context, fn func(tx admission.Tx) error) error {
	return fn(s)
}

func (s *fakeStore) EventForAdmission(_ context.Context, eventID int64) (admission.EventGate, error) {
	if !s.hasEvent || eventID != s.gate.ID {
		return admission.EventGate{}, admission.ErrEventNotFound
	}
	return s.gate, nil
}

func (s *fakeStore) HasConfirmedRegistration(_ context.Context, userID, _ int64) (bool, error) {
	return s.confirmed[userID], nil
}

func (s *fakeStore) CountConfirmed(_ context.Context, _ int64) (int, error) {
	return len(s.confirmed), nil
}

func (s *fakeStore) CreateRegistration(_ context.Context, reg *model.Registration) error {
	s.nextID++
	reg.ID = s.nextID
	s.confirmed[reg.UserID] = true
	return nil
}

func (s *fakeStore) CancelRegistration(_ context.Context, userID, _ int64) (bool, error) {
	had := s.confirmed[userID]
	delete(s.confirmed, userID)
	return had, nil
}

func (s *fakeStore) HasCheckIn(_ context.Context, userID, _ int64) (bool, error) {
	return s.checked[userID], nil
}

func (s *fakeStore) CreateCheckIn(_ context.Context, ci *model.CheckIn) error {
	s.nextID++
	ci.ID = s.nextID
	s.checked[ci.UserID] = true
	return nil
}

type fakeEvents struct{ event *model.Event }

func (f *fakeEvents) GetByID(_ context.Context, eventID int64) (*model.Event, error) {
	if f.event == nil || f.event.ID != eventID {
		return nil, repository.ErrEventNotFound
	}
	return f.event, nil
}

type fakeRegs struct {
	existing  *model.Registration
	list      []repository.RegistrationDetail
	confirmed int
}

func (f *fakeRegs) GetByUserAndEvent(context.Context, int64, int64) (*model.Registration, error) {
	return f.existing, nil
}

func (f *fakeRegs) ListByUser(context.Context, int64) ([]repository.RegistrationDetail, error) {
	return f.list, nil
}

func (f *fakeRegs) CountConfirmedByEvent(context.Context, int64) (int, error) {
	return f.confirmed, nil
}

type fakeCheckIns struct {
	existing *model.CheckIn
	records  []repository.CheckInRecord
}

func (f *fakeCheckIns) GetByUserAndEvent(context.Context, int64, int64) (*model.CheckIn, error) {
	return f.existing, nil
}

func (f *fakeCheckIns) ListByEvent(context.Context, int64) ([]repository.CheckInRecord, error) {
	return f.records, nil
}

// newContext builds an echo context for a request against /v1/events/:id
// style routes. ident == nil simulates a request that skipped the
// authentication middleware.
func newContext(t *testing.T, method, body, eventID string, ident *identity.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if eventID != "" {
		c.SetParamNames("id")
		c.SetParamValues(eventID)
	}
	if ident != nil {
		c.Set("identity", *ident)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func student() *identity.Identity {
	return &identity.Identity{UserID: 7, Role: model.RoleStudent, Name: "Dana"}
}

func testEvent() *model.Event {
	return &model.Event{ID: 1, Title: "Intro to Go", Capacity: 10, Status: model.EventUpcoming}
}

func newRegistrationHandler(store *fakeStore, regs *fakeRegs) *RegistrationHandler {
	return NewRegistrationHandler(admission.NewController(store, false), regs, &fakeEvents{event: testEvent()})
}

func TestRegisterEndpoint_Created(t *testing.T) {
	h := newRegistrationHandler(newFakeStore(10, model.EventUpcoming), &fakeRegs{})

	c, rec := newContext(t, http.MethodPost, `{"metadata":"{\"team\":\"blue\"}"}`, "1", student())
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(1), body["registration_id"])
	require.Equal(t, "CONFIRMED", body["status"])
	require.NotEmpty(t, body["registered_at"])
}

func TestRegisterEndpoint_NotAuthenticated(t *testing.T) {
	h := newRegistrationHandler(newFakeStore(10, model.EventUpcoming), &fakeRegs{})

	c, rec := newContext(t, http.MethodPost, "", "1", nil)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "not_authenticated", decode(t, rec)["error"])
}

func TestRegisterEndpoint_BadEventID(t *testing.T) {
	h := newRegistrationHandler(newFakeStore(10, model.EventUpcoming), &fakeRegs{})

	for _, id := range []string{"abc", "0", "-3"} {
		c, rec := newContext(t, http.MethodPost, "", id, student())
		require.NoError(t, h.Register(c))
		require.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
		require.Equal(t, "bad_request", decode(t, rec)["error"])
	}
}

func TestRegisterEndpoint_EventNotFound(t *testing.T) {
	store := newFakeStore(10, model.EventUpcoming)
	store.hasEvent = false
	h := newRegistrationHandler(store, &fakeRegs{})

	c, rec := newContext(t, http.MethodPost, "", "1", student())
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "event_not_found", decode(t, rec)["error"])
}

func TestRegisterEndpoint_EventFull(t *testing.T) {
	store := newFakeStore(1, model.EventUpcoming)
	store.confirmed[99] = true
	h := newRegistrationHandler(store, &fakeRegs{})

	c, rec := newContext(t, http.MethodPost, "", "1", student())
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "event_full", decode(t, rec)["error"])
}

func TestRegisterEndpoint_EventClosed(t *testing.T) {
	h := newRegistrationHandler(newFakeStore(10, model.EventCancelled), &fakeRegs{})

	c, rec := newContext(t, http.MethodPost, "", "1", student())
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "event_closed", decode(t, rec)["error"])
}

func TestRegisterEndpoint_AlreadyRegistered(t *testing.T) {
	store := newFakeStore(10, model.EventUpcoming)
	store.confirmed[7] = true
	regs := &fakeRegs{existing: &model.Registration{ID: 55, UserID: 7, EventID: 1, Status: model.RegistrationConfirmed}}
	h := newRegistrationHandler(store, regs)

	c, rec := newContext(t, http.MethodPost, "", "1", student())
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "already_registered", body["error"])
	require.Equal(t, float64(55), body["registration_id"], "response should point at the registration the caller already holds")
}

func TestCancelEndpoint_Idempotent(t *testing.T) {
	store := newFakeStore(10, model.EventUpcoming)
	store.confirmed[7] = true
	h := newRegistrationHandler(store, &fakeRegs{})

	for i := 0; i < 2; i++ {
		c, rec := newContext(t, http.MethodDelete, "", "1", student())
		require.NoError(t, h.Cancel(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, true, decode(t, rec)["success"])
	}
	require.Empty(t, store.confirmed)
}

func TestListMineEndpoint(t *testing.T) {
	regs := &fakeRegs{list: []repository.RegistrationDetail{{ID: 3, Status: "CONFIRMED"}, {ID: 1, Status: "CANCELLED"}}}
	h := newRegistrationHandler(newFakeStore(10, model.EventUpcoming), regs)

	c, rec := newContext(t, http.MethodGet, "", "", student())
	require.NoError(t, h.ListMine(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["registrations"], 2)
}

func newCheckInHandler(store *fakeStore, checkIns *fakeCheckIns, regs *fakeRegs, events *fakeEvents) *CheckInHandler {
	return NewCheckInHandler(admission.NewController(store, false), checkIns, regs, events)
}

func TestCheckInEndpoint_Created(t *testing.T) {
	store := newFakeStore(10, model.EventOngoing)
	store.confirmed[7] = true
	h := newCheckInHandler(store, &fakeCheckIns{}, &fakeRegs{}, &fakeEvents{event: testEvent()})

	c, rec := newContext(t, http.MethodPost, `{"location":"main gate","method":"QR"}`, "1", student())
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, "QR", body["method"])
	require.NotEmpty(t, body["reference"])
	require.NotEmpty(t, body["check_in_time"])
}

func TestCheckInEndpoint_DefaultsToManual(t *testing.T) {
	store := newFakeStore(10, model.EventOngoing)
	store.confirmed[7] = true
	h := newCheckInHandler(store, &fakeCheckIns{}, &fakeRegs{}, &fakeEvents{event: testEvent()})

	c, rec := newContext(t, http.MethodPost, "", "1", student())
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "MANUAL", decode(t, rec)["method"])
}

func TestCheckInEndpoint_UnknownMethod(t *testing.T) {
	h := newCheckInHandler(newFakeStore(10, model.EventOngoing), &fakeCheckIns{}, &fakeRegs{}, &fakeEvents{event: testEvent()})

	c, rec := newContext(t, http.MethodPost, `{"method":"TELEPATHY"}`, "1", student())
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "bad_request", decode(t, rec)["error"])
}

func TestCheckInEndpoint_NotRegistered(t *testing.T) {
	h := newCheckInHandler(newFakeStore(10, model.EventOngoing), &fakeCheckIns{}, &fakeRegs{}, &fakeEvents{event: testEvent()})

	c, rec := newContext(t, http.MethodPost, "", "1", student())
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "not_registered", decode(t, rec)["error"])
}

func TestCheckInEndpoint_AlreadyCheckedIn(t *testing.T) {
	store := newFakeStore(10, model.EventOngoing)
	store.confirmed[7] = true
	store.checked[7] = true
	checkIns := &fakeCheckIns{existing: &model.CheckIn{ID: 42, Reference: "ref-42", UserID: 7, EventID: 1}}
	h := newCheckInHandler(store, checkIns, &fakeRegs{}, &fakeEvents{event: testEvent()})

	c, rec := newContext(t, http.MethodPost, "", "1", student())
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "already_checked_in", body["error"])
	require.Equal(t, float64(42), body["check_in_id"])
	require.Equal(t, "ref-42", body["reference"])
}

func TestAttendanceEndpoint(t *testing.T) {
	checkIns := &fakeCheckIns{records: []repository.CheckInRecord{
		{ID: 1, UserID: 7, UserName: "Dana", Method: "QR"},
		{ID: 2, UserID: 8, UserName: "Sam", Method: "MANUAL"},
	}}
	regs := &fakeRegs{confirmed: 5}
	h := newCheckInHandler(newFakeStore(10, model.EventOngoing), checkIns, regs, &fakeEvents{event: testEvent()})

	c, rec := newContext(t, http.MethodGet, "", "1", student())
	require.NoError(t, h.ListByEvent(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, float64(1), body["event_id"])
	require.Equal(t, float64(5), body["registered"])
	require.Equal(t, float64(2), body["attended"])
	require.Len(t, body["check_ins"], 2)
}

func TestAttendanceEndpoint_EventNotFound(t *testing.T) {
	h := newCheckInHandler(newFakeStore(10, model.EventOngoing), &fakeCheckIns{}, &fakeRegs{}, &fakeEvents{})

	c, rec := newContext(t, http.MethodGet, "", "99", student())
	require.NoError(t, h.ListByEvent(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "event_not_found", decode(t, rec)["error"])
}
