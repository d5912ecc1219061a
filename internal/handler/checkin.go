package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/campushq/campus-events/internal/admission"
	"github.com/campushq/campus-events/internal/model"
	"github.com/campushq/campus-events/internal/queue"
	"github.com/campushq/campus-events/internal/repository"
)

// CheckInHandler serves attendance recording and the staff attendance
// view.
type CheckInHandler struct {
	Admission     *admission.Controller
	CheckIns      checkInReader
	Registrations registrationReader
	Events        eventReader
}

// NewCheckInHandler constructs a CheckInHandler. All dependencies must
// be non-nil.
func NewCheckInHandler(ctrl *admission.Controller, checkIns checkInReader, regs registrationReader, events eventReader) *CheckInHandler {
	if ctrl == nil || checkIns == nil || regs == nil || events == nil {
		panic("nil dependency passed to NewCheckInHandler")
	}
	return &CheckInHandler{Admission: ctrl, CheckIns: checkIns, Registrations: regs, Events: events}
}

// Create handles POST /v1/events/:id/checkins. The body may carry
// location, method and metadata; method defaults to MANUAL. A repeat
// check-in returns 409 already_checked_in together with the id of the
// existing record, so clients that retry see the state they asked for.
func (h *CheckInHandler) Create(c echo.Context) error {
	ident, ok := caller(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "not_authenticated", "missing identity")
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "bad_request", "invalid event id")
	}
	var body struct {
		Location string  `json:"location"`
		Method   string  `json:"method"`
		Metadata *string `json:"metadata"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "bad_request", "invalid request body")
	}
	method := model.CheckInMethod(body.Method)
	if body.Method != "" && !method.Valid() {
		return fail(c, http.StatusBadRequest, "bad_request", "unknown check-in method")
	}

	ci, err := h.Admission.CheckIn(c.Request().Context(), ident.UserID, eventID, body.Location, method, body.Metadata)
	switch {
	case err == nil:
		// fall through to success response
	case errors.Is(err, admission.ErrNotRegistered):
		return fail(c, http.StatusConflict, "not_registered", "not registered for this event")
	case errors.Is(err, admission.ErrEventClosed):
		return fail(c, http.StatusConflict, "event_closed", "event is cancelled")
	case errors.Is(err, admission.ErrAlreadyCheckedIn):
		resp := echo.Map{"error": "already_checked_in", "message": "already checked in"}
		if existing, lookupErr := h.CheckIns.GetByUserAndEvent(c.Request().Context(), ident.UserID, eventID); lookupErr == nil && existing != nil {
			resp["check_in_id"] = existing.ID
			resp["reference"] = existing.Reference
		}
		return c.JSON(http.StatusConflict, resp)
	case errors.Is(err, admission.ErrConflict):
		return fail(c, http.StatusConflict, "conflict", "concurrent check-in, please retry")
	default:
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}

	h.publishRecorded(c.Request().Context(), ci)
	return c.JSON(http.StatusCreated, echo.Map{
		"success":       true,
		"check_in_id":   ci.ID,
		"reference":     ci.Reference,
		"method":        string(ci.Method),
		"check_in_time": ci.CheckInTime.Format(time.RFC3339),
	})
}

// ListByEvent handles GET /v1/events/:id/checkins for staff. It pairs
// the attendance roll with the event's confirmed registration count so
// the door staff can see turnout at a glance.
func (h *CheckInHandler) ListByEvent(c echo.Context) error {
	eventID, ok := eventIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "bad_request", "invalid event id")
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return fail(c, http.StatusNotFound, "event_not_found", "event not found")
		}
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}
	records, err := h.CheckIns.ListByEvent(ctx, eventID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}
	registered, err := h.Registrations.CountConfirmedByEvent(ctx, eventID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id":   eventID,
		"registered": registered,
		"attended":   len(records),
		"check_ins":  records,
	})
}

// publishRecorded emits the checkin.recorded event in the background.
func (h *CheckInHandler) publishRecorded(ctx context.Context, ci *model.CheckIn) {
	title := ""
	if ev, err := h.Events.GetByID(ctx, ci.EventID); err == nil {
		title = ev.Title
	}
	ev := queue.CheckInRecordedEvent{
		MessageID:  uuid.New().String(),
		CheckInID:  ci.ID,
		Reference:  ci.Reference,
		UserID:     ci.UserID,
		EventID:    ci.EventID,
		EventTitle: title,
		Location:   ci.Location,
		Method:     string(ci.Method),
		RecordedAt: ci.CheckInTime.Format(time.RFC3339),
	}
	go func() { _ = queue.PublishCheckInRecorded(context.Background(), ev) }()
}
