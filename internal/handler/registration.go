package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/campushq/campus-events/internal/admission"
	"github.com/campushq/campus-events/internal/queue"
)

// RegistrationHandler serves registration admission, cancellation and
// the caller's own registration listing. Admission decisions are
// delegated entirely to the controller; this layer only translates
// transport concerns.
type RegistrationHandler struct {
	Admission     *admission.Controller
	Registrations registrationReader
	Events        eventReader
}

// NewRegistrationHandler constructs a RegistrationHandler. All
// dependencies must be non-nil.
func NewRegistrationHandler(ctrl *admission.Controller, regs registrationReader, events eventReader) *RegistrationHandler {
	if ctrl == nil || regs == nil || events == nil {
		panic("nil dependency passed to NewRegistrationHandler")
	}
	return &RegistrationHandler{Admission: ctrl, Registrations: regs, Events: events}
}

// Register handles POST /v1/events/:id/registrations. The body may
// carry an optional metadata string. On success it returns 201 with the
// new registration id. Losing the race for the last slot yields 422
// event_full; an existing registration yields 409 already_registered
// with the id of the registration the caller already holds.
func (h *RegistrationHandler) Register(c echo.Context) error {
	ident, ok := caller(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "not_authenticated", "missing identity")
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "bad_request", "invalid event id")
	}
	var body struct {
		Metadata *string `json:"metadata"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "bad_request", "invalid request body")
	}

	reg, err := h.Admission.Register(c.Request().Context(), ident.UserID, eventID, body.Metadata)
	switch {
	case err == nil:
		// fall through to success response
	case errors.Is(err, admission.ErrEventNotFound):
		return fail(c, http.StatusNotFound, "event_not_found", "event not found")
	case errors.Is(err, admission.ErrEventClosed):
		return fail(c, http.StatusConflict, "event_closed", "event is cancelled")
	case errors.Is(err, admission.ErrEventFull):
		return fail(c, http.StatusUnprocessableEntity, "event_full", "event is full")
	case errors.Is(err, admission.ErrAlreadyRegistered):
		resp := echo.Map{"error": "already_registered", "message": "already registered for this event"}
		if existing, lookupErr := h.Registrations.GetByUserAndEvent(c.Request().Context(), ident.UserID, eventID); lookupErr == nil && existing != nil {
			resp["registration_id"] = existing.ID
		}
		return c.JSON(http.StatusConflict, resp)
	case errors.Is(err, admission.ErrConflict):
		return fail(c, http.StatusConflict, "conflict", "concurrent admission, please retry")
	default:
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}

	h.publishConfirmed(c.Request().Context(), reg.ID, ident.UserID, eventID, reg.RegisteredAt)
	return c.JSON(http.StatusCreated, echo.Map{
		"success":         true,
		"registration_id": reg.ID,
		"status":          string(reg.Status),
		"registered_at":   reg.RegisteredAt.Format(time.RFC3339),
	})
}

// Cancel handles DELETE /v1/events/:id/registrations. Cancellation is
// idempotent: cancelling an absent registration still returns success.
func (h *RegistrationHandler) Cancel(c echo.Context) error {
	ident, ok := caller(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "not_authenticated", "missing identity")
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "bad_request", "invalid event id")
	}
	if err := h.Admission.CancelRegistration(c.Request().Context(), ident.UserID, eventID); err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ListMine handles GET /v1/registrations. Registrations are returned
// newest first with an embedded event summary.
func (h *RegistrationHandler) ListMine(c echo.Context) error {
	ident, ok := caller(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "not_authenticated", "missing identity")
	}
	regs, err := h.Registrations.ListByUser(c.Request().Context(), ident.UserID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"registrations": regs})
}

// publishConfirmed emits the registration.confirmed event in the
// background. The admission already committed, so publish failures are
// logged inside the queue package and otherwise ignored.
func (h *RegistrationHandler) publishConfirmed(ctx context.Context, regID, userID, eventID int64, registeredAt time.Time) {
	title := ""
	if ev, err := h.Events.GetByID(ctx, eventID); err == nil {
		title = ev.Title
	}
	ev := queue.RegistrationConfirmedEvent{
		MessageID:      uuid.New().String(),
		RegistrationID: regID,
		UserID:         userID,
		EventID:        eventID,
		EventTitle:     title,
		RegisteredAt:   registeredAt.Format(time.RFC3339),
	}
	go func() { _ = queue.PublishRegistrationConfirmed(context.Background(), ev) }()
}
