package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campushq/campus-events/internal/repository"
)

// EventHandler serves the public browse surface: event listings with
// live confirmed-registration counts, event details and categories.
// Everything here is read-only plumbing over the catalog and ledgers.
type EventHandler struct {
	Events     *repository.EventRepo
	Categories *repository.CategoryRepo
}

// NewEventHandler constructs an EventHandler. Dependencies must be non-nil.
func NewEventHandler(events *repository.EventRepo, categories *repository.CategoryRepo) *EventHandler {
	if events == nil || categories == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Categories: categories}
}

// List handles GET /v1/events.
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.Events.List(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	eventID, ok := eventIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "bad_request", "invalid event id")
	}
	ev, err := h.Events.GetSummary(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return fail(c, http.StatusNotFound, "event_not_found", "event not found")
		}
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"event": ev})
}

// ListCategories handles GET /v1/categories.
func (h *EventHandler) ListCategories(c echo.Context) error {
	cats, err := h.Categories.List(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}
	out := make([]echo.Map, 0, len(cats))
	for _, cat := range cats {
		out = append(out, echo.Map{
			"id":          cat.ID,
			"name":        cat.Name,
			"description": cat.Description,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": out})
}
