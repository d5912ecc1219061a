package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campushq/campus-events/internal/repository"
)

// AnalyticsHandler serves the reporting view. Role enforcement (STAFF
// or ADMIN) happens in middleware; the handler itself is a straight
// read of the aggregate summary.
type AnalyticsHandler struct {
	Analytics *repository.AnalyticsRepo
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(analytics *repository.AnalyticsRepo) *AnalyticsHandler {
	if analytics == nil {
		panic("nil repository passed to NewAnalyticsHandler")
	}
	return &AnalyticsHandler{Analytics: analytics}
}

// Summary handles GET /v1/analytics.
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	s, err := h.Analytics.Summary(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "database error")
	}
	return c.JSON(http.StatusOK, s)
}
