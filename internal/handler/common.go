// Package handler implements the HTTP surface of the service. Handlers
// parse and validate input, hand admission decisions to the controller,
// translate sentinel errors into stable machine-readable response kinds
// and never contain admission logic themselves. Authentication and role
// checks have already happened in middleware by the time a handler runs.
package handler

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/campushq/campus-events/internal/identity"
	"github.com/campushq/campus-events/internal/middleware"
	"github.com/campushq/campus-events/internal/model"
	"github.com/campushq/campus-events/internal/repository"
)

// The handlers read the ledgers through narrow interfaces so transport
// behavior can be exercised without a database. The repository types
// satisfy them.

// eventReader reads single catalog rows.
type eventReader interface {
	GetByID(ctx context.Context, eventID int64) (*model.Event, error)
}

// registrationReader is the slice of the registration ledger the
// handlers read outside admission decisions.
type registrationReader interface {
	GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*model.Registration, error)
	ListByUser(ctx context.Context, userID int64) ([]repository.RegistrationDetail, error)
	CountConfirmedByEvent(ctx context.Context, eventID int64) (int, error)
}

// checkInReader is the slice of the attendance ledger the handlers read
// outside admission decisions.
type checkInReader interface {
	GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*model.CheckIn, error)
	ListByEvent(ctx context.Context, eventID int64) ([]repository.CheckInRecord, error)
}

// caller returns the resolved identity. The second return is false
// when no identity is present, which on an authenticated route means
// the router is miswired; handlers reply 401 in that case.
func caller(c echo.Context) (identity.Identity, bool) {
	return middleware.CallerIdentity(c)
}

// eventIDParam parses the :id path parameter as a positive event id.
func eventIDParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// fail writes a machine-readable error payload.
func fail(c echo.Context, status int, kind, message string) error {
	return c.JSON(status, echo.Map{"error": kind, "message": message})
}
