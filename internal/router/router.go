// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/campushq/campus-events/internal/config"
	"github.com/campushq/campus-events/internal/handler"
	"github.com/campushq/campus-events/internal/identity"
	"github.com/campushq/campus-events/internal/middleware"
	"github.com/campushq/campus-events/internal/model"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Resolver      *identity.Resolver
	Redis         *redis.Client // may be nil; rate limiting and caching degrade to no-ops
	RateLimit     config.RateLimitConfig
	Cache         config.CacheConfig
	Events        *handler.EventHandler
	Registrations *handler.RegistrationHandler
	CheckIns      *handler.CheckInHandler
	Analytics     *handler.AnalyticsHandler
}

// Register wires all routes. Public browse endpoints are unauthenticated
// and response-cached; admission endpoints require an identity and are
// rate limited; the analytics and attendance views additionally require
// a STAFF or ADMIN role.
func Register(e *echo.Echo, d Deps) {
	cache := middleware.ResponseCache(d.Cache, d.Redis)
	limit := middleware.RateLimit(d.RateLimit, d.Redis)
	authn := middleware.Authenticate(d.Resolver)
	staff := middleware.RequireRole(model.RoleStaff, model.RoleAdmin)

	e.GET("/healthz", handler.Health)

	// Public browse surface.
	e.GET("/v1/events", d.Events.List, cache)
	e.GET("/v1/events/:id", d.Events.Get, cache)
	e.GET("/v1/categories", d.Events.ListCategories, cache)

	// Admission surface. Every route below sees a resolved identity.
	auth := e.Group("/v1", authn, limit)
	auth.POST("/events/:id/registrations", d.Registrations.Register)
	auth.DELETE("/events/:id/registrations", d.Registrations.Cancel)
	auth.GET("/registrations", d.Registrations.ListMine)
	auth.POST("/events/:id/checkins", d.CheckIns.Create)

	// Staff-only reporting.
	auth.GET("/events/:id/checkins", d.CheckIns.ListByEvent, staff)
	auth.GET("/analytics", d.Analytics.Summary, staff, cache)
}
