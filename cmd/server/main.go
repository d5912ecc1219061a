package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/campushq/campus-events/internal/admission"
	"github.com/campushq/campus-events/internal/config"
	"github.com/campushq/campus-events/internal/database"
	"github.com/campushq/campus-events/internal/handler"
	"github.com/campushq/campus-events/internal/identity"
	"github.com/campushq/campus-events/internal/queue"
	"github.com/campushq/campus-events/internal/repository"
	"github.com/campushq/campus-events/internal/router"
)

func main() {
	// Load .env when present; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response caching disabled")
	}

	// Ledgers and read repositories.
	events := repository.NewEventRepo(db)
	categories := repository.NewCategoryRepo(db)
	registrations := repository.NewRegistrationRepo(db)
	checkIns := repository.NewCheckInRepo(db)
	users := repository.NewUserRepo(db)
	analytics := repository.NewAnalyticsRepo(db)

	ctrl := admission.NewController(repository.NewAdmissionStore(db), cfg.AdmitCancelled)
	resolver := identity.NewResolver(cfg.JWTSecret, users, time.Duration(cfg.IdentityTTLSec)*time.Second)

	// Attendance log consumer runs for the life of the process and
	// reconnects on broker failures.
	go func() {
		if err := queue.StartAttendanceConsumer(); err != nil {
			log.Printf("attendance consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Resolver:      resolver,
		Redis:         rdb,
		RateLimit:     config.LoadRateLimitConfig(),
		Cache:         config.LoadCacheConfig(),
		Events:        handler.NewEventHandler(events, categories),
		Registrations: handler.NewRegistrationHandler(ctrl, registrations, events),
		CheckIns:      handler.NewCheckInHandler(ctrl, checkIns, registrations, events),
		Analytics:     handler.NewAnalyticsHandler(analytics),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
