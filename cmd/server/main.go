package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-table-reservation/internal/booking"
	"github.com/iliyamo/venue-table-reservation/internal/checkin"
	"github.com/iliyamo/venue-table-reservation/internal/config"
	"github.com/iliyamo/venue-table-reservation/internal/database"
	"github.com/iliyamo/venue-table-reservation/internal/handler"
	"github.com/iliyamo/venue-table-reservation/internal/queue"
	"github.com/iliyamo/venue-table-reservation/internal/repository"
	"github.com/iliyamo/venue-table-reservation/internal/router"
)

func main() {
	// Local development reads .env; in production the variables come
	// from the environment and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the limiter and the search cache
	// are skipped and everything else works unchanged.
	rdb := config.NewRedisClient()

	bookings := repository.NewBookingRepo(db)
	tables := repository.NewTableRepo(db)
	staff := repository.NewStaffRepo(db)
	tokens := repository.NewTokenRepo(db)

	machine := booking.NewStateMachine(bookings, cfg.VenueLocation, cfg.AllowNoShowReconfirm)
	tokenSvc := checkin.NewTokenService(cfg.CheckInSecret, cfg.VenueID, cfg.VenueName, cfg.CheckInURL)
	verifier := checkin.NewVerifier(bookings, tables, cfg.CheckInSecret, cfg.VenueID, cfg.VenueLocation)

	authH := handler.NewAuthHandler(cfg, staff, tokens)
	bookingH := handler.NewBookingHandler(machine, tables, tokenSvc)
	checkinH := handler.NewCheckInHandler(verifier)
	searchH := handler.NewSearchHandler(bookings, cfg.VenueLocation)
	tableH := handler.NewTableHandler(tables)

	// Drain the audit queue in the background for the whole process
	// lifetime; the consumer reconnects on its own.
	go queue.StartAuditConsumer()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH)
	router.RegisterAPI(e, cfg, authH, bookingH, checkinH, searchH, tableH, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s venue=%s)", addr, cfg.Env, cfg.VenueID)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
