package main // Entry point package

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-club-reservation/internal/config"
	"github.com/iliyamo/court-club-reservation/internal/database"
	"github.com/iliyamo/court-club-reservation/internal/handler"
	"github.com/iliyamo/court-club-reservation/internal/queue"
	"github.com/iliyamo/court-club-reservation/internal/reaper"
	"github.com/iliyamo/court-club-reservation/internal/repository"
	"github.com/iliyamo/court-club-reservation/internal/router"
	"github.com/iliyamo/court-club-reservation/internal/service"
	"github.com/iliyamo/court-club-reservation/internal/ws"
)

func main() {
	// Load variables from a .env file when present; real deployments set
	// them in the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Optional subsystems: a missing Redis or broker degrades the service
	// (no rate limit, no cache, no events) but never prevents startup.
	rdb := config.NewRedisClient()
	pub, err := queue.NewPublisher(queue.BrokerURL())
	if err != nil {
		log.Printf("broker unavailable, events disabled: %v", err)
	}
	defer pub.Close()

	hub := ws.NewHub()
	broadcast := service.NewEventBroadcaster(pub, hub)

	txr := &database.TxRunner{DB: db}
	bookings := repository.NewBookingRepo(db)
	courts := repository.NewCourtRepo(db)
	members := repository.NewMemberRepo(db)
	wallet := repository.NewWalletRepo(db)

	reservations := service.NewReservationService(txr, bookings, courts, members, wallet, broadcast, time.Now)
	wallets := service.NewWalletService(txr, members, wallet, time.Now)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background workers: the hold reaper and the booking audit consumer.
	go reaper.New(txr, bookings, broadcast, time.Now, cfg.ReaperInterval).Run(ctx)
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	h := router.Handlers{
		Booking: handler.NewBookingHandler(reservations),
		Court:   handler.NewCourtHandler(reservations, courts),
		Wallet:  handler.NewWalletHandler(wallets),
		WS:      handler.NewWSHandler(hub, cfg.JWTSecret),
	}
	router.RegisterRoutes(e, h)
	router.RegisterAPI(e, h, cfg.JWTSecret, rdb, config.LoadRateLimitConfig(), config.LoadCacheConfig())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
