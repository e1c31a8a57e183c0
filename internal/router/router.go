package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/court-club-reservation/internal/config"
	"github.com/iliyamo/court-club-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/court-club-reservation/internal/middleware" // import middleware for JWT authentication and rate limiting
)

// Handlers bundles every handler the router mounts so main only passes one
// value in.
type Handlers struct {
	Booking *handler.BookingHandler
	Court   *handler.CourtHandler
	Wallet  *handler.WalletHandler
	WS      *handler.WSHandler
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the websocket upgrade (which
// authenticates itself via its token query parameter).
func RegisterRoutes(e *echo.Echo, h Handlers) {
	// The health endpoint is used by load balancers and monitoring systems
	// to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
	e.GET("/ws", h.WS.Serve)
}

// RegisterAPI registers the authenticated /v1 surface.  Every route in the
// group runs the JWT middleware first, then the Redis token bucket.  The
// court catalog and availability reads additionally sit behind the response
// cache, since they are the hot read path during peak booking hours.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client, rl config.RateLimitConfig, cache config.CacheConfig) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.NewTokenBucket(rl, rdb))

	cached := middleware.NewRedisCache(cache, rdb)

	// Court catalog and per-day availability.
	v1.GET("/courts", h.Court.List, cached)
	v1.GET("/courts/:id/availability", h.Court.Availability, cached)

	// Booking lifecycle: hold, confirm-and-pay, release, browse.
	v1.POST("/bookings/hold", h.Booking.Hold)
	v1.POST("/bookings", h.Booking.Create)
	v1.POST("/bookings/:id/release", h.Booking.Release)
	v1.POST("/bookings/:id/cancel", h.Booking.Cancel)
	v1.GET("/bookings", h.Booking.List)
	v1.GET("/bookings/:id", h.Booking.Get)

	// Member wallet.
	v1.GET("/wallet", h.Wallet.Overview)
	v1.POST("/wallet/deposit", h.Wallet.Deposit)
}
