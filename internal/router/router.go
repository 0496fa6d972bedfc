package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-table-reservation/internal/config"
	"github.com/iliyamo/venue-table-reservation/internal/handler"
	"github.com/iliyamo/venue-table-reservation/internal/middleware"
	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the staff authentication routes.
// Unauthenticated operations live under /v1/auth; there is no open
// registration, only ADMIN-provisioned accounts via RegisterAPI.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token in the body and needs no JWT.
	g.POST("/logout", a.Logout)
}

// RegisterAPI registers the protected booking, check-in and search
// endpoints.  Every route requires a valid staff access token; role
// enforcement narrows per group.  The rate limiter and the response
// cache are optional: either is skipped when rdb is nil or its config
// disables it.
func RegisterAPI(
	e *echo.Echo,
	cfg config.Config,
	a *handler.AuthHandler,
	b *handler.BookingHandler,
	ci *handler.CheckInHandler,
	s *handler.SearchHandler,
	tbl *handler.TableHandler,
	rdb *redis.Client,
) {
	api := e.Group("/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))

	if rdb != nil {
		rl := config.LoadRateLimitConfig()
		if rl.Enabled {
			api.Use(middleware.NewTokenBucket(rl, rdb))
		}
	}

	// Booking mutations are admin territory.  The state machine checks
	// the capability again, so a misrouted request still cannot mutate.
	admin := api.Group("/bookings")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/:id", b.Get)
	admin.PATCH("/:id", b.Patch)

	// Staff provisioning is also admin-only.
	staff := api.Group("/staff")
	staff.Use(middleware.RequireRole(model.RoleAdmin))
	staff.POST("", a.CreateStaff)

	// Door endpoints accept both roles; ADMIN covers for the door when
	// short-staffed.
	door := api.Group("", middleware.RequireRole(model.RoleDoor, model.RoleAdmin))
	door.POST("/checkin/verify", ci.Verify)
	door.POST("/checkin/commit", ci.Commit)
	door.GET("/tables", tbl.List)

	// Door tablets poll the search; a short-TTL response cache absorbs
	// the repeats.  The static segment wins over /bookings/:id routing.
	if rdb != nil {
		door.GET("/bookings/search", s.Search, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		door.GET("/bookings/search", s.Search)
	}
}
