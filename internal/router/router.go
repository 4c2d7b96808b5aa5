package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/presenter-booking/internal/handler"
	"github.com/iliyamo/presenter-booking/internal/metrics"
	"github.com/iliyamo/presenter-booking/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: liveness, readiness
// against the database (nil for the memory store) and the metrics scrape.
func RegisterRoutes(e *echo.Echo, db *sql.DB, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers the account endpoints.  Sign-up, sign-in and
// refresh live under /v1/auth behind the rate limiter; the caller's own
// profile lives under /v1/me and needs an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
	auth.PUT("/me", a.UpdateProfile)
}

// RegisterPublic registers the browse endpoints.  They are open to guests;
// a valid token, when sent, adds the caller's registration flags.  The
// number detail is served through the response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.OptionalJWT(jwtSecret))
	g.GET("/home", p.Home)
	g.GET("/numbers/:code", p.Number, cache)
}
