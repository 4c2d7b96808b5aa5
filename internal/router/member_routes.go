package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/presenter-booking/internal/handler"
	"github.com/iliyamo/presenter-booking/internal/middleware"
	"github.com/iliyamo/presenter-booking/internal/model"
)

// RegisterRegistrations registers the sign-up endpoints for numbers.  Any
// signed-in account may register, administrators included.
func RegisterRegistrations(e *echo.Echo, h *handler.RegistrationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	g.POST("/numbers/:code/registration", h.Register)
	g.DELETE("/numbers/:code/registration", h.Cancel)
	g.GET("/me/registrations", h.Mine)
}
