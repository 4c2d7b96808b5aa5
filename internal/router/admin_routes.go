package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/presenter-booking/internal/handler"
	"github.com/iliyamo/presenter-booking/internal/middleware"
	"github.com/iliyamo/presenter-booking/internal/model"
)

// RegisterAdmin registers the administrative console under /v1/admin.  All
// routes require a valid JWT and the Admin role.  purge runs after every
// successful write so cached public pages never outlive an edit.
//
// Deletes are two-phase: GET .../:code/delete previews what would be
// removed and whether it is allowed, POST on the same path confirms.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, purge echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		purge,
	)
	g.GET("", h.Overview)
	g.GET("/users", h.ListUsers)
	g.GET("/users/:id", h.GetUser)

	g.GET("/roles", h.ListRoles)
	g.POST("/roles", h.CreateRole)
	g.GET("/roles/:code", h.GetRole)
	g.PUT("/roles/:code", h.UpdateRole)
	g.GET("/roles/:code/delete", h.PreviewRoleDelete)
	g.POST("/roles/:code/delete", h.DeleteRole)

	g.GET("/presenters", h.ListPresenters)
	g.GET("/presenters/options", h.PresenterOptions)
	g.POST("/presenters", h.CreatePresenter)
	g.GET("/presenters/:code", h.GetPresenter)
	g.PUT("/presenters/:code", h.UpdatePresenter)
	g.GET("/presenters/:code/delete", h.PreviewPresenterDelete)
	g.POST("/presenters/:code/delete", h.DeletePresenter)

	g.GET("/numbers", h.ListNumbers)
	g.POST("/numbers", h.CreateNumber)
	g.GET("/numbers/:code", h.GetNumber)
	g.PUT("/numbers/:code", h.UpdateNumber)
	g.GET("/numbers/:code/delete", h.PreviewNumberDelete)
	g.POST("/numbers/:code/delete", h.DeleteNumber)
}
