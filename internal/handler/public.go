package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/presenter-booking/internal/middleware"
    "github.com/iliyamo/presenter-booking/internal/service"
)

// PublicHandler serves the pages that guests can see.  Signed-in callers
// additionally get their registration flags.
type PublicHandler struct {
    Showcase *service.ShowcaseService
}

func NewPublicHandler(s *service.ShowcaseService) *PublicHandler {
    if s == nil {
        panic("nil showcase service passed to NewPublicHandler")
    }
    return &PublicHandler{Showcase: s}
}

// Home returns upcoming and past numbers.
func (h *PublicHandler) Home(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    home, err := h.Showcase.Home(ctx, middleware.Principal(c))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, home)
}

// Number returns the detail of one number.
func (h *PublicHandler) Number(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    n, err := h.Showcase.Number(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, n)
}
