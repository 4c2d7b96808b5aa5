package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/presenter-booking/internal/middleware"
    "github.com/iliyamo/presenter-booking/internal/service"
)

// RegistrationHandler exposes sign-up and cancellation for numbers.
type RegistrationHandler struct {
    Registrations *service.RegistrationService
}

func NewRegistrationHandler(s *service.RegistrationService) *RegistrationHandler {
    if s == nil {
        panic("nil registration service passed to NewRegistrationHandler")
    }
    return &RegistrationHandler{Registrations: s}
}

// Register signs the caller up.  A first registration answers 201, a
// repeated one 200 with outcome already_registered.
func (h *RegistrationHandler) Register(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Registrations.Register(ctx, middleware.Principal(c), c.Param("code"))
    if err != nil {
        return respondError(c, err, nil)
    }
    status := http.StatusOK
    if res.Outcome == service.Registered {
        status = http.StatusCreated
    }
    return c.JSON(status, res)
}

// Cancel removes the caller's registration.  Cancelling nothing is fine.
func (h *RegistrationHandler) Cancel(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Registrations.Cancel(ctx, middleware.Principal(c), c.Param("code"))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, res)
}

// Mine lists the caller's registrations.
func (h *RegistrationHandler) Mine(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    regs, err := h.Registrations.MyRegistrations(ctx, middleware.Principal(c))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": regs})
}
