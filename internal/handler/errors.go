package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/presenter-booking/internal/service"
)

// requestTimeout bounds every store round-trip made by a handler.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// respondError maps service errors onto HTTP responses.  entity and
// fields are echoed back for rejected writes so the client can redisplay
// the form.
func respondError(c echo.Context, err error, entity any) error {
    var (
        ve *service.ValidationError
        ie *service.IdentityError
        ce *service.ConflictError
    )
    switch {
    case errors.As(err, &ve):
        status := http.StatusUnprocessableEntity
        msg := "validation failed"
        if ve.Duplicate {
            status = http.StatusConflict
            msg = "duplicate code"
        }
        return c.JSON(status, echo.Map{"error": msg, "errors": ve.Fields, "entity": entity})
    case errors.As(err, &ie):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "request rejected", "errors": ie.Fields, "entity": entity})
    case errors.As(err, &ce):
        return c.JSON(http.StatusConflict, echo.Map{"error": ce.Reason, "entity": entity})
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, service.ErrBadRequest):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad request"})
    case errors.Is(err, service.ErrUnauthenticated):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    case errors.Is(err, service.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
}
