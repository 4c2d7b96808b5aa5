package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is a liveness probe.  It returns a plain "ok".
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready returns a readiness probe that pings the database.  A nil db (the
// in-memory store) is always ready.
func Ready(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db == nil {
            return c.JSON(http.StatusOK, echo.Map{"status": "ready", "store": "memory"})
        }
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ready", "store": "mysql"})
    }
}
