package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/presenter-booking/internal/metrics"
)

// RequestMetrics records the latency of every request by route template.
func RequestMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            status := c.Response().Status
            if he, ok := err.(*echo.HTTPError); ok {
                status = he.Code
            }
            m.ObserveRequest(c.Request().Method, c.Path(), status, start)
            return err
        }
    }
}
