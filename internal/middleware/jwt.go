package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/presenter-booking/internal/utils"
)

// Context keys set by the JWT middlewares.
const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

func bearer(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    return raw, raw != ""
}

// authenticate parses the bearer token and stores the user id (uint64) and
// role in the context.  It reports whether a valid token was present.
func authenticate(c echo.Context, secret string) (present, valid bool) {
    raw, ok := bearer(c)
    if !ok {
        return false, false
    }
    claims, err := utils.ParseAccessToken(secret, raw)
    if err != nil {
        return true, false
    }
    uid, _ := claims.UserID()
    c.Set(ctxUserID, uid)
    c.Set(ctxRole, claims.Role)
    return true, true
}

// JWTAuth rejects requests without a valid HS256 access token.  Handlers
// read the caller through Principal(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            present, valid := authenticate(c, secret)
            if !present {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            if !valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            return next(c)
        }
    }
}

// OptionalJWT identifies the caller when a valid token is sent and lets
// anonymous requests through.  An invalid token is still rejected so that
// clients notice an expired session.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if present, valid := authenticate(c, secret); present && !valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            return next(c)
        }
    }
}
