package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/presenter-booking/internal/model"
)

// Principal returns the caller identity stored by JWTAuth or OptionalJWT.
// Anonymous callers get the zero Principal.
func Principal(c echo.Context) model.Principal {
    uid, _ := c.Get(ctxUserID).(uint64)
    role, _ := c.Get(ctxRole).(string)
    if uid == 0 {
        return model.Principal{}
    }
    return model.Principal{UserID: uid, Role: role}
}

// subject is the caller identifier used in rate-limit keys.
func subject(c echo.Context) string {
    if p := Principal(c); p.Authenticated() {
        return strconv.FormatUint(p.UserID, 10)
    }
    return "anon"
}
