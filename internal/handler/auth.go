package handler

import (
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/presenter-booking/internal/identity"
    "github.com/iliyamo/presenter-booking/internal/middleware"
    "github.com/iliyamo/presenter-booking/internal/model"
    "github.com/iliyamo/presenter-booking/internal/service"
    "github.com/iliyamo/presenter-booking/internal/validation"
)

// AuthHandler bundles the account endpoints: sign-up, sign-in, token
// refresh, sign-out and the caller's own profile.
type AuthHandler struct {
    Accounts       *service.AccountService
    MaxUploadBytes int64
}

func NewAuthHandler(a *service.AccountService, maxUploadBytes int64) *AuthHandler {
    if a == nil {
        panic("nil account service passed to NewAuthHandler")
    }
    return &AuthHandler{Accounts: a, MaxUploadBytes: maxUploadBytes}
}

// ----- DTOs -----

type loginReq struct {
    Email      string `json:"email"`
    Password   string `json:"password"`
    RememberMe bool   `json:"remember_me"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    User       model.User `json:"user"`
    Access     tokenPart  `json:"access"`
    Refresh    tokenPart  `json:"refresh"`
    Persistent bool       `json:"persistent"`
    Message    string     `json:"message,omitempty"`
}

func sessionResp(s identity.Session, msg string) authResp {
    return authResp{
        User:       s.User,
        Access:     tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
        Refresh:    tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
        Persistent: s.Persistent,
        Message:    msg,
    }
}

// Register creates an account and returns a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req service.SignUp
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    res, err := h.Accounts.RegisterAccount(ctx, req)
    if err != nil {
        req.Password, req.ConfirmPassword = "", ""
        return respondError(c, err, req)
    }
    return c.JSON(http.StatusCreated, sessionResp(res.Entity, res.Message))
}

// Login signs in.  Unknown accounts and wrong passwords share one 401
// response; a locked account answers 423.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    res, err := h.Accounts.SignIn(ctx, req.Email, req.Password, req.RememberMe)
    if err != nil {
        return respondError(c, err, nil)
    }
    switch res.Outcome {
    case identity.Success:
        return c.JSON(http.StatusOK, sessionResp(*res.Session, res.Message))
    case identity.LockedOut:
        return c.JSON(http.StatusLocked, echo.Map{"error": "locked_out", "message": res.Message})
    }
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials", "message": res.Message})
}

// Refresh rotates a refresh token into a new token pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    sess, err := h.Accounts.RefreshSession(ctx, req.RefreshToken)
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, sessionResp(sess, ""))
}

// Logout revokes the refresh token in the body, or every session of the
// caller when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Accounts.SignOut(ctx, middleware.Principal(c), req.RefreshToken); err != nil {
        return respondError(c, err, nil)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    u, err := h.Accounts.Profile(ctx, middleware.Principal(c))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, u)
}

// UpdateProfile accepts a multipart form (first_name, last_name, phone,
// optional email, optional picture file) or the same fields as JSON.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
    p := middleware.Principal(c)
    in := service.ProfileUpdate{UserID: p.UserID}

    if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
        in.FirstName = c.FormValue("first_name")
        in.LastName = c.FormValue("last_name")
        in.Phone = c.FormValue("phone")
        if form, err := c.MultipartForm(); err == nil {
            if v, ok := form.Value["email"]; ok && len(v) > 0 {
                email := v[0]
                in.Email = &email
            }
        }
        pic, err := h.readPicture(c)
        if err != nil {
            return respondError(c, &service.ValidationError{Fields: pictureError(err.Error())}, nil)
        }
        in.Picture = pic
    } else {
        var req struct {
            FirstName string  `json:"first_name"`
            LastName  string  `json:"last_name"`
            Phone     string  `json:"phone"`
            Email     *string `json:"email"`
        }
        if err := c.Bind(&req); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
        }
        in.FirstName, in.LastName, in.Phone, in.Email = req.FirstName, req.LastName, req.Phone, req.Email
    }

    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Accounts.UpdateProfile(ctx, p, in)
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return c.JSON(http.StatusOK, echo.Map{"user": res.Entity, "message": res.Message})
}

type uploadError string

func (e uploadError) Error() string { return string(e) }

func pictureError(msg string) validation.Errors {
    errs := validation.Errors{}
    errs.Add("picture", msg)
    return errs
}

// readPicture returns nil when no file was sent.
func (h *AuthHandler) readPicture(c echo.Context) (*service.Picture, error) {
    fh, err := c.FormFile("picture")
    if err != nil {
        return nil, nil
    }
    if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
        return nil, uploadError("The picture is too large.")
    }
    f, err := fh.Open()
    if err != nil {
        return nil, uploadError("The picture could not be read.")
    }
    defer f.Close()
    data, err := io.ReadAll(f)
    if err != nil {
        return nil, uploadError("The picture could not be read.")
    }
    return &service.Picture{Filename: fh.Filename, Data: data}, nil
}
