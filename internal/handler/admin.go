package handler

import (
    "math"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/presenter-booking/internal/model"
    "github.com/iliyamo/presenter-booking/internal/service"
    "github.com/iliyamo/presenter-booking/internal/validation"
)

// AdminHandler serves the administrative console.  Every route behind it
// is mounted with JWTAuth and RequireRole(Admin).
type AdminHandler struct {
    Roles      *service.RoleService
    Presenters *service.PresenterService
    Numbers    *service.NumberService
    Dashboard  *service.DashboardService
}

func NewAdminHandler(r *service.RoleService, p *service.PresenterService, n *service.NumberService, d *service.DashboardService) *AdminHandler {
    if r == nil || p == nil || n == nil || d == nil {
        panic("nil service passed to NewAdminHandler")
    }
    return &AdminHandler{Roles: r, Presenters: p, Numbers: n, Dashboard: d}
}

// ----- request DTOs -----

// roleReq takes the price as a decimal amount and stores it in cents.
// price_cents is accepted when price is absent, so a role read back from
// the API can be sent again unchanged.
type roleReq struct {
    Code       string   `json:"code"`
    Label      string   `json:"label"`
    Price      *float64 `json:"price"`
    PriceCents *int64   `json:"price_cents"`
}

// maxPrice keeps price*100 well inside int64.
const maxPrice = 1e12

func (r roleReq) model() (model.Role, validation.Errors) {
    ro := model.Role{Code: r.Code, Label: r.Label}
    errs := validation.Errors{}
    switch {
    case r.Price != nil:
        switch p := *r.Price; {
        case p < 0:
            errs.Add("price", "Price cannot be negative.")
        case p > maxPrice:
            errs.Add("price", "Price is too large.")
        default:
            ro.PriceCents = int64(math.Round(p * 100))
        }
    case r.PriceCents != nil:
        ro.PriceCents = *r.PriceCents
    default:
        errs.Add("price", "Price is required.")
    }
    return ro, errs
}

type presenterReq struct {
    Code     string `json:"code"`
    Name     string `json:"name"`
    RoleCode string `json:"role_code"`
}

func (r presenterReq) model() model.Presenter {
    return model.Presenter{Code: r.Code, Name: r.Name, RoleCode: r.RoleCode}
}

type numberReq struct {
    Code            string    `json:"code"`
    Title           string    `json:"title"`
    DurationMinutes int       `json:"duration_minutes"`
    PresenterCode   string    `json:"presenter_code"`
    ShowDateTime    time.Time `json:"show_date_time"`
}

func (r numberReq) model() model.Number {
    return model.Number{
        Code:            r.Code,
        Title:           r.Title,
        DurationMinutes: r.DurationMinutes,
        PresenterCode:   r.PresenterCode,
        ShowDateTime:    r.ShowDateTime.UTC(),
    }
}

func badBody(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// written renders a successful create/update/delete.
func written[T any](c echo.Context, status int, res service.Result[T]) error {
    return c.JSON(status, echo.Map{"entity": res.Entity, "message": res.Message})
}

// ----- dashboard & users -----

func (h *AdminHandler) Overview(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    d, err := h.Dashboard.Dashboard(ctx)
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    users, err := h.Dashboard.Users(ctx)
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": users})
}

func (h *AdminHandler) GetUser(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    d, err := h.Dashboard.UserDetail(ctx, id)
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, d)
}

// ----- roles -----

func (h *AdminHandler) ListRoles(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    roles, err := h.Roles.List(ctx)
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": roles})
}

func (h *AdminHandler) GetRole(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    r, err := h.Roles.Detail(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, r)
}

func (h *AdminHandler) CreateRole(c echo.Context) error {
    var req roleReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ro, errs := req.model()
    if len(errs) > 0 {
        return respondError(c, &service.ValidationError{Fields: errs}, ro)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Roles.Create(ctx, ro)
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return written(c, http.StatusCreated, res)
}

func (h *AdminHandler) UpdateRole(c echo.Context) error {
    var req roleReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ro, errs := req.model()
    if len(errs) > 0 {
        return respondError(c, &service.ValidationError{Fields: errs}, ro)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Roles.Update(ctx, c.Param("code"), ro)
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return written(c, http.StatusOK, res)
}

// PreviewRoleDelete is the first phase of a delete: it shows what would be
// removed and whether the delete is allowed.
func (h *AdminHandler) PreviewRoleDelete(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    p, err := h.Roles.DeletePreview(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) DeleteRole(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Roles.Delete(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return written(c, http.StatusOK, res)
}

// ----- presenters -----

func (h *AdminHandler) ListPresenters(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    list, err := h.Presenters.List(ctx)
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// PresenterOptions feeds the presenter picker of the number form.
func (h *AdminHandler) PresenterOptions(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Presenters.Options(ctx)
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": res.Entity, "message": res.Message})
}

func (h *AdminHandler) GetPresenter(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    p, err := h.Presenters.Detail(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) CreatePresenter(c echo.Context) error {
    var req presenterReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Presenters.Create(ctx, req.model())
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return written(c, http.StatusCreated, res)
}

func (h *AdminHandler) UpdatePresenter(c echo.Context) error {
    var req presenterReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Presenters.Update(ctx, c.Param("code"), req.model())
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return written(c, http.StatusOK, res)
}

func (h *AdminHandler) PreviewPresenterDelete(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    p, err := h.Presenters.DeletePreview(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) DeletePresenter(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Presenters.Delete(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return written(c, http.StatusOK, res)
}

// ----- numbers -----

func (h *AdminHandler) ListNumbers(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    list, err := h.Numbers.List(ctx)
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *AdminHandler) GetNumber(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    n, err := h.Numbers.Detail(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, n)
}

func (h *AdminHandler) CreateNumber(c echo.Context) error {
    var req numberReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Numbers.Create(ctx, req.model())
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return written(c, http.StatusCreated, res)
}

func (h *AdminHandler) UpdateNumber(c echo.Context) error {
    var req numberReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Numbers.Update(ctx, c.Param("code"), req.model())
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return written(c, http.StatusOK, res)
}

// PreviewNumberDelete reports how many registrations the delete would
// cascade to.
func (h *AdminHandler) PreviewNumberDelete(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    p, err := h.Numbers.DeletePreview(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, nil)
    }
    return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) DeleteNumber(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()
    res, err := h.Numbers.Delete(ctx, c.Param("code"))
    if err != nil {
        return respondError(c, err, res.Entity)
    }
    return written(c, http.StatusOK, res)
}
