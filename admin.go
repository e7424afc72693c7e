package folio

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// FormDateLayout is the datetime-local value the admin form round-trips.
const FormDateLayout = "2006-01-02T15:04:05"

var formDateLayouts = []string{FormDateLayout, "2006-01-02T15:04", "2006-01-02"}

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	c.Logger().Warnf("admin: failed login from %s", ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func contentTypeParam(c echo.Context) (ContentType, bool) {
	typ := ContentType(c.Param("type"))
	return typ, typ.Valid()
}

func idParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// handleAdminNew shows an empty form. Query parameters prefill it, which is
// how the bookmarklet hands over the page it was clicked on.
func (a *App) handleAdminNew(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typ, ok := contentTypeParam(c)
	if !ok {
		return echo.ErrNotFound
	}
	draft := Content{
		Type:    typ,
		Title:   c.QueryParam("title"),
		URL:     c.QueryParam("url"),
		Excerpt: c.QueryParam("excerpt"),
		Topic:   c.QueryParam("topic"),
		Date:    time.Now(),
	}
	if draft.Title != "" {
		draft.Slug = Slugify(draft.Title)
	}
	return Render(c, a.Views.AdminForm(FormView{Content: draft, CSRF: CsrfToken(c)}))
}

func (a *App) handleAdminEdit(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typ, ok := contentTypeParam(c)
	if !ok {
		return echo.ErrNotFound
	}
	id, ok := idParam(c)
	if !ok {
		return echo.ErrNotFound
	}
	item, err := a.Store.GetContentByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	if item.Type != typ {
		return c.NoContent(http.StatusNotFound)
	}
	return Render(c, a.Views.AdminForm(FormView{Content: item, CSRF: CsrfToken(c)}))
}

// contentFromForm reads the admin form. A missing slug is derived from the
// title and a missing date defaults to now.
func contentFromForm(c echo.Context, typ ContentType) (Content, map[string]string) {
	item := Content{
		Type:    typ,
		Title:   strings.TrimSpace(c.FormValue("title")),
		Slug:    strings.TrimSpace(c.FormValue("slug")),
		Excerpt: strings.TrimSpace(c.FormValue("excerpt")),
		Content: c.FormValue("content"),
		Topic:   strings.TrimSpace(c.FormValue("topic")),
		Cover:   strings.TrimSpace(c.FormValue("cover")),
		URL:     strings.TrimSpace(c.FormValue("url")),
	}
	if id, err := strconv.ParseInt(c.FormValue("id"), 10, 64); err == nil {
		item.ID = id
	}
	if item.Slug == "" {
		item.Slug = Slugify(item.Title)
	}
	if raw := strings.TrimSpace(c.FormValue("date")); raw != "" {
		for _, layout := range formDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				item.Date = t
				break
			}
		}
		if item.Date.IsZero() {
			return item, map[string]string{"date": "must be YYYY-MM-DD"}
		}
	}
	return item, nil
}

func (a *App) handleAdminSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typ, ok := contentTypeParam(c)
	if !ok {
		return echo.ErrNotFound
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	item, problems := contentFromForm(c, typ)
	if item.ID != 0 {
		existing, err := a.Store.GetContentByID(item.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return c.NoContent(http.StatusNotFound)
			}
			return err
		}
		if existing.Type != typ {
			return c.NoContent(http.StatusNotFound)
		}
	}
	if problems == nil {
		problems = validationMessages(item.Validate())
	}
	if problems == nil {
		exists, err := a.Store.SlugExists(item.Slug, item.Type, item.ID)
		if err != nil {
			return err
		}
		if exists {
			problems = map[string]string{"slug": "already used"}
		}
	}
	if problems != nil {
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.AdminForm(FormView{
			Content: item,
			Errors:  problems,
			CSRF:    CsrfToken(c),
		}))
	}
	if err := a.Store.SaveContent(&item); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "saved")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if _, ok := contentTypeParam(c); !ok {
		return echo.ErrNotFound
	}
	id, ok := idParam(c)
	if !ok {
		return echo.ErrNotFound
	}
	if err := a.Store.DeleteContent(id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "deleted")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	posts, err := a.Store.ListContent(TypePost)
	if err != nil {
		return err
	}
	pages, err := a.Store.ListContent(TypePage)
	if err != nil {
		return err
	}
	links, err := a.Store.ListContent(TypeLink)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(DashboardView{
		Posts:   posts,
		Pages:   pages,
		Links:   links,
		Message: msg,
		CSRF:    CsrfToken(c),
	}))
}
