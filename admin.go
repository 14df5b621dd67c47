package vendsite

import (
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/logging"
	"github.com/eringen/vendsite/readonly"
	"github.com/eringen/vendsite/views"
)

const maxPayloadSize = 1 << 20

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
		if err := saveAdminSession(c, true); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("failed admin login", logging.String("ip", ip))
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := saveAdminSession(c, false); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	statuses, err := a.Store.ListMigrationStatus(ctx)
	if err != nil {
		return err
	}
	messages, err := a.Store.ListContactMessages(ctx, 10)
	if err != nil {
		return err
	}

	d := views.Dashboard{
		Flash:         msg,
		Deprecations:  a.Tracker.Snapshot(),
		StatusOptions: []string{content.StatusPending, content.StatusInProgress, content.StatusMigrated},
	}
	for _, s := range statuses {
		d.Statuses = append(d.Statuses, views.StatusRow{
			ContentType: s.ContentType,
			Status:      s.Status,
			Source:      string(a.Catalog.Source(ctx, s.ContentType)),
			Note:        s.Note,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	for _, m := range messages {
		d.Messages = append(d.Messages, views.Message{
			Name:      m.Name,
			Email:     m.Email,
			Company:   m.Company,
			Message:   m.Message,
			CreatedAt: m.CreatedAt,
		})
	}
	return Render(c, a.Views.AdminDashboard(d, CsrfToken(c)))
}

// handleMigration records a content type's migration status. Switching to
// or from migrated changes where reads come from, so cached reads are
// dropped.
func (a *App) handleMigration(c echo.Context) error {
	ctx := c.Request().Context()
	ct := c.Param("type")
	if !content.IsType(ct) {
		return content.ErrNotFound
	}
	status := strings.TrimSpace(c.FormValue("status"))
	if !content.ValidStatus(status) {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape("Unknown status "+status))
	}
	if err := a.Store.SetMigrationStatus(ctx, ct, status, c.FormValue("note")); err != nil {
		return err
	}
	if err := a.Cache.Flush(ctx); err != nil {
		a.Logger.Warn("cache flush after migration change failed", logging.Err(err))
	}
	a.Logger.Info("migration status changed",
		logging.String("content_type", ct), logging.String("status", status))
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(views.TypeLabel(ct)+" marked "+status))
}

func (a *App) handleAdminContent(c echo.Context) error {
	ctx := c.Request().Context()
	ct := c.Param("type")
	repo, ok := a.Catalog.Repository(ct)
	if !ok {
		return content.ErrNotFound
	}
	items, err := repo.Invoke(ctx, readonly.OpGetAll, "", nil)
	if err != nil {
		return err
	}
	l := views.ContentList{
		ContentType: ct,
		Source:      string(a.Catalog.Source(ctx, ct)),
		Rows:        contentRows(items),
		EditURL:     a.cmsEditURL(ct),
	}
	return Render(c, a.Views.AdminContent(l, CsrfToken(c)))
}

func (a *App) cmsEditURL(contentType string) string {
	cfg := a.Config.Contentful
	if cfg.SpaceID == "" {
		return ""
	}
	env := cfg.Environment
	if env == "" {
		env = "master"
	}
	return fmt.Sprintf("https://app.contentful.com/spaces/%s/environments/%s/entries?contentTypeId=%s",
		url.PathEscape(cfg.SpaceID), url.PathEscape(env), url.QueryEscape(contentType))
}

func contentRows(items any) []views.ContentRow {
	var rows []views.ContentRow
	add := func(id, title, slug string, visible bool, updated time.Time) {
		rows = append(rows, views.ContentRow{ID: id, Title: title, Slug: slug, Visible: visible, UpdatedAt: updated})
	}
	switch list := items.(type) {
	case []content.Product:
		for _, it := range list {
			add(it.ID, it.Title, it.Slug, it.Visible, it.UpdatedAt)
		}
	case []content.Machine:
		for _, it := range list {
			add(it.ID, it.Title, it.Slug, it.Visible, it.UpdatedAt)
		}
	case []content.Technology:
		for _, it := range list {
			add(it.ID, it.Title, it.Slug, it.Visible, it.UpdatedAt)
		}
	case []content.BusinessGoal:
		for _, it := range list {
			add(it.ID, it.Title, it.Slug, it.Visible, it.UpdatedAt)
		}
	case []content.BlogPost:
		for _, it := range list {
			add(it.ID, it.Title, it.Slug, it.IsVisible(), it.UpdatedAt)
		}
	case []content.Testimonial:
		for _, it := range list {
			add(it.ID, it.Name, it.Slug, it.Visible, it.UpdatedAt)
		}
	case []content.LandingPage:
		for _, it := range list {
			add(it.ID, it.Title, it.Slug, true, it.UpdatedAt)
		}
	}
	return rows
}

// handleContentWrite serves the legacy editor's write endpoints. The
// catalog disables every write, so the call fails with a deprecation error
// that the error handler turns into 410 Gone.
func (a *App) handleContentWrite(op readonly.Op) echo.HandlerFunc {
	return func(c echo.Context) error {
		repo, ok := a.Catalog.Repository(c.Param("type"))
		if !ok {
			return content.ErrNotFound
		}
		var payload []byte
		if op == readonly.OpCreate || op == readonly.OpUpdate {
			b, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPayloadSize))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
			}
			payload = b
		}
		item, err := repo.Invoke(c.Request().Context(), op, c.Param("id"), payload)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, item)
	}
}

func (a *App) handleExport(c echo.Context) error {
	bundle, err := a.Catalog.Export(c.Request().Context())
	if err != nil {
		return err
	}
	name := "vendsite-export-" + bundle.ExportedAt.Format("20060102-150405") + ".json"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.JSONPretty(http.StatusOK, bundle, "  ")
}

func (a *App) handleCacheFlush(c echo.Context) error {
	if err := a.Cache.Flush(c.Request().Context()); err != nil {
		return err
	}
	a.Logger.Info("cache flushed from admin")
	return c.Redirect(http.StatusSeeOther, "/admin/?msg=Cache+flushed")
}
