package vendsite

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/logging"
	"github.com/eringen/vendsite/readonly"
)

const webhookSecretHeader = "X-Webhook-Secret"

func visibleAll[T interface{ IsVisible() bool }](ctx context.Context, repo *readonly.Adapter[T]) (any, error) {
	items, err := repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return content.Visible(items), nil
}

func (a *App) publicList(ctx context.Context, contentType string) (any, error) {
	switch contentType {
	case content.TypeProduct:
		return visibleAll(ctx, a.Catalog.Products)
	case content.TypeMachine:
		return visibleAll(ctx, a.Catalog.Machines)
	case content.TypeTechnology:
		return visibleAll(ctx, a.Catalog.Technologies)
	case content.TypeBusinessGoal:
		return visibleAll(ctx, a.Catalog.BusinessGoals)
	case content.TypeBlogPost:
		return visibleAll(ctx, a.Catalog.BlogPosts)
	case content.TypeTestimonial:
		return visibleAll(ctx, a.Catalog.Testimonials)
	case content.TypeLandingPage:
		return visibleAll(ctx, a.Catalog.LandingPages)
	}
	return nil, content.ErrNotFound
}

func (a *App) handleAPIList(c echo.Context) error {
	items, err := a.publicList(c.Request().Context(), c.Param("type"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (a *App) handleAPIItem(c echo.Context) error {
	repo, ok := a.Catalog.Repository(c.Param("type"))
	if !ok {
		return content.ErrNotFound
	}
	item, err := repo.Invoke(c.Request().Context(), readonly.OpGetBySlug, c.Param("slug"), nil)
	if err != nil {
		return err
	}
	if v, ok := item.(interface{ IsVisible() bool }); ok && !v.IsVisible() {
		return content.ErrNotFound
	}
	return c.JSON(http.StatusOK, item)
}

// handleWebhook flushes cached content when the CMS publishes a change.
func (a *App) handleWebhook(c echo.Context) error {
	if a.Config.WebhookSecret == "" {
		return echo.ErrNotFound
	}
	got := c.Request().Header.Get(webhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.Config.WebhookSecret)) != 1 {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid webhook secret"})
	}
	if err := a.Cache.Flush(c.Request().Context()); err != nil {
		return err
	}
	a.Logger.Info("cache flushed by webhook",
		logging.String("topic", c.Request().Header.Get("X-Contentful-Topic")))
	return c.JSON(http.StatusAccepted, map[string]bool{"flushed": true})
}

func (a *App) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()
	status := http.StatusOK
	body := map[string]any{"status": "ok"}
	if err := a.Store.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
		body["error"] = err.Error()
	}
	sources := make(map[string]content.Source, len(content.Types()))
	for _, ct := range content.Types() {
		sources[ct] = a.Catalog.Source(ctx, ct)
	}
	body["sources"] = sources
	return c.JSON(status, body)
}
