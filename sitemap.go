package vendsite

import (
	"context"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/readonly"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func lastMod(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// sitemapSection lists the index page for a content type followed by every
// visible item in it.
func sitemapSection[T interface{ IsVisible() bool }](ctx context.Context, base string, repo *readonly.Adapter[T], loc func(T) (string, time.Time)) ([]sitemapURL, error) {
	items, err := repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	prefix := routePrefix[repo.ContentType()]
	urls := []sitemapURL{{Loc: BuildURL(base, prefix)}}
	for _, item := range content.Visible(items) {
		slug, mod := loc(item)
		if slug == "" {
			continue
		}
		urls = append(urls, sitemapURL{Loc: BuildURL(base, prefix, slug), LastMod: lastMod(mod)})
	}
	return urls, nil
}

func (a *App) sitemapURLs(ctx context.Context) ([]sitemapURL, error) {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "contact")},
	}
	sections := []func() ([]sitemapURL, error){
		func() ([]sitemapURL, error) {
			return sitemapSection(ctx, base, a.Catalog.Products, func(p content.Product) (string, time.Time) { return p.Slug, p.UpdatedAt })
		},
		func() ([]sitemapURL, error) {
			return sitemapSection(ctx, base, a.Catalog.Machines, func(m content.Machine) (string, time.Time) { return m.Slug, m.UpdatedAt })
		},
		func() ([]sitemapURL, error) {
			return sitemapSection(ctx, base, a.Catalog.Technologies, func(t content.Technology) (string, time.Time) { return t.Slug, t.UpdatedAt })
		},
		func() ([]sitemapURL, error) {
			return sitemapSection(ctx, base, a.Catalog.BusinessGoals, func(g content.BusinessGoal) (string, time.Time) { return g.Slug, g.UpdatedAt })
		},
		func() ([]sitemapURL, error) {
			return sitemapSection(ctx, base, a.Catalog.BlogPosts, func(p content.BlogPost) (string, time.Time) { return p.Slug, p.UpdatedAt })
		},
	}
	for _, section := range sections {
		more, err := section()
		if err != nil {
			return nil, err
		}
		urls = append(urls, more...)
	}
	return urls, nil
}

func (a *App) handleSitemap(c echo.Context) error {
	urls, err := a.sitemapURLs(c.Request().Context())
	if err != nil {
		return err
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
