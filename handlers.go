package vendsite

import (
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/logging"
	"github.com/eringen/vendsite/readonly"
	"github.com/eringen/vendsite/views"
)

const homeSlug = "home"

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	var h views.HomeData

	lp, err := a.Catalog.LandingPages.GetBySlug(ctx, homeSlug)
	switch {
	case err == nil:
		h.Landing = &lp
	case !errors.Is(err, content.ErrNotFound):
		a.Logger.Warn("home landing page unavailable", logging.Err(err))
	}

	products, err := a.Catalog.Products.GetAll(ctx)
	if err != nil {
		return err
	}
	machines, err := a.Catalog.Machines.GetAll(ctx)
	if err != nil {
		return err
	}
	testimonials, err := a.Catalog.Testimonials.GetAll(ctx)
	if err != nil {
		return err
	}
	posts, err := a.Catalog.BlogPosts.GetAll(ctx)
	if err != nil {
		return err
	}
	h.Products = head(content.Visible(products), 6)
	h.Machines = head(content.Visible(machines), 3)
	h.Testimonials = head(content.Visible(testimonials), 3)
	h.Posts = head(content.Visible(posts), 3)

	meta := views.PageMeta{OGType: "website", JSONLD: OrganizationJsonLD(a.Config)}
	if h.Landing != nil {
		meta.Description = h.Landing.Description
	}
	return Render(c, a.Views.Home(a.page(c, "", meta), h))
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// listPage renders the visible items of repo.
func listPage[T interface{ IsVisible() bool }](c echo.Context, repo *readonly.Adapter[T], render func([]T) templ.Component) error {
	items, err := repo.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, render(content.Visible(items)))
}

// detailPage renders the item with the :slug param. Hidden items are not
// found.
func detailPage[T interface{ IsVisible() bool }](c echo.Context, repo *readonly.Adapter[T], render func(T) templ.Component) error {
	item, err := repo.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	if !item.IsVisible() {
		return content.ErrNotFound
	}
	return Render(c, render(item))
}

func (a *App) handleProducts(c echo.Context) error {
	p := a.page(c, "products", views.PageMeta{Title: "Products"}, "products")
	return listPage(c, a.Catalog.Products, func(items []content.Product) templ.Component {
		return a.Views.Products(p, items)
	})
}

func (a *App) handleProduct(c echo.Context) error {
	return detailPage(c, a.Catalog.Products, func(item content.Product) templ.Component {
		meta := views.PageMeta{
			Title:       item.Title,
			Description: item.Description,
			OGType:      "product",
			JSONLD:      ProductJsonLD(item, a.Config),
		}
		if len(item.Images) > 0 {
			meta.Image = item.Images[0].URL
		}
		return a.Views.Product(a.page(c, "products", meta, "products", item.Slug), item)
	})
}

func (a *App) handleMachines(c echo.Context) error {
	p := a.page(c, "machines", views.PageMeta{Title: "Vending machines"}, "machines")
	return listPage(c, a.Catalog.Machines, func(items []content.Machine) templ.Component {
		return a.Views.Machines(p, items)
	})
}

func (a *App) handleMachine(c echo.Context) error {
	return detailPage(c, a.Catalog.Machines, func(item content.Machine) templ.Component {
		meta := views.PageMeta{Title: item.Title, Description: item.Description}
		if len(item.Images) > 0 {
			meta.Image = item.Images[0].URL
		}
		return a.Views.Machine(a.page(c, "machines", meta, "machines", item.Slug), item)
	})
}

func (a *App) handleTechnologies(c echo.Context) error {
	p := a.page(c, "technology", views.PageMeta{Title: "Technology"}, "technology")
	return listPage(c, a.Catalog.Technologies, func(items []content.Technology) templ.Component {
		return a.Views.Technologies(p, items)
	})
}

func (a *App) handleTechnology(c echo.Context) error {
	return detailPage(c, a.Catalog.Technologies, func(item content.Technology) templ.Component {
		meta := views.PageMeta{Title: item.Title, Description: item.Description}
		return a.Views.Technology(a.page(c, "technology", meta, "technology", item.Slug), item)
	})
}

func (a *App) handleBusinessGoals(c echo.Context) error {
	p := a.page(c, "business-goals", views.PageMeta{Title: "Business goals"}, "business-goals")
	return listPage(c, a.Catalog.BusinessGoals, func(items []content.BusinessGoal) templ.Component {
		return a.Views.BusinessGoals(p, items)
	})
}

func (a *App) handleBusinessGoal(c echo.Context) error {
	return detailPage(c, a.Catalog.BusinessGoals, func(item content.BusinessGoal) templ.Component {
		meta := views.PageMeta{Title: item.Title, Description: item.Description}
		return a.Views.BusinessGoal(a.page(c, "business-goals", meta, "business-goals", item.Slug), item)
	})
}

func (a *App) handleBlog(c echo.Context) error {
	tag := strings.ToLower(strings.TrimSpace(c.QueryParam("tag")))
	p := a.page(c, "blog", views.PageMeta{Title: "Blog"}, "blog")
	return listPage(c, a.Catalog.BlogPosts, func(posts []content.BlogPost) templ.Component {
		if tag != "" {
			posts = filterByTag(posts, tag)
		}
		return a.Views.Blog(p, posts)
	})
}

func (a *App) handleBlogPost(c echo.Context) error {
	ctx := c.Request().Context()
	all, err := a.Catalog.BlogPosts.GetAll(ctx)
	if err != nil {
		return err
	}
	return detailPage(c, a.Catalog.BlogPosts, func(post content.BlogPost) templ.Component {
		meta := views.PageMeta{
			Title:       post.Title,
			Description: post.Excerpt,
			OGType:      "article",
			JSONLD:      BlogPostingJsonLD(post, a.Config),
		}
		if post.FeaturedImage != nil {
			meta.Image = post.FeaturedImage.URL
		}
		related := views.RelatedPosts(post, content.Visible(all), 3)
		return a.Views.BlogPost(a.page(c, "blog", meta, "blog", post.Slug), post, related)
	})
}

func filterByTag(posts []content.BlogPost, tag string) []content.BlogPost {
	var out []content.BlogPost
	for _, p := range posts {
		for _, t := range p.Tags {
			if strings.EqualFold(strings.TrimSpace(t), tag) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/blog/")
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nDisallow: /admin/\nDisallow: /api/\nSitemap: " + BuildURL(a.Config.URL) + "sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	wantsJSON := strings.HasPrefix(c.Request().URL.Path, "/api/") ||
		strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)

	var deprecated *readonly.DeprecatedError
	if errors.As(err, &deprecated) {
		_ = c.JSON(http.StatusGone, map[string]string{
			"error":        deprecated.Error(),
			"content_type": deprecated.ContentType,
			"operation":    string(deprecated.Op),
		})
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	switch {
	case errors.Is(err, content.ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &he):
		code = he.Code
	}

	if code == http.StatusNotFound {
		if wantsJSON {
			_ = c.JSON(code, map[string]string{"error": "not found"})
			return
		}
		_ = RenderStatus(c, code, a.Views.NotFound())
		return
	}
	if code >= 500 {
		a.Logger.Error("server error",
			logging.String("method", c.Request().Method),
			logging.String("uri", c.Request().RequestURI),
			logging.Err(err))
		if wantsJSON {
			_ = c.JSON(code, map[string]string{"error": http.StatusText(code)})
			return
		}
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
