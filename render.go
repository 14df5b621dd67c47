package vendsite

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/vendsite/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
// HEAD requests get the headers only.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	if c.Request().Method == http.MethodHead {
		return nil
	}
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page builds the envelope shared by public pages. segments form the
// canonical URL.
func (a *App) page(c echo.Context, section string, meta views.PageMeta, segments ...string) views.Page {
	if meta.URL == "" {
		meta.URL = BuildURL(a.Config.URL, segments...)
	}
	return views.Page{
		Site: views.Site{
			Name:        a.Config.Name,
			URL:         a.Config.URL,
			Description: a.Config.Description,
		},
		Meta:    meta,
		CSRF:    CsrfToken(c),
		Section: section,
	}
}
