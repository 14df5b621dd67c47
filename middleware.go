package vendsite

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/vendsite/logging"
)

const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; connect-src 'self'"

// Path classes shared by the middleware skippers and the cache policy.
func isAsset(path string) bool { return strings.HasPrefix(path, "/public/") }
func isUpload(path string) bool { return strings.HasPrefix(path, "/public/uploads/") }
func isAPI(path string) bool { return strings.HasPrefix(path, "/api/") }
func isProbe(path string) bool { return path == "/healthz" || path == "/metrics" }

func isFeed(path string) bool {
	return path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt"
}

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)
	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(middleware.RequestID())
	e.Use(a.requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:   5,
		Skipper: func(c echo.Context) bool { return isAsset(c.Request().URL.Path) },
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		HSTSMaxAge:            31536000,
	}))
	e.Use(session.Middleware(a.newSessionStore()))
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		// The JSON API is sessionless; the webhook authenticates with its own secret.
		Skipper: func(c echo.Context) bool { return isAPI(c.Request().URL.Path) },
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))
	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.HasPrefix(p, "/public") || isAPI(p) || isFeed(p) || isProbe(p)
		},
	}))
	e.Use(cacheControlMiddleware)
}

// requestLogger writes one zap entry per request. Probes and static assets
// are not logged.
func (a *App) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return isProbe(p) || isAsset(p)
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []logging.Field{
				logging.String("method", v.Method),
				logging.String("uri", v.URI),
				logging.Int("status", v.Status),
				logging.Duration("latency", v.Latency),
				logging.String("remote_ip", v.RemoteIP),
				logging.String("request_id", v.RequestID),
			}
			if v.Status >= http.StatusInternalServerError {
				a.Logger.Warn("request", fields...)
				return nil
			}
			a.Logger.Info("request", fields...)
			return nil
		},
	})
}

// cachePolicy returns the Cache-Control value for a request path.
func cachePolicy(path string) string {
	switch {
	case isUpload(path):
		return "public, max-age=86400"
	case isAsset(path):
		return "public, max-age=31536000, immutable"
	case isFeed(path):
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/admin"), isAPI(path), isProbe(path), path == "/contact/":
		return "no-store"
	}
	return "public, max-age=300"
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", cachePolicy(c.Request().URL.Path))
		return next(c)
	}
}
