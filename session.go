package vendsite

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName    = "admin_session"
	sessionAuthKey = "authenticated"
	sessionMaxAge  = 12 * 60 * 60
)

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   a.Config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// IsAdmin reports whether the request carries an authenticated admin
// session.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	ok, _ := sess.Values[sessionAuthKey].(bool)
	return ok
}

// requireAdmin sends anonymous visitors to the login page.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if IsAdmin(c) {
			return next(c)
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
}

func saveAdminSession(c echo.Context, authenticated bool) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	if authenticated {
		sess.Values[sessionAuthKey] = true
	} else {
		delete(sess.Values, sessionAuthKey)
		sess.Options.MaxAge = -1
	}
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken returns the token the CSRF middleware stored on c.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
