package vendsite

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/vendsite/logging"
	"github.com/eringen/vendsite/views"
)

const maxMessageLength = 5000

func (a *App) contactPage(c echo.Context) views.Page {
	return a.page(c, "contact", views.PageMeta{Title: "Contact us"}, "contact")
}

func (a *App) handleContact(c echo.Context) error {
	return Render(c, a.Views.Contact(a.contactPage(c), views.ContactForm{}))
}

func (a *App) handleContactSubmit(c echo.Context) error {
	form := views.ContactForm{
		Name:    strings.TrimSpace(c.FormValue("name")),
		Email:   strings.TrimSpace(c.FormValue("email")),
		Company: strings.TrimSpace(c.FormValue("company")),
		Phone:   strings.TrimSpace(c.FormValue("phone")),
		Message: strings.TrimSpace(c.FormValue("message")),
	}
	if errs := validateContact(form); len(errs) > 0 {
		form.Errors = errs
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Contact(a.contactPage(c), form))
	}
	if !a.contactLimiter.Allow(c.RealIP()) {
		form.Limited = true
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Contact(a.contactPage(c), form))
	}

	msg, err := a.Store.SaveContactMessage(c.Request().Context(), ContactMessage{
		Name:    form.Name,
		Email:   form.Email,
		Company: form.Company,
		Phone:   form.Phone,
		Message: form.Message,
	})
	if err != nil {
		return err
	}
	a.Metrics.ContactMessages.Inc()
	a.Logger.Info("contact message received", logging.String("id", msg.ID))
	return Render(c, a.Views.Contact(a.contactPage(c), views.ContactForm{Sent: true}))
}

func validateContact(f views.ContactForm) map[string]string {
	errs := map[string]string{}
	if f.Name == "" {
		errs["name"] = "Please tell us your name."
	}
	if _, err := mail.ParseAddress(f.Email); err != nil || !strings.Contains(f.Email, "@") {
		errs["email"] = "Please enter a valid email address."
	}
	switch {
	case f.Message == "":
		errs["message"] = "Please enter a message."
	case len(f.Message) > maxMessageLength:
		errs["message"] = "Your message is too long."
	}
	return errs
}
