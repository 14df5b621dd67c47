// Package views holds the default page components. Sites may replace any of
// them with their own templ components.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/vendsite/content"
)

//go:embed templates/*.html
var files embed.FS

var pages = template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/*.html"))

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

type listData[T any] struct {
	Page  Page
	Items []T
}

type itemData[T any] struct {
	Page    Page
	Item    T
	Related []content.BlogPost
}

func Home(p Page, h HomeData) templ.Component {
	return render("home", struct {
		Page Page
		HomeData
	}{p, h})
}

func Products(p Page, items []content.Product) templ.Component {
	return render("products", listData[content.Product]{p, items})
}

func Product(p Page, item content.Product) templ.Component {
	return render("product", itemData[content.Product]{Page: p, Item: item})
}

func Machines(p Page, items []content.Machine) templ.Component {
	return render("machines", listData[content.Machine]{p, items})
}

func Machine(p Page, item content.Machine) templ.Component {
	return render("machine", itemData[content.Machine]{Page: p, Item: item})
}

func Technologies(p Page, items []content.Technology) templ.Component {
	return render("technologies", listData[content.Technology]{p, items})
}

func Technology(p Page, item content.Technology) templ.Component {
	return render("technology", itemData[content.Technology]{Page: p, Item: item})
}

func BusinessGoals(p Page, items []content.BusinessGoal) templ.Component {
	return render("business_goals", listData[content.BusinessGoal]{p, items})
}

func BusinessGoal(p Page, item content.BusinessGoal) templ.Component {
	return render("business_goal", itemData[content.BusinessGoal]{Page: p, Item: item})
}

func Blog(p Page, posts []content.BlogPost) templ.Component {
	return render("blog", listData[content.BlogPost]{p, posts})
}

func BlogPost(p Page, post content.BlogPost, related []content.BlogPost) templ.Component {
	return render("blog_post", itemData[content.BlogPost]{Page: p, Item: post, Related: related})
}

func Contact(p Page, form ContactForm) templ.Component {
	return render("contact", struct {
		Page Page
		Form ContactForm
	}{p, form})
}

func AdminLogin(showError bool, csrfToken string) templ.Component {
	return render("admin_login", struct {
		ShowError bool
		CSRF      string
	}{showError, csrfToken})
}

func AdminDashboard(d Dashboard, csrfToken string) templ.Component {
	return render("admin_dashboard", struct {
		Dashboard
		CSRF string
	}{d, csrfToken})
}

func AdminContent(l ContentList, csrfToken string) templ.Component {
	return render("admin_content", struct {
		ContentList
		CSRF string
	}{l, csrfToken})
}

func AdminMedia(media []MediaFile, csrfToken string) templ.Component {
	return render("admin_media", struct {
		Media []MediaFile
		CSRF  string
	}{media, csrfToken})
}

func NotFound() templ.Component {
	return render("not_found", nil)
}

func ServerError() templ.Component {
	return render("server_error", nil)
}
