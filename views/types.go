package views

import (
	"time"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/readonly"
)

// Site holds site-wide settings every page renders.
type Site struct {
	Name        string
	URL         string
	Description string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
}

// Page is the common envelope of every public page.
type Page struct {
	Site Site
	Meta PageMeta
	CSRF string
	// Section is the active navigation entry, e.g. "products".
	Section string
}

// HomeData is the data behind the home page. Landing is nil when the CMS has no
// "home" landing page.
type HomeData struct {
	Landing      *content.LandingPage
	Products     []content.Product
	Machines     []content.Machine
	Testimonials []content.Testimonial
	Posts        []content.BlogPost
}

// ContactForm is the contact page state.
type ContactForm struct {
	Name    string
	Email   string
	Company string
	Phone   string
	Message string
	Errors  map[string]string
	Sent    bool
	Limited bool
}

// StatusRow is one content type on the admin dashboard.
type StatusRow struct {
	ContentType string
	Status      string
	Source      string
	Note        string
	UpdatedAt   time.Time
}

// Message is a contact submission shown on the dashboard.
type Message struct {
	Name      string
	Email     string
	Company   string
	Message   string
	CreatedAt time.Time
}

// Dashboard is the admin overview.
type Dashboard struct {
	Flash        string
	Statuses     []StatusRow
	Deprecations []readonly.Usage
	Messages     []Message
	// StatusOptions lists the values the migration form offers.
	StatusOptions []string
}

// ContentRow is one record in an admin content listing.
type ContentRow struct {
	ID        string
	Title     string
	Slug      string
	Visible   bool
	UpdatedAt time.Time
}

// ContentList is the admin listing of one content type.
type ContentList struct {
	ContentType string
	Source      string
	Rows        []ContentRow
	EditURL     string
}

// MediaFile is an uploaded image.
type MediaFile struct {
	Filename   string
	URL        string
	Width      int
	Height     int
	Size       int
	UploadedAt time.Time
}
