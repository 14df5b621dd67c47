// Package content holds the site's content records, maps CMS entries and
// legacy rows onto them, and assembles the per-type repositories.
package content

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Content type ids, as defined in the CMS.
const (
	TypeProduct      = "product"
	TypeMachine      = "machine"
	TypeTechnology   = "technology"
	TypeBusinessGoal = "businessGoal"
	TypeBlogPost     = "blogPost"
	TypeTestimonial  = "testimonial"
	TypeLandingPage  = "landingPage"
)

// Types lists every content type in dashboard order.
func Types() []string {
	return []string{
		TypeProduct, TypeMachine, TypeTechnology, TypeBusinessGoal,
		TypeBlogPost, TypeTestimonial, TypeLandingPage,
	}
}

// IsType reports whether name is a known content type.
func IsType(name string) bool {
	for _, t := range Types() {
		if t == name {
			return true
		}
	}
	return false
}

var (
	// ErrInvalidRecord is returned by the constructors when a required
	// field is missing.
	ErrInvalidRecord = errors.New("invalid content record")
	// ErrNotFound is returned when no record matches a slug or id.
	ErrNotFound = errors.New("content not found")
)

// Image is a resolved image reference.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Feature is a titled bullet used by products and business goals.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

// Section is one block of a technology or landing page.
type Section struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Body     string    `json:"body,omitempty"`
	Images   []Image   `json:"images"`
	Features []Feature `json:"features"`
	// Testimonials is filled for testimonial sections only.
	Testimonials []Testimonial `json:"testimonials"`
}

// Product is a vending product line.
type Product struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Category    string            `json:"category,omitempty"`
	Price       string            `json:"price,omitempty"`
	Images      []Image           `json:"images"`
	Features    []Feature         `json:"features"`
	Specs       map[string]string `json:"specs"`
	Order       int               `json:"order"`
	Visible     bool              `json:"visible"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Machine is a vending machine model.
type Machine struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Temperature string            `json:"temperature,omitempty"`
	Images      []Image           `json:"images"`
	Features    []string          `json:"features"`
	Specs       map[string]string `json:"specs"`
	Order       int               `json:"order"`
	Visible     bool              `json:"visible"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Technology is a technology page.
type Technology struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Image       *Image          `json:"image,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
	Sections    []Section       `json:"sections"`
	Order       int             `json:"order"`
	Visible     bool            `json:"visible"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BusinessGoal is a "what we help you achieve" page.
type BusinessGoal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	Image       *Image    `json:"image,omitempty"`
	Benefits    []string  `json:"benefits"`
	Features    []Feature `json:"features"`
	Order       int       `json:"order"`
	Visible     bool      `json:"visible"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BlogPost is an article. Content is a rich-text document or markdown.
type BlogPost struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Slug          string          `json:"slug"`
	Excerpt       string          `json:"excerpt"`
	Content       json.RawMessage `json:"content,omitempty"`
	Author        string          `json:"author,omitempty"`
	Tags          []string        `json:"tags"`
	FeaturedImage *Image          `json:"featured_image,omitempty"`
	PublishedAt   time.Time       `json:"published_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Testimonial is a customer quote.
type Testimonial struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title,omitempty"`
	Company   string    `json:"company,omitempty"`
	Quote     string    `json:"quote"`
	Rating    int       `json:"rating"`
	Image     *Image    `json:"image,omitempty"`
	Visible   bool      `json:"visible"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LandingPage is a composed page such as the home page.
type LandingPage struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Hero        *Section  `json:"hero,omitempty"`
	Sections    []Section `json:"sections"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
