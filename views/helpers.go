package views

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/richtext"
)

// BuildURL joins path segments onto a base URL, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// RelatedPosts returns posts that share at least one tag with current.
func RelatedPosts(current content.BlogPost, posts []content.BlogPost, max int) []content.BlogPost {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []content.BlogPost
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		for _, t := range p.Tags {
			tag := strings.ToLower(strings.TrimSpace(t))
			if _, ok := tagSet[tag]; ok {
				related = append(related, p)
				break
			}
		}
		if max > 0 && len(related) == max {
			break
		}
	}
	return related
}

var funcs = template.FuncMap{
	"richtext":  renderRichText,
	"markdown":  renderMarkdown,
	"date":      formatDate,
	"path":      url.PathEscape,
	"jsonld":    func(s string) template.JS { return template.JS(s) },
	"join":      strings.Join,
	"stars":     stars,
	"kb":        func(n int) string { return fmt.Sprintf("%.1f KB", float64(n)/1024) },
	"typeLabel": TypeLabel,
}

func renderRichText(body json.RawMessage) template.HTML {
	var buf bytes.Buffer
	if err := richtext.RenderTo(&buf, body, nil); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}

func renderMarkdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := richtext.RenderMarkdown(&buf, s); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

func stars(n int) string {
	if n < 0 || n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// TypeLabel is the human name of a content type.
func TypeLabel(contentType string) string {
	switch contentType {
	case content.TypeProduct:
		return "Products"
	case content.TypeMachine:
		return "Machines"
	case content.TypeTechnology:
		return "Technology"
	case content.TypeBusinessGoal:
		return "Business goals"
	case content.TypeBlogPost:
		return "Blog posts"
	case content.TypeTestimonial:
		return "Testimonials"
	case content.TypeLandingPage:
		return "Landing pages"
	}
	return contentType
}
