package vendsite

import (
	"encoding/json"
	"strings"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/views"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	return views.BuildURL(base, pathSegments...)
}

// routePrefix maps a content type onto its public URL segment.
var routePrefix = map[string]string{
	content.TypeProduct:      "products",
	content.TypeMachine:      "machines",
	content.TypeTechnology:   "technology",
	content.TypeBusinessGoal: "business-goals",
	content.TypeBlogPost:     "blog",
}

func jsonLD(data map[string]any) string {
	data["@context"] = "https://schema.org"
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(b)
}

// OrganizationJsonLD returns a JSON-LD string for the Organization schema.
func OrganizationJsonLD(cfg Config) string {
	return jsonLD(map[string]any{
		"@type":       "Organization",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	})
}

// ProductJsonLD returns a JSON-LD string for the Product schema.
func ProductJsonLD(p content.Product, cfg Config) string {
	data := map[string]any{
		"@type":       "Product",
		"name":        p.Title,
		"description": p.Description,
		"url":         BuildURL(cfg.URL, "products", p.Slug),
		"brand":       map[string]string{"@type": "Brand", "name": cfg.Name},
	}
	if len(p.Images) > 0 {
		data["image"] = p.Images[0].URL
	}
	if p.Category != "" {
		data["category"] = p.Category
	}
	return jsonLD(data)
}

// BlogPostingJsonLD returns a JSON-LD string for the BlogPosting schema.
func BlogPostingJsonLD(post content.BlogPost, cfg Config) string {
	postURL := BuildURL(cfg.URL, "blog", post.Slug)
	data := map[string]any{
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Excerpt,
		"datePublished": post.PublishedAt.Format("2006-01-02"),
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
	}
	if post.Author != "" {
		data["author"] = map[string]string{"@type": "Person", "name": post.Author}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	if post.FeaturedImage != nil {
		data["image"] = post.FeaturedImage.URL
	}
	return jsonLD(data)
}
