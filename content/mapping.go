package content

import (
	"encoding/json"
	"strings"

	"github.com/eringen/vendsite/contentful"
)

// CMS entries use camelCase field ids and legacy rows use snake_case column
// names, so every accessor takes a list of aliases and uses the first one set.

func str(e contentful.Entry, names ...string) string {
	for _, n := range names {
		if s := strings.TrimSpace(e.String(n)); s != "" {
			return s
		}
	}
	return ""
}

func strs(e contentful.Entry, names ...string) []string {
	for _, n := range names {
		if v := e.Strings(n); len(v) > 0 {
			return nonEmpty(v)
		}
	}
	return []string{}
}

func integer(e contentful.Entry, names ...string) int {
	for _, n := range names {
		if e.Has(n) {
			return e.Int(n)
		}
	}
	return 0
}

func boolean(e contentful.Entry, def bool, names ...string) bool {
	for _, n := range names {
		if e.Has(n) {
			return e.Bool(n, def)
		}
	}
	return def
}

func raw(e contentful.Entry, names ...string) json.RawMessage {
	for _, n := range names {
		if e.Has(n) {
			return e.Raw(n)
		}
	}
	return nil
}

func specs(e contentful.Entry, names ...string) map[string]string {
	for _, n := range names {
		if m := e.StringMap(n); len(m) > 0 {
			return m
		}
	}
	return map[string]string{}
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// imageFromRaw accepts an asset link, a URL string, or a {url, alt} object.
func imageFromRaw(msg json.RawMessage, r contentful.Resolver) *Image {
	var url string
	if json.Unmarshal(msg, &url) == nil {
		return NewImage(contentful.AbsoluteURL(url), "", 0, 0)
	}
	var link contentful.Link
	if json.Unmarshal(msg, &link) == nil && link.Sys.ID != "" {
		asset, ok := r.ResolveAsset(link)
		if !ok {
			return nil
		}
		alt := asset.Fields.Description
		if alt == "" {
			alt = asset.Fields.Title
		}
		dims := asset.Fields.File.Details.Image
		return NewImage(asset.URL(), alt, dims.Width, dims.Height)
	}
	var obj struct {
		URL    string `json:"url"`
		Alt    string `json:"alt"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	if json.Unmarshal(msg, &obj) == nil {
		return NewImage(contentful.AbsoluteURL(obj.URL), obj.Alt, obj.Width, obj.Height)
	}
	return nil
}

func image(e contentful.Entry, r contentful.Resolver, names ...string) *Image {
	for _, n := range names {
		if !e.Has(n) {
			continue
		}
		msg := e.Raw(n)
		var list []json.RawMessage
		if json.Unmarshal(msg, &list) == nil {
			if len(list) > 0 {
				if img := imageFromRaw(list[0], r); img != nil {
					return img
				}
			}
			continue
		}
		if img := imageFromRaw(msg, r); img != nil {
			return img
		}
	}
	return nil
}

// images gathers every image found under names, in order.
func images(e contentful.Entry, r contentful.Resolver, names ...string) []Image {
	out := []Image{}
	for _, n := range names {
		if !e.Has(n) {
			continue
		}
		msg := e.Raw(n)
		var list []json.RawMessage
		if json.Unmarshal(msg, &list) != nil {
			list = []json.RawMessage{msg}
		}
		for _, item := range list {
			if img := imageFromRaw(item, r); img != nil {
				out = append(out, *img)
			}
		}
	}
	return out
}

// features accepts links to feature entries, inline {title, description}
// objects, or plain strings.
func features(e contentful.Entry, r contentful.Resolver, names ...string) []Feature {
	out := []Feature{}
	for _, n := range names {
		var list []json.RawMessage
		if json.Unmarshal(e.Raw(n), &list) != nil {
			continue
		}
		for _, item := range list {
			if f, ok := featureFromRaw(item, r); ok {
				out = append(out, f)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return out
}

func featureFromRaw(msg json.RawMessage, r contentful.Resolver) (Feature, bool) {
	var s string
	if json.Unmarshal(msg, &s) == nil {
		s = strings.TrimSpace(s)
		return Feature{Title: s}, s != ""
	}
	var link contentful.Link
	if json.Unmarshal(msg, &link) == nil && link.Sys.ID != "" {
		fe, ok := r.ResolveEntry(link)
		if !ok {
			return Feature{}, false
		}
		return Feature{
			Title:       str(fe, "title", "name"),
			Description: str(fe, "description"),
			Icon:        str(fe, "icon"),
		}, true
	}
	var f Feature
	if json.Unmarshal(msg, &f) == nil && f.Title != "" {
		return f, true
	}
	return Feature{}, false
}

func featureTitles(fs []Feature) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Title)
	}
	return out
}

// linkedEntries resolves a list of entry links, or decodes inline objects
// (legacy rows) into bare entries.
func linkedEntries(e contentful.Entry, r contentful.Resolver, name string) []contentful.Entry {
	var list []json.RawMessage
	if json.Unmarshal(e.Raw(name), &list) != nil {
		return nil
	}
	out := make([]contentful.Entry, 0, len(list))
	for _, item := range list {
		var link contentful.Link
		if json.Unmarshal(item, &link) == nil && link.Sys.ID != "" && link.Sys.Type == "Link" {
			if le, ok := r.ResolveEntry(link); ok {
				out = append(out, le)
			}
			continue
		}
		var fields map[string]json.RawMessage
		if json.Unmarshal(item, &fields) == nil {
			inline := contentful.Entry{Fields: fields}
			inline.Sys.ID = inline.String("id")
			out = append(out, inline)
		}
	}
	return out
}

// ProductFromEntry maps a CMS entry or legacy row onto a Product.
func ProductFromEntry(e contentful.Entry, r contentful.Resolver) (Product, error) {
	p, err := NewProduct(e.Sys.ID, str(e, "title", "name"), str(e, "slug"))
	if err != nil {
		return Product{}, err
	}
	p.Description = str(e, "description", "shortDescription", "short_description")
	p.Category = str(e, "category")
	p.Price = str(e, "price")
	if p.Price == "" && e.Has("price") {
		p.Price = jsonNumber(e.Raw("price"))
	}
	p.Images = images(e, r, "mainImage", "main_image", "images", "image_url", "image")
	p.Features = features(e, r, "features")
	p.Specs = specs(e, "specifications", "specs")
	p.Order = integer(e, "order", "display_order")
	p.Visible = boolean(e, true, "visible", "is_visible")
	p.UpdatedAt = e.Sys.UpdatedAt
	return p, nil
}

// MachineFromEntry maps a CMS entry or legacy row onto a Machine.
func MachineFromEntry(e contentful.Entry, r contentful.Resolver) (Machine, error) {
	m, err := NewMachine(e.Sys.ID, str(e, "title", "name"), str(e, "slug"))
	if err != nil {
		return Machine{}, err
	}
	if t := str(e, "type", "machineType", "machine_type"); t != "" {
		m.Type = strings.ToLower(t)
	}
	m.Description = str(e, "description")
	m.Temperature = str(e, "temperature")
	m.Images = images(e, r, "images", "mainImage", "main_image", "image_url", "image")
	m.Features = featureTitles(features(e, r, "features"))
	m.Specs = specs(e, "specs", "specifications")
	m.Order = integer(e, "order", "display_order")
	m.Visible = boolean(e, true, "visible", "is_visible")
	m.UpdatedAt = e.Sys.UpdatedAt
	return m, nil
}

// TechnologyFromEntry maps a CMS entry or legacy row onto a Technology.
func TechnologyFromEntry(e contentful.Entry, r contentful.Resolver) (Technology, error) {
	t, err := NewTechnology(e.Sys.ID, str(e, "title"), str(e, "slug"))
	if err != nil {
		return Technology{}, err
	}
	t.Description = str(e, "description")
	t.Image = image(e, r, "image", "image_url", "mainImage")
	t.Body = raw(e, "body", "content")
	t.Sections = sections(e, r, "sections")
	t.Order = integer(e, "order", "display_order")
	t.Visible = boolean(e, true, "visible", "is_visible")
	t.UpdatedAt = e.Sys.UpdatedAt
	return t, nil
}

// BusinessGoalFromEntry maps a CMS entry or legacy row onto a BusinessGoal.
func BusinessGoalFromEntry(e contentful.Entry, r contentful.Resolver) (BusinessGoal, error) {
	g, err := NewBusinessGoal(e.Sys.ID, str(e, "title"), str(e, "slug"))
	if err != nil {
		return BusinessGoal{}, err
	}
	g.Description = str(e, "description")
	g.Icon = str(e, "icon")
	g.Image = image(e, r, "image", "image_url", "heroImage")
	g.Benefits = strs(e, "benefits")
	g.Features = features(e, r, "features")
	g.Order = integer(e, "order", "display_order")
	g.Visible = boolean(e, true, "visible", "is_visible")
	g.UpdatedAt = e.Sys.UpdatedAt
	return g, nil
}

// BlogPostFromEntry maps a CMS entry or legacy row onto a BlogPost.
func BlogPostFromEntry(e contentful.Entry, r contentful.Resolver) (BlogPost, error) {
	p, err := NewBlogPost(e.Sys.ID, str(e, "title"), str(e, "slug"))
	if err != nil {
		return BlogPost{}, err
	}
	p.Excerpt = str(e, "excerpt", "summary")
	p.Content = raw(e, "content", "body")
	p.Author = str(e, "author", "author_name")
	p.Tags = strs(e, "tags")
	p.FeaturedImage = image(e, r, "featuredImage", "featured_image", "image_url")
	for _, n := range []string{"publishedDate", "publishDate", "published_at"} {
		if t := e.Time(n); !t.IsZero() {
			p.PublishedAt = t
			break
		}
	}
	if p.PublishedAt.IsZero() {
		p.PublishedAt = e.Sys.CreatedAt
	}
	p.UpdatedAt = e.Sys.UpdatedAt
	return p, nil
}

// TestimonialFromEntry maps a CMS entry, legacy row or inline object onto a
// Testimonial. Ratings outside 1..5 fall back to 5.
func TestimonialFromEntry(e contentful.Entry, r contentful.Resolver) (Testimonial, error) {
	t, err := NewTestimonial(e.Sys.ID, str(e, "name", "author", "author_name"))
	if err != nil {
		return Testimonial{}, err
	}
	t.Title = str(e, "title", "position", "author_title")
	t.Company = str(e, "company")
	t.Quote = str(e, "quote", "content", "testimonial")
	if rating := integer(e, "rating"); rating >= 1 && rating <= 5 {
		t.Rating = rating
	}
	t.Image = image(e, r, "image", "avatar", "image_url")
	t.Visible = boolean(e, true, "visible", "is_visible")
	t.UpdatedAt = e.Sys.UpdatedAt
	return t, nil
}

// LandingPageFromEntry maps a CMS entry or legacy row onto a LandingPage.
func LandingPageFromEntry(e contentful.Entry, r contentful.Resolver) (LandingPage, error) {
	lp, err := NewLandingPage(e.Sys.ID, str(e, "title", "pageName"), str(e, "slug"))
	if err != nil {
		return LandingPage{}, err
	}
	lp.Description = str(e, "description", "metaDescription")
	if heroes := sectionsFrom(linkedHero(e, r), r); len(heroes) > 0 {
		hero := heroes[0]
		lp.Hero = &hero
	}
	lp.Sections = sections(e, r, "sections")
	lp.UpdatedAt = e.Sys.UpdatedAt
	return lp, nil
}

func linkedHero(e contentful.Entry, r contentful.Resolver) []contentful.Entry {
	if link, ok := e.Link("hero"); ok {
		if he, ok := r.ResolveEntry(link); ok {
			return []contentful.Entry{he}
		}
		return nil
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(e.Raw("hero"), &fields) == nil {
		return []contentful.Entry{{Fields: fields}}
	}
	return nil
}

func sections(e contentful.Entry, r contentful.Resolver, name string) []Section {
	return sectionsFrom(linkedEntries(e, r, name), r)
}

func sectionsFrom(entries []contentful.Entry, r contentful.Resolver) []Section {
	out := []Section{}
	for _, se := range entries {
		out = append(out, sectionFromEntry(se, r))
	}
	return out
}

// sectionFromEntry is the one conversion used for every section kind,
// including testimonial sections.
func sectionFromEntry(e contentful.Entry, r contentful.Resolver) Section {
	s := NewSection(e.Sys.ID, strings.ToLower(str(e, "type", "sectionType", "section_type")), str(e, "title", "heading"))
	s.Subtitle = str(e, "subtitle", "subheading")
	s.Body = str(e, "body", "content", "description")
	s.Images = images(e, r, "images", "image", "backgroundImage", "image_url")
	s.Features = features(e, r, "features", "items")
	if s.Type == "testimonials" || e.Has("testimonials") {
		s.Testimonials = []Testimonial{}
		for _, te := range linkedEntries(e, r, "testimonials") {
			if te.Sys.ID == "" {
				te.Sys.ID = s.ID + "-" + Slugify(str(te, "name", "author"))
			}
			if t, err := TestimonialFromEntry(te, r); err == nil {
				s.Testimonials = append(s.Testimonials, t)
			}
		}
	}
	return s
}

func jsonNumber(msg json.RawMessage) string {
	var n json.Number
	if json.Unmarshal(msg, &n) == nil {
		return n.String()
	}
	return ""
}
