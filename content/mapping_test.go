package content_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/contentful"
)

func entry(t *testing.T, id string, fields string) contentful.Entry {
	t.Helper()
	e := contentful.Entry{Fields: map[string]json.RawMessage{}}
	e.Sys.ID = id
	require.NoError(t, json.Unmarshal([]byte(fields), &e.Fields))
	return e
}

func collection(t *testing.T, body string) *contentful.Collection {
	t.Helper()
	var c contentful.Collection
	require.NoError(t, json.Unmarshal([]byte(body), &c))
	return &c
}

func TestProductFromCMSEntry(t *testing.T) {
	coll := collection(t, `{
	  "items": [],
	  "includes": {
	    "Entry": [{"sys": {"id": "f1", "type": "Entry"}, "fields": {"title": "Cashless", "description": "Tap to pay"}}],
	    "Asset": [{"sys": {"id": "a1", "type": "Asset"}, "fields": {"title": "Cooler", "file": {"url": "//img/c.png", "details": {"image": {"width": 640, "height": 480}}}}}]
	  }
	}`)
	e := entry(t, "p1", `{
	  "title": "Smart Cooler",
	  "shortDescription": "Cold drinks",
	  "price": 1200,
	  "mainImage": {"sys": {"type": "Link", "linkType": "Asset", "id": "a1"}},
	  "features": [{"sys": {"type": "Link", "linkType": "Entry", "id": "f1"}}],
	  "specifications": {"shelves": 5},
	  "order": 3
	}`)

	p, err := content.ProductFromEntry(e, coll)
	require.NoError(t, err)
	assert.Equal(t, "smart-cooler", p.Slug)
	assert.Equal(t, "Cold drinks", p.Description)
	assert.Equal(t, "1200", p.Price)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "https://img/c.png", p.Images[0].URL)
	assert.Equal(t, "Cooler", p.Images[0].Alt)
	require.Len(t, p.Features, 1)
	assert.Equal(t, "Tap to pay", p.Features[0].Description)
	assert.Equal(t, "5", p.Specs["shelves"])
	assert.Equal(t, 3, p.Order)
	assert.True(t, p.Visible)
}

func TestProductFromLegacyRow(t *testing.T) {
	e := entry(t, "p2", `{
	  "name": "Snack Tower",
	  "short_description": "Snacks",
	  "image_url": "https://cdn/x.jpg",
	  "features": ["Refrigerated", " "],
	  "display_order": 2,
	  "is_visible": false
	}`)

	p, err := content.ProductFromEntry(e, contentful.NoIncludes)
	require.NoError(t, err)
	assert.Equal(t, "Snack Tower", p.Title)
	assert.Equal(t, "Snacks", p.Description)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "https://cdn/x.jpg", p.Images[0].URL)
	require.Len(t, p.Features, 1)
	assert.Equal(t, "Refrigerated", p.Features[0].Title)
	assert.Equal(t, 2, p.Order)
	assert.False(t, p.Visible)
}

func TestMachineTypeLowercased(t *testing.T) {
	e := entry(t, "m1", `{"title": "Combo", "machine_type": "Refrigerated", "features": ["A", "B"]}`)
	m, err := content.MachineFromEntry(e, contentful.NoIncludes)
	require.NoError(t, err)
	assert.Equal(t, "refrigerated", m.Type)
	assert.Equal(t, []string{"A", "B"}, m.Features)
}

func TestMappingRejectsMissingID(t *testing.T) {
	e := entry(t, "", `{"title": "No id"}`)
	_, err := content.TechnologyFromEntry(e, contentful.NoIncludes)
	require.ErrorIs(t, err, content.ErrInvalidRecord)
}

func TestBlogPostPublishedDate(t *testing.T) {
	e := entry(t, "b1", `{"title": "Hello", "publishedDate": "2024-05-01", "tags": "news"}`)
	p, err := content.BlogPostFromEntry(e, contentful.NoIncludes)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), p.PublishedAt)
	assert.Equal(t, []string{"news"}, p.Tags)

	created := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	e = entry(t, "b2", `{"title": "Undated"}`)
	e.Sys.CreatedAt = created
	p, err = content.BlogPostFromEntry(e, contentful.NoIncludes)
	require.NoError(t, err)
	assert.Equal(t, created, p.PublishedAt)
}

func TestTestimonialRatingBounds(t *testing.T) {
	e := entry(t, "t1", `{"author_name": "Ada", "content": "Great", "rating": 9}`)
	tm, err := content.TestimonialFromEntry(e, contentful.NoIncludes)
	require.NoError(t, err)
	assert.Equal(t, "Ada", tm.Name)
	assert.Equal(t, "Great", tm.Quote)
	assert.Equal(t, 5, tm.Rating)

	e = entry(t, "t2", `{"name": "Bob", "rating": 3}`)
	tm, err = content.TestimonialFromEntry(e, contentful.NoIncludes)
	require.NoError(t, err)
	assert.Equal(t, 3, tm.Rating)
}

func TestLandingPageSectionsInlineAndLinked(t *testing.T) {
	coll := collection(t, `{
	  "items": [],
	  "includes": {
	    "Entry": [
	      {"sys": {"id": "h1", "type": "Entry"}, "fields": {"title": "Welcome", "sectionType": "Hero"}},
	      {"sys": {"id": "s1", "type": "Entry"}, "fields": {"title": "Kind words", "type": "testimonials",
	        "testimonials": [{"sys": {"type": "Link", "linkType": "Entry", "id": "t1"}}]}},
	      {"sys": {"id": "t1", "type": "Entry"}, "fields": {"name": "Ada", "quote": "Great"}}
	    ]
	  }
	}`)
	e := entry(t, "l1", `{
	  "title": "Home",
	  "hero": {"sys": {"type": "Link", "linkType": "Entry", "id": "h1"}},
	  "sections": [{"sys": {"type": "Link", "linkType": "Entry", "id": "s1"}}]
	}`)

	lp, err := content.LandingPageFromEntry(e, coll)
	require.NoError(t, err)
	require.NotNil(t, lp.Hero)
	assert.Equal(t, "hero", lp.Hero.Type)
	require.Len(t, lp.Sections, 1)
	assert.Equal(t, "testimonials", lp.Sections[0].Type)
	require.Len(t, lp.Sections[0].Testimonials, 1)
	assert.Equal(t, "Ada", lp.Sections[0].Testimonials[0].Name)

	legacyRow := entry(t, "l2", `{
	  "title": "Legacy",
	  "hero": {"title": "Old hero"},
	  "sections": [{"id": "x", "title": "Inline", "section_type": "features", "features": ["One"]}]
	}`)
	lp, err = content.LandingPageFromEntry(legacyRow, contentful.NoIncludes)
	require.NoError(t, err)
	require.NotNil(t, lp.Hero)
	assert.Equal(t, "Old hero", lp.Hero.Title)
	require.Len(t, lp.Sections, 1)
	assert.Equal(t, "x", lp.Sections[0].ID)
	assert.Equal(t, "features", lp.Sections[0].Type)
	require.Len(t, lp.Sections[0].Features, 1)
}
