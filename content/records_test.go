package content_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/vendsite/content"
)

func TestConstructorsRequireID(t *testing.T) {
	_, err := content.NewProduct("  ", "Cooler", "")
	require.ErrorIs(t, err, content.ErrInvalidRecord)

	_, err = content.NewTestimonial("", "Ada")
	require.ErrorIs(t, err, content.ErrInvalidRecord)
}

func TestSlugFallsBackToTitleThenID(t *testing.T) {
	p, err := content.NewProduct("p1", "Smart Cooler 2000", "")
	require.NoError(t, err)
	assert.Equal(t, "smart-cooler-2000", p.Slug)

	p, err = content.NewProduct("P_9", "", "")
	require.NoError(t, err)
	assert.Equal(t, "p-9", p.Slug)

	p, err = content.NewProduct("p1", "Ignored", "Custom Slug")
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", p.Slug)
}

func TestConstructorsAllocateCollections(t *testing.T) {
	m, err := content.NewMachine("m1", "Combo", "")
	require.NoError(t, err)
	assert.NotNil(t, m.Images)
	assert.NotNil(t, m.Features)
	assert.NotNil(t, m.Specs)
	assert.Equal(t, "standard", m.Type)
	assert.True(t, m.Visible)

	g, err := content.NewBusinessGoal("g1", "Reduce shrink", "")
	require.NoError(t, err)
	assert.NotNil(t, g.Benefits)
	assert.NotNil(t, g.Features)

	lp, err := content.NewLandingPage("l1", "Home", "home")
	require.NoError(t, err)
	assert.NotNil(t, lp.Sections)

	tm, err := content.NewTestimonial("t1", "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, 5, tm.Rating)
	assert.Equal(t, "ada-lovelace", tm.Slug)

	s := content.NewSection("s1", "", "Intro")
	assert.Equal(t, "default", s.Type)
	assert.NotNil(t, s.Images)
}

func TestNewImageEmptyURL(t *testing.T) {
	assert.Nil(t, content.NewImage(" ", "alt", 0, 0))
	img := content.NewImage("https://x/y.png", "alt", 10, 20)
	require.NotNil(t, img)
	assert.Equal(t, 10, img.Width)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":        "hello-world",
		"  Trim  me  ":       "trim-me",
		"Cold & Hot Drinks!": "cold-hot-drinks",
		"---":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, content.Slugify(in), in)
	}
}

func TestVisibleFilters(t *testing.T) {
	a, _ := content.NewProduct("a", "A", "")
	b, _ := content.NewProduct("b", "B", "")
	b.Visible = false
	got := content.Visible([]content.Product{a, b})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestValidStatus(t *testing.T) {
	assert.True(t, content.ValidStatus(content.StatusMigrated))
	assert.True(t, content.ValidStatus("pending"))
	assert.False(t, content.ValidStatus("done"))
}
