package content

import (
	"fmt"
	"strings"
)

// The constructors below are the only way records are built from external
// data. They guarantee a non-empty ID and Slug and non-nil collections.

func identity(contentType, id, title, slug string) (string, string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", fmt.Errorf("%s %q: id is required: %w", contentType, title, ErrInvalidRecord)
	}
	slug = Slugify(slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		slug = Slugify(id)
	}
	if slug == "" {
		slug = id
	}
	return id, slug, nil
}

// NewImage returns an Image, or nil when url is empty.
func NewImage(url, alt string, width, height int) *Image {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	return &Image{URL: url, Alt: alt, Width: width, Height: height}
}

// NewSection returns a Section with empty collections.
func NewSection(id, sectionType, title string) Section {
	if sectionType == "" {
		sectionType = "default"
	}
	return Section{
		ID:       id,
		Type:     sectionType,
		Title:    title,
		Images:   []Image{},
		Features: []Feature{},
	}
}

func NewProduct(id, title, slug string) (Product, error) {
	id, slug, err := identity(TypeProduct, id, title, slug)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:       id,
		Title:    title,
		Slug:     slug,
		Images:   []Image{},
		Features: []Feature{},
		Specs:    map[string]string{},
		Visible:  true,
	}, nil
}

func NewMachine(id, title, slug string) (Machine, error) {
	id, slug, err := identity(TypeMachine, id, title, slug)
	if err != nil {
		return Machine{}, err
	}
	return Machine{
		ID:       id,
		Title:    title,
		Slug:     slug,
		Type:     "standard",
		Images:   []Image{},
		Features: []string{},
		Specs:    map[string]string{},
		Visible:  true,
	}, nil
}

func NewTechnology(id, title, slug string) (Technology, error) {
	id, slug, err := identity(TypeTechnology, id, title, slug)
	if err != nil {
		return Technology{}, err
	}
	return Technology{
		ID:       id,
		Title:    title,
		Slug:     slug,
		Sections: []Section{},
		Visible:  true,
	}, nil
}

func NewBusinessGoal(id, title, slug string) (BusinessGoal, error) {
	id, slug, err := identity(TypeBusinessGoal, id, title, slug)
	if err != nil {
		return BusinessGoal{}, err
	}
	return BusinessGoal{
		ID:       id,
		Title:    title,
		Slug:     slug,
		Benefits: []string{},
		Features: []Feature{},
		Visible:  true,
	}, nil
}

func NewBlogPost(id, title, slug string) (BlogPost, error) {
	id, slug, err := identity(TypeBlogPost, id, title, slug)
	if err != nil {
		return BlogPost{}, err
	}
	return BlogPost{
		ID:    id,
		Title: title,
		Slug:  slug,
		Tags:  []string{},
	}, nil
}

// NewTestimonial keys the slug off the person's name.
func NewTestimonial(id, name string) (Testimonial, error) {
	id, slug, err := identity(TypeTestimonial, id, name, "")
	if err != nil {
		return Testimonial{}, err
	}
	return Testimonial{
		ID:      id,
		Name:    name,
		Slug:    slug,
		Rating:  5,
		Visible: true,
	}, nil
}

func NewLandingPage(id, title, slug string) (LandingPage, error) {
	id, slug, err := identity(TypeLandingPage, id, title, slug)
	if err != nil {
		return LandingPage{}, err
	}
	return LandingPage{
		ID:       id,
		Title:    title,
		Slug:     slug,
		Sections: []Section{},
	}, nil
}
