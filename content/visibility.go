package content

import (
	"sort"
	"strings"
	"time"
)

func (p Product) IsVisible() bool      { return p.Visible }
func (m Machine) IsVisible() bool      { return m.Visible }
func (t Technology) IsVisible() bool   { return t.Visible }
func (g BusinessGoal) IsVisible() bool { return g.Visible }
func (t Testimonial) IsVisible() bool  { return t.Visible }
func (LandingPage) IsVisible() bool    { return true }

// IsVisible hides posts scheduled for the future.
func (p BlogPost) IsVisible() bool {
	return !p.PublishedAt.After(time.Now())
}

// Visible returns the items that may be shown on public pages.
func Visible[T interface{ IsVisible() bool }](items []T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.IsVisible() {
			out = append(out, it)
		}
	}
	return out
}

func byOrderThenTitle(order func(int) int, title func(int) string) func(i, j int) bool {
	return func(i, j int) bool {
		if order(i) != order(j) {
			return order(i) < order(j)
		}
		return strings.ToLower(title(i)) < strings.ToLower(title(j))
	}
}

func sortProducts(ps []Product) {
	sort.SliceStable(ps, byOrderThenTitle(func(i int) int { return ps[i].Order }, func(i int) string { return ps[i].Title }))
}

func sortMachines(ms []Machine) {
	sort.SliceStable(ms, byOrderThenTitle(func(i int) int { return ms[i].Order }, func(i int) string { return ms[i].Title }))
}

func sortTechnologies(ts []Technology) {
	sort.SliceStable(ts, byOrderThenTitle(func(i int) int { return ts[i].Order }, func(i int) string { return ts[i].Title }))
}

func sortBusinessGoals(gs []BusinessGoal) {
	sort.SliceStable(gs, byOrderThenTitle(func(i int) int { return gs[i].Order }, func(i int) string { return gs[i].Title }))
}

// sortBlogPosts puts the newest post first.
func sortBlogPosts(ps []BlogPost) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].PublishedAt.After(ps[j].PublishedAt) })
}

func sortTestimonials(ts []Testimonial) {
	sort.SliceStable(ts, func(i, j int) bool { return strings.ToLower(ts[i].Name) < strings.ToLower(ts[j].Name) })
}

func sortLandingPages(ls []LandingPage) {
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].Slug < ls[j].Slug })
}
