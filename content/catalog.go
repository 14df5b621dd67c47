package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/vendsite/cache"
	"github.com/eringen/vendsite/contentful"
	"github.com/eringen/vendsite/legacy"
	"github.com/eringen/vendsite/logging"
	"github.com/eringen/vendsite/readonly"
)

// Source names where a content type is read from.
type Source string

const (
	SourceCMS    Source = "cms"
	SourceLegacy Source = "legacy"
)

// Migration statuses. Only StatusMigrated switches reads to the CMS when a
// legacy store is configured.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusMigrated   = "migrated"
)

// ValidStatus reports whether s is a migration status.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusMigrated
}

// CMS is the subset of *contentful.Client the catalog reads with.
type CMS interface {
	Entries(ctx context.Context, q contentful.Query) (*contentful.Collection, error)
	AllEntries(ctx context.Context, q contentful.Query) (*contentful.Collection, error)
	Entry(ctx context.Context, contentType, id string) (contentful.Entry, *contentful.Collection, error)
}

// Legacy is the subset of *legacy.Store the catalog reads with.
type Legacy interface {
	List(ctx context.Context, contentType string) ([]legacy.Row, error)
	BySlug(ctx context.Context, contentType, slug string) (legacy.Row, error)
	ByID(ctx context.Context, contentType, id string) (legacy.Row, error)
}

// StatusLookup returns a content type's migration status.
type StatusLookup interface {
	MigrationStatus(ctx context.Context, contentType string) (string, error)
}

// CatalogConfig wires a Catalog. CMS or Legacy may be nil but not both.
type CatalogConfig struct {
	CMS      CMS
	Legacy   Legacy
	Status   StatusLookup
	Cache    *cache.Cache
	Reporter readonly.Reporter
	Logger   logging.Logger
}

// Catalog holds one read-only repository per content type. Writes on every
// repository are disabled.
type Catalog struct {
	Products      *readonly.Adapter[Product]
	Machines      *readonly.Adapter[Machine]
	Technologies  *readonly.Adapter[Technology]
	BusinessGoals *readonly.Adapter[BusinessGoal]
	BlogPosts     *readonly.Adapter[BlogPost]
	Testimonials  *readonly.Adapter[Testimonial]
	LandingPages  *readonly.Adapter[LandingPage]

	cfg   CatalogConfig
	repos map[string]readonly.Invoker
}

// NewCatalog builds every repository.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	if cfg.CMS == nil && cfg.Legacy == nil {
		return nil, errors.New("content: a CMS client or a legacy store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	c := &Catalog{cfg: cfg}

	var err error
	if c.Products, err = build(c, TypeProduct, ProductFromEntry, sortProducts, func(v Product) string { return v.Slug }); err != nil {
		return nil, err
	}
	if c.Machines, err = build(c, TypeMachine, MachineFromEntry, sortMachines, func(v Machine) string { return v.Slug }); err != nil {
		return nil, err
	}
	if c.Technologies, err = build(c, TypeTechnology, TechnologyFromEntry, sortTechnologies, func(v Technology) string { return v.Slug }); err != nil {
		return nil, err
	}
	if c.BusinessGoals, err = build(c, TypeBusinessGoal, BusinessGoalFromEntry, sortBusinessGoals, func(v BusinessGoal) string { return v.Slug }); err != nil {
		return nil, err
	}
	if c.BlogPosts, err = build(c, TypeBlogPost, BlogPostFromEntry, sortBlogPosts, func(v BlogPost) string { return v.Slug }); err != nil {
		return nil, err
	}
	if c.Testimonials, err = build(c, TypeTestimonial, TestimonialFromEntry, sortTestimonials, func(v Testimonial) string { return v.Slug }); err != nil {
		return nil, err
	}
	if c.LandingPages, err = build(c, TypeLandingPage, LandingPageFromEntry, sortLandingPages, func(v LandingPage) string { return v.Slug }); err != nil {
		return nil, err
	}

	c.repos = map[string]readonly.Invoker{
		TypeProduct:      c.Products,
		TypeMachine:      c.Machines,
		TypeTechnology:   c.Technologies,
		TypeBusinessGoal: c.BusinessGoals,
		TypeBlogPost:     c.BlogPosts,
		TypeTestimonial:  c.Testimonials,
		TypeLandingPage:  c.LandingPages,
	}
	return c, nil
}

// Repository returns the type-agnostic repository for contentType.
func (c *Catalog) Repository(contentType string) (readonly.Invoker, bool) {
	r, ok := c.repos[contentType]
	return r, ok
}

// Source reports where contentType is currently read from.
func (c *Catalog) Source(ctx context.Context, contentType string) Source {
	if c.cfg.Legacy == nil {
		return SourceCMS
	}
	if c.cfg.CMS == nil || c.cfg.Status == nil {
		return SourceLegacy
	}
	status, err := c.cfg.Status.MigrationStatus(ctx, contentType)
	if err != nil {
		c.cfg.Logger.Warn("migration status lookup failed, reading from legacy store",
			logging.String("content_type", contentType), logging.Err(err))
		return SourceLegacy
	}
	if status == StatusMigrated {
		return SourceCMS
	}
	return SourceLegacy
}

type mapper[T any] func(contentful.Entry, contentful.Resolver) (T, error)

// source implements the three retained reads of one content type.
type source[T any] struct {
	cat         *Catalog
	contentType string
	mapEntry    mapper[T]
	sortItems   func([]T)
	slugOf      func(T) string
}

func build[T any](c *Catalog, contentType string, m mapper[T], sortItems func([]T), slugOf func(T) string) (*readonly.Adapter[T], error) {
	s := &source[T]{cat: c, contentType: contentType, mapEntry: m, sortItems: sortItems, slugOf: slugOf}
	return readonly.New(contentType, readonly.Ops[T]{
		GetAll:    s.getAll,
		GetBySlug: s.getBySlug,
		GetByID:   s.getByID,
	}, readonly.WriteOps(), c.cfg.Reporter)
}

func (s *source[T]) key(from Source, op readonly.Op, arg string) string {
	k := fmt.Sprintf("%s:%s:%s", from, s.contentType, op)
	if arg != "" {
		k += ":" + arg
	}
	return k
}

func (s *source[T]) getAll(ctx context.Context) ([]T, error) {
	from := s.cat.Source(ctx, s.contentType)
	return cache.Fetch(ctx, s.cat.cfg.Cache, s.key(from, readonly.OpGetAll, ""), func(ctx context.Context) ([]T, error) {
		return s.loadAll(ctx, from)
	})
}

func (s *source[T]) loadAll(ctx context.Context, from Source) ([]T, error) {
	entries, resolver, err := s.list(ctx, from)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		item, err := s.mapEntry(e, resolver)
		if err != nil {
			s.cat.cfg.Logger.Warn("skipping malformed entry",
				logging.String("content_type", s.contentType),
				logging.String("source", string(from)),
				logging.Err(err))
			continue
		}
		out = append(out, item)
	}
	s.sortItems(out)
	return out, nil
}

func (s *source[T]) list(ctx context.Context, from Source) ([]contentful.Entry, contentful.Resolver, error) {
	if from == SourceLegacy {
		rows, err := s.cat.cfg.Legacy.List(ctx, s.contentType)
		if err != nil {
			return nil, nil, err
		}
		entries := make([]contentful.Entry, 0, len(rows))
		for _, r := range rows {
			entries = append(entries, r.Entry())
		}
		return entries, contentful.NoIncludes, nil
	}
	coll, err := s.cat.cfg.CMS.AllEntries(ctx, contentful.Query{ContentType: s.contentType, Order: "sys.createdAt"})
	if err != nil {
		return nil, nil, err
	}
	return coll.Items, coll, nil
}

// getBySlug matches the stored slug first. Records whose slug was derived
// from the title or normalized on mapping are found by scanning the mapped
// list, so every listed slug resolves.
func (s *source[T]) getBySlug(ctx context.Context, slug string) (T, error) {
	from := s.cat.Source(ctx, s.contentType)
	return cache.Fetch(ctx, s.cat.cfg.Cache, s.key(from, readonly.OpGetBySlug, slug), func(ctx context.Context) (T, error) {
		item, err := s.lookupSlug(ctx, from, slug)
		if !errors.Is(err, ErrNotFound) {
			return item, err
		}
		all, lerr := s.loadAll(ctx, from)
		if lerr != nil {
			return item, lerr
		}
		for _, v := range all {
			if s.slugOf(v) == slug {
				return v, nil
			}
		}
		return item, err
	})
}

func (s *source[T]) lookupSlug(ctx context.Context, from Source, slug string) (T, error) {
	var zero T
	if from == SourceLegacy {
		row, err := s.cat.cfg.Legacy.BySlug(ctx, s.contentType, slug)
		if err != nil {
			return zero, s.notFound(err, slug)
		}
		return s.mapEntry(row.Entry(), contentful.NoIncludes)
	}
	coll, err := s.cat.cfg.CMS.Entries(ctx, contentful.Query{
		ContentType: s.contentType,
		Fields:      map[string]string{"slug": slug},
		Limit:       1,
	})
	if err != nil {
		return zero, err
	}
	if len(coll.Items) == 0 {
		return zero, fmt.Errorf("%s %q: %w", s.contentType, slug, ErrNotFound)
	}
	return s.mapEntry(coll.Items[0], coll)
}

func (s *source[T]) getByID(ctx context.Context, id string) (T, error) {
	from := s.cat.Source(ctx, s.contentType)
	return cache.Fetch(ctx, s.cat.cfg.Cache, s.key(from, readonly.OpGetByID, id), func(ctx context.Context) (T, error) {
		var zero T
		if from == SourceLegacy {
			row, err := s.cat.cfg.Legacy.ByID(ctx, s.contentType, id)
			if err != nil {
				return zero, s.notFound(err, id)
			}
			return s.mapEntry(row.Entry(), contentful.NoIncludes)
		}
		e, coll, err := s.cat.cfg.CMS.Entry(ctx, s.contentType, id)
		if err != nil {
			return zero, s.notFound(err, id)
		}
		return s.mapEntry(e, coll)
	})
}

func (s *source[T]) notFound(err error, key string) error {
	if errors.Is(err, legacy.ErrNotFound) || errors.Is(err, contentful.ErrNotFound) {
		return fmt.Errorf("%s %q: %w", s.contentType, key, ErrNotFound)
	}
	return err
}

// Bundle is a full export of the catalog.
type Bundle struct {
	ExportedAt    time.Time         `json:"exported_at"`
	Sources       map[string]Source `json:"sources"`
	Products      []Product         `json:"products"`
	Machines      []Machine         `json:"machines"`
	Technologies  []Technology      `json:"technologies"`
	BusinessGoals []BusinessGoal    `json:"business_goals"`
	BlogPosts     []BlogPost        `json:"blog_posts"`
	Testimonials  []Testimonial     `json:"testimonials"`
	LandingPages  []LandingPage     `json:"landing_pages"`
}

// Export reads every content type concurrently.
func (c *Catalog) Export(ctx context.Context) (Bundle, error) {
	b := Bundle{ExportedAt: time.Now().UTC(), Sources: map[string]Source{}}
	for _, t := range Types() {
		b.Sources[t] = c.Source(ctx, t)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { b.Products, err = c.Products.GetAll(ctx); return })
	g.Go(func() (err error) { b.Machines, err = c.Machines.GetAll(ctx); return })
	g.Go(func() (err error) { b.Technologies, err = c.Technologies.GetAll(ctx); return })
	g.Go(func() (err error) { b.BusinessGoals, err = c.BusinessGoals.GetAll(ctx); return })
	g.Go(func() (err error) { b.BlogPosts, err = c.BlogPosts.GetAll(ctx); return })
	g.Go(func() (err error) { b.Testimonials, err = c.Testimonials.GetAll(ctx); return })
	g.Go(func() (err error) { b.LandingPages, err = c.LandingPages.GetAll(ctx); return })
	if err := g.Wait(); err != nil {
		return Bundle{}, fmt.Errorf("export catalog: %w", err)
	}
	return b, nil
}
