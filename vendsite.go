// Package vendsite is the vending solutions marketing site and its admin
// console, built with Go, Echo, and templ.
//
// Content is read from the CMS, or from the legacy database for content
// types that have not been migrated yet. Every write the old admin editor
// offered now fails with a deprecation error; editing happens in the CMS.
//
// Sites may replace any page through the ViewFuncs struct; unset fields use
// the components from the views package.
package vendsite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/vendsite/cache"
	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/contentful"
	"github.com/eringen/vendsite/legacy"
	"github.com/eringen/vendsite/logging"
	"github.com/eringen/vendsite/metrics"
	"github.com/eringen/vendsite/readonly"
	"github.com/eringen/vendsite/views"
)

// ViewFuncs holds the components the handlers render.
type ViewFuncs struct {
	Home           func(p views.Page, h views.HomeData) templ.Component
	Products       func(p views.Page, items []content.Product) templ.Component
	Product        func(p views.Page, item content.Product) templ.Component
	Machines       func(p views.Page, items []content.Machine) templ.Component
	Machine        func(p views.Page, item content.Machine) templ.Component
	Technologies   func(p views.Page, items []content.Technology) templ.Component
	Technology     func(p views.Page, item content.Technology) templ.Component
	BusinessGoals  func(p views.Page, items []content.BusinessGoal) templ.Component
	BusinessGoal   func(p views.Page, item content.BusinessGoal) templ.Component
	Blog           func(p views.Page, posts []content.BlogPost) templ.Component
	BlogPost       func(p views.Page, post content.BlogPost, related []content.BlogPost) templ.Component
	Contact        func(p views.Page, form views.ContactForm) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(d views.Dashboard, csrfToken string) templ.Component
	AdminContent   func(l views.ContentList, csrfToken string) templ.Component
	AdminMedia     func(media []views.MediaFile, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

func (v *ViewFuncs) setDefaults() {
	def := DefaultViews()
	if v.Home == nil {
		v.Home = def.Home
	}
	if v.Products == nil {
		v.Products = def.Products
	}
	if v.Product == nil {
		v.Product = def.Product
	}
	if v.Machines == nil {
		v.Machines = def.Machines
	}
	if v.Machine == nil {
		v.Machine = def.Machine
	}
	if v.Technologies == nil {
		v.Technologies = def.Technologies
	}
	if v.Technology == nil {
		v.Technology = def.Technology
	}
	if v.BusinessGoals == nil {
		v.BusinessGoals = def.BusinessGoals
	}
	if v.BusinessGoal == nil {
		v.BusinessGoal = def.BusinessGoal
	}
	if v.Blog == nil {
		v.Blog = def.Blog
	}
	if v.BlogPost == nil {
		v.BlogPost = def.BlogPost
	}
	if v.Contact == nil {
		v.Contact = def.Contact
	}
	if v.AdminLogin == nil {
		v.AdminLogin = def.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = def.AdminDashboard
	}
	if v.AdminContent == nil {
		v.AdminContent = def.AdminContent
	}
	if v.AdminMedia == nil {
		v.AdminMedia = def.AdminMedia
	}
	if v.NotFound == nil {
		v.NotFound = def.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = def.ServerError
	}
}

// DefaultViews returns the built-in components.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:           views.Home,
		Products:       views.Products,
		Product:        views.Product,
		Machines:       views.Machines,
		Machine:        views.Machine,
		Technologies:   views.Technologies,
		Technology:     views.Technology,
		BusinessGoals:  views.BusinessGoals,
		BusinessGoal:   views.BusinessGoal,
		Blog:           views.Blog,
		BlogPost:       views.BlogPost,
		Contact:        views.Contact,
		AdminLogin:     views.AdminLogin,
		AdminDashboard: views.AdminDashboard,
		AdminContent:   views.AdminContent,
		AdminMedia:     views.AdminMedia,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
	}
}

// App wires together the stores, CMS client, catalog, cache, handlers and
// middleware.
type App struct {
	Config  Config
	Echo    *echo.Echo
	Store   *Store
	Catalog *content.Catalog
	Cache   *cache.Cache
	Tracker *readonly.Tracker
	Metrics *metrics.Metrics
	Logger  logging.Logger
	Views   ViewFuncs

	cms            *contentful.Client
	legacy         *legacy.Store
	cacheBackend   cache.Backend
	redis          *cache.Redis
	loginLimiter   *RateLimiter
	contactLimiter *RateLimiter
	customRoutes   []func(*App)
	ready          bool
}

// New creates an App with the given configuration and views. Call Init (or
// Start, which calls it) before serving.
func New(cfg Config, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	v.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  v,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init validates the configuration, opens the stores, and registers
// middleware and routes.
func (a *App) Init() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("vendsite: %w", err)
	}
	if a.Logger == nil {
		l, err := logging.New(a.Config.Log)
		if err != nil {
			return fmt.Errorf("vendsite: init logger: %w", err)
		}
		a.Logger = l
	}
	a.Metrics = metrics.New()
	a.Tracker = readonly.NewTracker(a.Logger, a.Metrics.DeprecatedCalls)

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("vendsite: init store: %w", err)
	}
	a.Store = store

	if err := a.initSources(); err != nil {
		a.Close()
		return err
	}
	if err := a.initCache(); err != nil {
		a.Close()
		return err
	}

	cfg := content.CatalogConfig{
		Status:   a.Store,
		Cache:    a.Cache,
		Reporter: a.Tracker,
		Logger:   a.Logger,
	}
	if a.cms != nil {
		cfg.CMS = a.cms
	}
	if a.legacy != nil {
		cfg.Legacy = a.legacy
	}
	catalog, err := content.NewCatalog(cfg)
	if err != nil {
		a.Close()
		return fmt.Errorf("vendsite: init catalog: %w", err)
	}
	a.Catalog = catalog

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.contactLimiter = NewRateLimiter(3, 10*time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

func (a *App) initSources() error {
	if a.Config.Contentful.SpaceID != "" {
		client, err := contentful.New(a.Config.Contentful,
			contentful.WithLogger(a.Logger),
			contentful.WithMetrics(a.Metrics.CMSRequests, a.Metrics.CMSDuration),
		)
		if err != nil {
			return fmt.Errorf("vendsite: init cms client: %w", err)
		}
		a.cms = client
	}
	if a.Config.Legacy.DSN != "" {
		store, err := legacy.Open(a.Config.Legacy)
		if err != nil {
			return fmt.Errorf("vendsite: open legacy database: %w", err)
		}
		a.legacy = store
		a.Logger.Warn("legacy database configured, unmigrated content types read from it",
			logging.String("driver", a.Config.Legacy.Driver))
	}
	return nil
}

func (a *App) initCache() error {
	backend := a.cacheBackend
	if backend == nil && a.Config.Redis.Address != "" {
		r, err := cache.NewRedis(a.Config.Redis)
		if err != nil {
			return fmt.Errorf("vendsite: init redis cache: %w", err)
		}
		a.redis = r
		backend = r
	}
	if backend == nil {
		backend = cache.NewMemory()
	}
	a.Cache = cache.New(a.Config.Cache, backend,
		cache.WithLogger(a.Logger),
		cache.WithMetrics(a.Metrics.CacheLookups),
	)
	return nil
}

// Start initializes the app if needed and serves until the server is shut
// down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Info("listening", logging.String("addr", a.Config.Addr), logging.String("url", a.Config.URL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and waits for background cache
// refreshes.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if a.Cache != nil {
		a.Cache.Wait()
	}
	return err
}

// Close releases the stores and background workers.
func (a *App) Close() error {
	var errs []error
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.contactLimiter != nil {
		a.contactLimiter.Stop()
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.legacy != nil {
		errs = append(errs, a.legacy.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
