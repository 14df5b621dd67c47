package vendsite

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eringen/vendsite/cache"
	"github.com/eringen/vendsite/contentful"
	"github.com/eringen/vendsite/legacy"
	"github.com/eringen/vendsite/logging"
)

// Config holds all configuration for the site.
type Config struct {
	Name        string `yaml:"name"`        // Site name (default "Vending Solutions")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/vendsite.db")
	StaticDir    string `yaml:"static_dir"`    // Static assets and uploads (default "public")

	AdminPassword string `yaml:"admin_password"` // Required: admin login password
	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS
	WebhookSecret string `yaml:"webhook_secret"` // Shared secret for CMS publish webhooks

	Contentful contentful.Config `yaml:"contentful"`
	Legacy     legacy.Config     `yaml:"legacy"`
	Redis      cache.RedisConfig `yaml:"redis"`
	Cache      cache.Config      `yaml:"cache"`
	Log        logging.Config    `yaml:"log"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default 10s
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Vending Solutions"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/vendsite.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Validate reports missing required settings for serving the site.
func (c *Config) Validate() error {
	var errs []error
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("admin password is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("session secret is required"))
	}
	if err := c.ValidateSources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateSources checks only the content source settings. Commands that
// read content without serving it need nothing else.
func (c *Config) ValidateSources() error {
	if c.Contentful.SpaceID == "" && c.Legacy.DSN == "" {
		return errors.New("a contentful space or a legacy database is required")
	}
	if c.Contentful.SpaceID == "" {
		return nil
	}
	if c.Contentful.Preview && c.Contentful.PreviewToken == "" {
		return errors.New("contentful preview token is required when preview is enabled")
	}
	if !c.Contentful.Preview && c.Contentful.AccessToken == "" {
		return errors.New("contentful access token is required")
	}
	return nil
}

// LoadConfig reads the optional YAML file at path, loads .env files, and
// applies environment overrides. Environment values always win.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if err := loadEnvFiles(); err != nil {
		return cfg, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.setDefaults()
	return cfg, nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Missing files are ignored.
func loadEnvFiles() error {
	files := []string{".env.local", ".env"}
	if f := os.Getenv("ENV_FILE"); f != "" {
		files = []string{f}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func applyEnv(c *Config) {
	c.Name = EnvOr("SITE_NAME", c.Name)
	c.URL = EnvOr("SITE_URL", c.URL)
	c.Description = EnvOr("SITE_DESCRIPTION", c.Description)
	c.Addr = EnvOr("ADDR", c.Addr)
	c.DatabasePath = EnvOr("DATABASE_PATH", c.DatabasePath)
	c.StaticDir = EnvOr("STATIC_DIR", c.StaticDir)
	c.AdminPassword = EnvOr("ADMIN_PASSWORD", c.AdminPassword)
	c.SessionSecret = EnvOr("ADMIN_SESSION_SECRET", c.SessionSecret)
	c.CookieSecure = envBool("COOKIE_SECURE", c.CookieSecure)
	c.WebhookSecret = EnvOr("CONTENTFUL_WEBHOOK_SECRET", c.WebhookSecret)

	c.Contentful.SpaceID = EnvOr("CONTENTFUL_SPACE_ID", c.Contentful.SpaceID)
	c.Contentful.Environment = EnvOr("CONTENTFUL_ENVIRONMENT", c.Contentful.Environment)
	c.Contentful.AccessToken = EnvOr("CONTENTFUL_ACCESS_TOKEN", c.Contentful.AccessToken)
	c.Contentful.PreviewToken = EnvOr("CONTENTFUL_PREVIEW_TOKEN", c.Contentful.PreviewToken)
	c.Contentful.Preview = envBool("CONTENTFUL_PREVIEW", c.Contentful.Preview)

	c.Legacy.Driver = EnvOr("LEGACY_DB_DRIVER", c.Legacy.Driver)
	c.Legacy.DSN = EnvOr("LEGACY_DATABASE_URL", c.Legacy.DSN)

	c.Redis.Address = EnvOr("REDIS_ADDR", c.Redis.Address)
	c.Redis.Password = EnvOr("REDIS_PASSWORD", c.Redis.Password)
	if v, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		c.Redis.DB = v
	}

	c.Cache.FreshFor = envDuration("CACHE_FRESH_FOR", c.Cache.FreshFor)
	c.Cache.StaleFor = envDuration("CACHE_STALE_FOR", c.Cache.StaleFor)
	c.Log.Level = EnvOr("LOG_LEVEL", c.Log.Level)
	c.Log.Development = envBool("LOG_DEVELOPMENT", c.Log.Development)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger replaces the logger built from Config.Log.
func WithLogger(l logging.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithCacheBackend replaces the memory or Redis backend chosen from Config.
func WithCacheBackend(b cache.Backend) Option {
	return func(a *App) {
		a.cacheBackend = b
	}
}
