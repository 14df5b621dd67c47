// Package cache is the content request cache. It deduplicates concurrent
// loads of the same key and serves stale values while a background refresh
// runs, in the manner of a client-side query cache.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/vendsite/logging"
)

// Entry is a stored value and the time it was loaded.
type Entry struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Backend stores encoded entries.
type Backend interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
	Flush(ctx context.Context) error
}

// Config sets the freshness windows. A value younger than FreshFor is
// served as is; one younger than FreshFor+StaleFor is served and refreshed
// in the background; anything older is reloaded in the foreground.
type Config struct {
	FreshFor       time.Duration `yaml:"fresh_for"`
	StaleFor       time.Duration `yaml:"stale_for"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
}

func (c *Config) setDefaults() {
	if c.FreshFor == 0 {
		c.FreshFor = time.Minute
	}
	if c.StaleFor == 0 {
		c.StaleFor = 10 * time.Minute
	}
	if c.RefreshTimeout == 0 {
		c.RefreshTimeout = 15 * time.Second
	}
}

// Cache fronts a Backend.
type Cache struct {
	cfg     Config
	backend Backend
	group   singleflight.Group
	logger  logging.Logger
	lookups *prometheus.CounterVec
	now     func() time.Time

	refreshing sync.Map
	inflight   sync.WaitGroup
}

// Option customizes a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithMetrics counts lookups by result.
func WithMetrics(lookups *prometheus.CounterVec) Option {
	return func(c *Cache) { c.lookups = lookups }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New returns a Cache over backend.
func New(cfg Config, backend Backend, opts ...Option) *Cache {
	cfg.setDefaults()
	c := &Cache{
		cfg:     cfg,
		backend: backend,
		logger:  logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the value for key, calling load on a miss. Concurrent
// misses for the same key share one load. Load errors are not cached.
// A nil Cache just calls load.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	run := func(ctx context.Context) (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, v)
		return v, nil
	}

	if e, ok := c.lookup(ctx, key); ok {
		var v T
		if err := json.Unmarshal(e.Value, &v); err == nil {
			age := c.now().Sub(e.StoredAt)
			if age < c.cfg.FreshFor {
				c.count("fresh")
				return v, nil
			}
			if age < c.cfg.FreshFor+c.cfg.StaleFor {
				c.count("stale")
				c.revalidate(ctx, key, run)
				return v, nil
			}
		}
	}
	c.count("miss")

	// The shared load is detached from any one caller so a caller that goes
	// away does not fail the others waiting on the same key.
	ch := c.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RefreshTimeout)
		defer cancel()
		return run(lctx)
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Flush drops every entry.
func (c *Cache) Flush(ctx context.Context) error {
	return c.backend.Flush(ctx)
}

// Wait blocks until background refreshes finish.
func (c *Cache) Wait() {
	c.inflight.Wait()
}

func (c *Cache) lookup(ctx context.Context, key string) (Entry, bool) {
	e, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", logging.String("key", key), logging.Err(err))
		return Entry{}, false
	}
	return e, ok
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", logging.String("key", key), logging.Err(err))
		return
	}
	e := Entry{Value: b, StoredAt: c.now()}
	if err := c.backend.Set(ctx, key, e, c.cfg.FreshFor+c.cfg.StaleFor); err != nil {
		c.logger.Warn("cache set failed", logging.String("key", key), logging.Err(err))
	}
}

// revalidate reloads key in the background unless a refresh is already
// running. The refresh outlives the request that triggered it.
func (c *Cache) revalidate(ctx context.Context, key string, run func(context.Context) (any, error)) {
	if _, busy := c.refreshing.LoadOrStore(key, struct{}{}); busy {
		return
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RefreshTimeout)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer cancel()
		defer c.refreshing.Delete(key)
		if _, err, _ := c.group.Do(key, func() (any, error) { return run(bg) }); err != nil {
			c.logger.Warn("background refresh failed, keeping stale value",
				logging.String("key", key), logging.Err(err))
		}
	}()
}

func (c *Cache) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}
