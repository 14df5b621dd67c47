package vendsite

import (
	"context"
	"fmt"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/contentful"
	"github.com/eringen/vendsite/legacy"
	"github.com/eringen/vendsite/logging"
)

// ExportCatalog reads every content type straight from the configured
// sources, without the HTTP stack or the admin settings. The app database
// is opened only when both sources are set, since migration statuses then
// decide which one each type is read from.
func ExportCatalog(ctx context.Context, cfg Config, logger logging.Logger) (content.Bundle, error) {
	cfg.setDefaults()
	if err := cfg.ValidateSources(); err != nil {
		return content.Bundle{}, fmt.Errorf("vendsite: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	var (
		closers []func() error
		catCfg  = content.CatalogConfig{Logger: logger}
	)
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("export: close failed", logging.Err(err))
			}
		}
	}()

	if cfg.Contentful.SpaceID != "" {
		client, err := contentful.New(cfg.Contentful, contentful.WithLogger(logger))
		if err != nil {
			return content.Bundle{}, fmt.Errorf("vendsite: init cms client: %w", err)
		}
		catCfg.CMS = client
	}
	if cfg.Legacy.DSN != "" {
		old, err := legacy.Open(cfg.Legacy)
		if err != nil {
			return content.Bundle{}, fmt.Errorf("vendsite: open legacy database: %w", err)
		}
		closers = append(closers, old.Close)
		catCfg.Legacy = old
	}
	if catCfg.CMS != nil && catCfg.Legacy != nil {
		store, err := NewStore(cfg.DatabasePath)
		if err != nil {
			return content.Bundle{}, fmt.Errorf("vendsite: init store: %w", err)
		}
		closers = append(closers, store.Close)
		catCfg.Status = store
	}

	catalog, err := content.NewCatalog(catCfg)
	if err != nil {
		return content.Bundle{}, fmt.Errorf("vendsite: init catalog: %w", err)
	}
	bundle, err := catalog.Export(ctx)
	if err != nil {
		return content.Bundle{}, fmt.Errorf("vendsite: %w", err)
	}
	return bundle, nil
}
