// Package legacy reads content from the relational backend the site used
// before the CMS. It is read-only: writes to these tables are no longer
// supported anywhere in the application.
package legacy

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/eringen/vendsite/contentful"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("legacy: not found")

// Config selects the database. On Postgres the legacy_entries relation is
// expected to exist (a view over the old per-type tables); on SQLite it is
// created on open.
type Config struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Row is one legacy content record.
type Row struct {
	ID          string     `db:"id" json:"id"`
	ContentType string     `db:"content_type" json:"content_type"`
	Slug        string     `db:"slug" json:"slug"`
	Title       string     `db:"title" json:"title"`
	Fields      jsonColumn `db:"fields" json:"fields"`
	UpdatedAt   timeColumn `db:"updated_at" json:"updated_at"`
}

// Store queries legacy_entries.
type Store struct {
	db *sqlx.DB
}

// Open connects using cfg.
func Open(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("legacy: dsn is required")
	}
	switch cfg.Driver {
	case DriverPostgres:
	case DriverSQLite, "":
		cfg.Driver = DriverSQLite
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("legacy: unsupported driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open legacy db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	s := New(db)
	if cfg.Driver == DriverSQLite {
		if err := s.ensureSchema(); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure legacy schema: %w", err)
		}
	}
	return s, nil
}

// New wraps an open connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
CREATE TABLE IF NOT EXISTS legacy_entries (
    id TEXT NOT NULL,
    content_type TEXT NOT NULL,
    slug TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    fields TEXT NOT NULL DEFAULT '{}',
    updated_at TEXT NOT NULL,
    PRIMARY KEY (content_type, id)
);
CREATE INDEX IF NOT EXISTS idx_legacy_entries_slug ON legacy_entries(content_type, slug);
`)
	return err
}

const selectRows = `SELECT id, content_type, slug, title, fields, updated_at FROM legacy_entries`

// List returns every row of contentType ordered by title.
func (s *Store) List(ctx context.Context, contentType string) ([]Row, error) {
	var rows []Row
	q := s.db.Rebind(selectRows + ` WHERE content_type = ? ORDER BY title`)
	if err := s.db.SelectContext(ctx, &rows, q, contentType); err != nil {
		return nil, fmt.Errorf("list legacy %s: %w", contentType, err)
	}
	return rows, nil
}

// BySlug returns the row of contentType with slug.
func (s *Store) BySlug(ctx context.Context, contentType, slug string) (Row, error) {
	return s.one(ctx, selectRows+` WHERE content_type = ? AND slug = ?`, contentType, slug)
}

// ByID returns the row of contentType with id.
func (s *Store) ByID(ctx context.Context, contentType, id string) (Row, error) {
	return s.one(ctx, selectRows+` WHERE content_type = ? AND id = ?`, contentType, id)
}

// Dump returns every row, for export.
func (s *Store) Dump(ctx context.Context) ([]Row, error) {
	var rows []Row
	if err := s.db.SelectContext(ctx, &rows, selectRows+` ORDER BY content_type, id`); err != nil {
		return nil, fmt.Errorf("dump legacy entries: %w", err)
	}
	return rows, nil
}

func (s *Store) one(ctx context.Context, query string, args ...any) (Row, error) {
	var r Row
	err := s.db.GetContext(ctx, &r, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("%v: %w", args, ErrNotFound)
	}
	if err != nil {
		return Row{}, fmt.Errorf("get legacy row: %w", err)
	}
	return r, nil
}

// Entry presents the row in the CMS entry shape so one set of mappers
// serves both sources. The id, slug and title columns win over the same
// keys inside fields.
func (r Row) Entry() contentful.Entry {
	fields := map[string]json.RawMessage{}
	_ = json.Unmarshal(r.Fields, &fields)
	put := func(k, v string) {
		if v == "" {
			return
		}
		b, _ := json.Marshal(v)
		fields[k] = b
	}
	put("slug", r.Slug)
	put("title", r.Title)

	ct := contentful.NewLink("ContentType", r.ContentType)
	return contentful.Entry{
		Sys: contentful.Sys{
			ID:          r.ID,
			Type:        "Entry",
			ContentType: &ct,
			CreatedAt:   time.Time(r.UpdatedAt),
			UpdatedAt:   time.Time(r.UpdatedAt),
		},
		Fields: fields,
	}
}

// jsonColumn scans json, jsonb and text columns.
type jsonColumn json.RawMessage

func (j *jsonColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = jsonColumn("{}")
	case []byte:
		*j = append(jsonColumn(nil), v...)
	case string:
		*j = jsonColumn(v)
	default:
		return fmt.Errorf("legacy: cannot scan %T into fields", src)
	}
	return nil
}

func (j jsonColumn) Value() (driver.Value, error) {
	return []byte(j), nil
}

func (j jsonColumn) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return []byte(j), nil
}

// timeColumn scans timestamps stored natively or as RFC 3339 text.
type timeColumn time.Time

func (t *timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = timeColumn(time.Time{})
	case time.Time:
		*t = timeColumn(v)
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("legacy: cannot scan %T into updated_at", src)
	}
	return nil
}

func (t *timeColumn) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05", "2006-01-02"} {
		if v, err := time.Parse(layout, s); err == nil {
			*t = timeColumn(v)
			return nil
		}
	}
	return fmt.Errorf("legacy: unparseable timestamp %q", s)
}

func (t timeColumn) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t))
}
