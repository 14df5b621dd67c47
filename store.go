package vendsite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/vendsite/content"
)

// Store wraps the site's own SQLite database: migration status per content
// type, contact form submissions and uploaded media.
type Store struct {
	db *sql.DB
}

// MigrationStatus records how far a content type has moved to the CMS.
type MigrationStatus struct {
	ContentType string
	Status      string
	Note        string
	UpdatedAt   time.Time
}

// ContactMessage is a submitted contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Media is an uploaded image.
type Media struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   time.Time
}

// storedTimeLayout sorts lexically in time order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrInvalidStatus is returned for an unknown migration status.
var ErrInvalidStatus = errors.New("invalid migration status")

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers
	// wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS migration_status (
    content_type TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS contact_messages (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    company TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contact_messages_created ON contact_messages(created_at);
CREATE TABLE IF NOT EXISTS media (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

// MigrationStatus returns the status of contentType, or pending when none
// has been recorded.
func (s *Store) MigrationStatus(ctx context.Context, contentType string) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM migration_status WHERE content_type = ?`, contentType).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return content.StatusPending, nil
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// ListMigrationStatus returns one entry per known content type, in
// dashboard order. Unrecorded types are reported as pending.
func (s *Store) ListMigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT content_type, status, note, updated_at FROM migration_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recorded := make(map[string]MigrationStatus)
	for rows.Next() {
		var m MigrationStatus
		var updated string
		if err := rows.Scan(&m.ContentType, &m.Status, &m.Note, &updated); err != nil {
			return nil, err
		}
		m.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		recorded[m.ContentType] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(content.Types()))
	for _, ct := range content.Types() {
		m, ok := recorded[ct]
		if !ok {
			m = MigrationStatus{ContentType: ct, Status: content.StatusPending}
		}
		out = append(out, m)
	}
	return out, nil
}

// SetMigrationStatus upserts the status of contentType.
func (s *Store) SetMigrationStatus(ctx context.Context, contentType, status, note string) error {
	if !content.IsType(contentType) {
		return fmt.Errorf("unknown content type %q", contentType)
	}
	if !content.ValidStatus(status) {
		return fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO migration_status (content_type, status, note, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(content_type) DO UPDATE SET status = excluded.status, note = excluded.note, updated_at = excluded.updated_at`,
		contentType, status, strings.TrimSpace(note), time.Now().UTC().Format(time.RFC3339))
	return err
}

// SaveContactMessage stores m, assigning an id and timestamp.
func (s *Store) SaveContactMessage(ctx context.Context, m ContactMessage) (ContactMessage, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO contact_messages (id, name, email, company, phone, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Company, m.Phone, m.Message, m.CreatedAt.Format(storedTimeLayout))
	if err != nil {
		return ContactMessage{}, err
	}
	return m, nil
}

// ListContactMessages returns the newest messages first. limit <= 0 means all.
func (s *Store) ListContactMessages(ctx context.Context, limit int) ([]ContactMessage, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, company, phone, message, created_at FROM contact_messages ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContactMessage
	for rows.Next() {
		var m ContactMessage
		var created string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Company, &m.Phone, &m.Message, &created); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(storedTimeLayout, created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveMedia records an uploaded image.
func (s *Store) SaveMedia(ctx context.Context, m Media) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO media (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.Filename, m.OriginalName, m.Width, m.Height, m.Size, m.UploadedAt.UTC().Format(time.RFC3339))
	return err
}

// ListMedia returns uploads, newest first.
func (s *Store) ListMedia(ctx context.Context) ([]Media, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, original_name, width, height, size, uploaded_at FROM media ORDER BY uploaded_at DESC, filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Media
	for rows.Next() {
		var m Media
		var uploaded string
		if err := rows.Scan(&m.Filename, &m.OriginalName, &m.Width, &m.Height, &m.Size, &uploaded); err != nil {
			return nil, err
		}
		m.UploadedAt, _ = time.Parse(time.RFC3339, uploaded)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MediaExists reports whether filename is recorded.
func (s *Store) MediaExists(ctx context.Context, filename string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media WHERE filename = ?`, filename).Scan(&n)
	return n > 0, err
}

// DeleteMedia removes the record for filename.
func (s *Store) DeleteMedia(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE filename = ?`, filename)
	return err
}
