package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/vendsite/content"
)

// space answers every delivery API query with the entries of the
// requested content type.
func space(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	entries := map[string]string{
		content.TypeProduct:  `{"sys": {"id": "p1", "type": "Entry"}, "fields": {"title": "Snack Tower"}}`,
		content.TypeBlogPost: `{"sys": {"id": "b1", "type": "Entry"}, "fields": {"title": "Hello", "slug": "hello", "publishedDate": "2024-01-01"}}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var items []string
		if e, ok := entries[r.URL.Query().Get("content_type")]; ok {
			items = append(items, e)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"sys": {"type": "Array"}, "total": %d, "skip": 0, "limit": 100, "items": [%s]}`,
			len(items), strings.Join(items, ","))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func cmsOnlyConfig(t *testing.T, baseURL string) (cfgPath, dbPath string) {
	t.Helper()
	for _, k := range []string{
		"ADMIN_PASSWORD", "ADMIN_SESSION_SECRET", "DATABASE_PATH",
		"CONTENTFUL_SPACE_ID", "CONTENTFUL_ACCESS_TOKEN", "CONTENTFUL_PREVIEW_TOKEN",
		"LEGACY_DATABASE_URL", "REDIS_ADDR", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))

	dbPath = filepath.Join(dir, "site.db")
	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
database_path: %s
log:
  level: error
contentful:
  space_id: space1
  access_token: token1
  base_url: %s
`, dbPath, baseURL)), 0o644))
	return cfgPath, dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExportFromCMSWithoutAdminSettings(t *testing.T) {
	var hits atomic.Int64
	srv := space(t, &hits)
	cfgPath, dbPath := cmsOnlyConfig(t, srv.URL)

	out, err := run(t, "--config", cfgPath, "export", "--source", "cms")
	require.NoError(t, err)

	var bundle content.Bundle
	require.NoError(t, json.Unmarshal([]byte(out), &bundle))
	require.Len(t, bundle.Products, 1)
	assert.Equal(t, "snack-tower", bundle.Products[0].Slug)
	require.Len(t, bundle.BlogPosts, 1)
	assert.Empty(t, bundle.Machines)
	assert.Equal(t, content.SourceCMS, bundle.Sources[content.TypeProduct])
	assert.Positive(t, hits.Load())

	assert.NoFileExists(t, dbPath, "export does not need the app database")
}

func TestExportWritesToFile(t *testing.T) {
	var hits atomic.Int64
	srv := space(t, &hits)
	cfgPath, _ := cmsOnlyConfig(t, srv.URL)
	outPath := filepath.Join(t.TempDir(), "bundle.json")

	out, err := run(t, "--config", cfgPath, "export", "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var bundle content.Bundle
	require.NoError(t, json.Unmarshal(data, &bundle))
	assert.Len(t, bundle.Products, 1)
}

func TestExportRejectsUnknownSource(t *testing.T) {
	var hits atomic.Int64
	srv := space(t, &hits)
	cfgPath, _ := cmsOnlyConfig(t, srv.URL)

	_, err := run(t, "--config", cfgPath, "export", "--source", "ftp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source "ftp"`)
	assert.Zero(t, hits.Load())
}

func TestExportLegacyWithoutDatabaseFails(t *testing.T) {
	var hits atomic.Int64
	srv := space(t, &hits)
	cfgPath, _ := cmsOnlyConfig(t, srv.URL)

	_, err := run(t, "--config", cfgPath, "export", "--source", "legacy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legacy database is required")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "vendsite dev\n", out)
}
