package vendsite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SITE_NAME", "SITE_URL", "ADMIN_PASSWORD", "ADMIN_SESSION_SECRET",
		"CONTENTFUL_SPACE_ID", "CONTENTFUL_ACCESS_TOKEN", "LEGACY_DATABASE_URL",
		"CACHE_FRESH_FOR", "COOKIE_SECURE",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Snack Co
admin_password: from-file
contentful:
  space_id: space1
  access_token: token1
cache:
  fresh_for: 30s
`), 0o644))
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("ADMIN_SESSION_SECRET", "secret")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Snack Co", cfg.Name)
	assert.Equal(t, "from-env", cfg.AdminPassword)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 30*time.Second, cfg.Cache.FreshFor)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "site.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SITE_NAME=From Env File\n"), 0o644))
	t.Setenv("ENV_FILE", envFile)
	// godotenv does not override variables that are already set.
	os.Unsetenv("SITE_NAME")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "From Env File", cfg.Name)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin password is required")
	assert.Contains(t, err.Error(), "session secret is required")
	assert.Contains(t, err.Error(), "legacy database is required")

	cfg = Config{AdminPassword: "p", SessionSecret: "s"}
	cfg.Contentful.SpaceID = "space1"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token is required")

	cfg.Contentful.SpaceID = ""
	cfg.Legacy.DSN = "postgres://localhost/vending"
	assert.NoError(t, cfg.Validate())
}

func TestValidateSourcesMatchesPreviewMode(t *testing.T) {
	var cfg Config
	cfg.Contentful.SpaceID = "space1"
	cfg.Contentful.PreviewToken = "preview"
	err := cfg.ValidateSources()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token is required")

	cfg.Contentful.Preview = true
	assert.NoError(t, cfg.ValidateSources())

	cfg.Contentful.PreviewToken = ""
	cfg.Contentful.AccessToken = "delivery"
	err = cfg.ValidateSources()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preview token is required")
}

func TestValidateSourcesSkipsAdminSettings(t *testing.T) {
	var cfg Config
	cfg.Contentful.SpaceID = "space1"
	cfg.Contentful.AccessToken = "delivery"
	assert.NoError(t, cfg.ValidateSources())
	assert.Error(t, cfg.Validate())
}
