package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.False(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "productos.json", cfg.Store.Path)
	assert.Equal(t, "products", cfg.Store.Name)
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Admin.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Admin.TokenTTL)
}

func TestLoad_MissingFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, "nope.env"))
	require.NoError(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	yamlFile := writeFile(t, "config.yaml", `
http:
  port: 9000
log:
  level: debug
store:
  backend: sqlite
  path: data/catalog.db
`)
	envFile := writeFile(t, ".env", "CATALOG_HTTP_PORT=9100\nCATALOG_STORE_NAME=items\nOTHER_VAR=ignored\n")
	t.Setenv("CATALOG_HTTP_PORT", "9200")
	t.Setenv("CATALOG_HTTP_SHUTDOWNTIMEOUT", "3s")
	t.Setenv("CATALOG_HTTP_TRUSTPROXY", "true")

	cfg, err := Load(yamlFile, envFile)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.True(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "data/catalog.db", cfg.Store.Path)
	assert.Equal(t, "items", cfg.Store.Name)
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":          {"CATALOG_HTTP_PORT": "70000"},
		"bad level":         {"CATALOG_LOG_LEVEL": "loud"},
		"unknown backend":   {"CATALOG_STORE_BACKEND": "mongo"},
		"postgres no dsn":   {"CATALOG_STORE_BACKEND": "postgres"},
		"redis no addr":     {"CATALOG_STORE_BACKEND": "redis"},
		"metrics no token":  {"CATALOG_METRICS_ENABLED": "true"},
		"admin no secret":   {"CATALOG_ADMIN_ENABLED": "true", "CATALOG_ADMIN_PASSWORDHASH": "x"},
		"admin no password": {"CATALOG_ADMIN_ENABLED": "true", "CATALOG_ADMIN_JWTSECRET": "s"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("", "")
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestLoad_PostgresBackend(t *testing.T) {
	t.Setenv("CATALOG_STORE_BACKEND", "postgres")
	t.Setenv("CATALOG_STORE_DSN", "postgres://user:secret@db:5432/catalog")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://user:secret@db:5432/catalog", cfg.Store.DSN)
	assert.NotContains(t, cfg.String(), "secret")
	assert.Contains(t, cfg.String(), "****@db:5432/catalog")
}

func TestKeyTransformer(t *testing.T) {
	assert.Equal(t, "store.backend", keyTransformer("CATALOG_STORE_BACKEND"))
	assert.Equal(t, "admin.jwtsecret", keyTransformer("CATALOG_ADMIN_JWTSECRET"))
}
