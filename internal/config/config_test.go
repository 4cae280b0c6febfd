package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  http_addr: ":8080"
security:
  jwt_secret: s3cret
http:
  read_timeout: 3s
postgres:
  max_conns: 4
`

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestLoad_BaseAndDefaults(t *testing.T) {
	dir := writeConfig(t, map[string]string{"base.yaml": baseYAML})

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "storefront", cfg.App.Name)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, time.Hour, cfg.Security.TTL)
	assert.EqualValues(t, 4, cfg.Postgres.MaxConns)
}

func TestLoad_EnvFileAndVariables(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		"base.yaml": baseYAML,
		"dev.yaml":  "app:\n  log_level: debug\n",
	})
	t.Setenv("STOREFRONT_STORAGE__DRIVER", "postgres")
	t.Setenv("STOREFRONT_POSTGRES__DSN", "postgres://localhost/shop")
	t.Setenv("STOREFRONT_POSTGRES__MAX_CONNS", "20")

	cfg, err := Load(dir, "dev")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/shop", cfg.Postgres.DSN)
	assert.EqualValues(t, 20, cfg.Postgres.MaxConns)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	dir := writeConfig(t, map[string]string{"base.yaml": baseYAML})
	_, err := Load(dir, "prod")
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(t.TempDir(), "")
	assert.Error(t, err, "missing base.yaml")

	dir := writeConfig(t, map[string]string{"base.yaml": "app:\n  http_addr: \":1\"\n"})
	_, err = Load(dir, "")
	assert.ErrorContains(t, err, "jwt_secret")

	dir = writeConfig(t, map[string]string{"base.yaml": baseYAML + "storage:\n  driver: postgres\n"})
	_, err = Load(dir, "")
	assert.ErrorContains(t, err, "postgres.dsn")

	dir = writeConfig(t, map[string]string{"base.yaml": baseYAML + "storage:\n  driver: sqlite\n"})
	_, err = Load(dir, "")
	assert.ErrorContains(t, err, "unknown storage.driver")
}
