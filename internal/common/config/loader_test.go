package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
app:
  id: campus-portal
backend:
  auth_url: https://auth.example.com
  tenant: admissions
  api_key: key
  api_secret: secret
storage:
  driver: elasticsearch
database:
  elasticsearch:
    addresses:
      - http://localhost:9200
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "campus-portal", cfg.App.ID)
	assert.Equal(t, "https://auth.example.com", cfg.Backend.AuthURL)
	assert.False(t, cfg.Backend.IsEmpty())

	// Defaults
	assert.Equal(t, "admissions-intake", cfg.App.Name)
	assert.Equal(t, 30, cfg.Auth.RefreshMarginSeconds)
	assert.Equal(t, 3600, cfg.Database.Redis.StatusTTLSeconds)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFileEmptyBackendBundleIsValid(t *testing.T) {
	// A missing credential bundle is a session-level condition, not a
	// configuration load failure.
	path := writeConfigFile(t, `
app:
  id: campus-portal
storage:
  driver: elasticsearch
database:
  elasticsearch:
    addresses:
      - http://localhost:9200
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.True(t, cfg.Backend.IsEmpty())
}

func TestLoadFromFileRequiresAppID(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  driver: elasticsearch
database:
  elasticsearch:
    addresses:
      - http://localhost:9200
`)

	_, err := LoadFromFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.id")
}

func TestLoadFromFileRejectsUnknownDriver(t *testing.T) {
	path := writeConfigFile(t, `
app:
  id: campus-portal
storage:
  driver: mongodb
`)

	_, err := LoadFromFile(path)

	require.Error(t, err)
}

func TestLoadFromFilePostgresDriverRequiresDBConfig(t *testing.T) {
	path := writeConfigFile(t, `
app:
  id: campus-portal
storage:
  driver: postgres
database:
  postgres:
    host: localhost
`)

	_, err := LoadFromFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestLoadFromFileExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_INTAKE_API_KEY", "expanded-key")

	path := writeConfigFile(t, `
app:
  id: campus-portal
backend:
  auth_url: https://auth.example.com
  tenant: admissions
  api_key: ${TEST_INTAKE_API_KEY}
  api_secret: secret
storage:
  driver: elasticsearch
database:
  elasticsearch:
    addresses:
      - http://localhost:9200
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "expanded-key", cfg.Backend.APIKey)
}

func TestGetDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5432, Database: "admissions",
		User: "intake", Password: "pw", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=intake password=pw dbname=admissions sslmode=disable",
		p.GetDSN())
}
