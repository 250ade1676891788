package config_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fours/payroll-engine/config"
)

// isolate runs the test in an empty directory with no configuration in the
// environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range []string{"PAYROLL_CONFIG", "APP_PORT", "APP_ENV", "LOG_LEVEL", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "payroll.db", cfg.Database.Path)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	// GIVEN: a YAML file and one env override
	dir := isolate(t)
	path := filepath.Join(dir, "payroll.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 9090
  env: staging
  log_level: debug
database:
  driver: postgres
  url: postgres://payroll@localhost/payroll
cors:
  allowed_origins: ["https://hr.example.com"]
`), 0o600))
	t.Setenv("PAYROLL_CONFIG", path)
	t.Setenv("APP_PORT", "7070")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	// WHEN
	cfg, err := config.Load()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://payroll@localhost/payroll", cfg.Database.URL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH=from-dotenv.db\n"), 0o600))
	os.Unsetenv("DB_PATH")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.Database.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"APP_PORT": "eighty"}},
		{"port out of range", map[string]string{"APP_PORT": "70000"}},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger_TagsRecords(t *testing.T) {
	// GIVEN
	cfg := &config.Config{App: config.AppConfig{Env: "test", LogLevel: "warn"}}
	var buf bytes.Buffer

	// WHEN
	logger := config.NewLogger(cfg, &buf)
	logger.Info("dropped")
	logger.Warn("kept", slog.String("employee", "EMP-1"))

	// THEN: only the warning is written, with the process tags
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, config.AppName, record["app"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "EMP-1", record["employee"])
}
