package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tdnet_xbrl/pkg/core/extract"
)

const sampleYAML = `
extraction:
  workers: 8
  document_timeout: 45s
  default_standard: IFRS
fiscal_calendar:
  default_month: 3
  companies:
    "4612": 12
    "7203": 3
labels:
  net_sales: ["売上収益", "営業収益"]
storage:
  kind: sqlite
  sqlite_path: /tmp/tdnet.db
logging:
  level: debug
  format: json
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Extraction.Workers)
	assert.Equal(t, 45*time.Second, cfg.Extraction.DocumentTimeout)
	assert.Equal(t, -8, cfg.Extraction.TargetExponent)
	assert.Equal(t, StorageSQLite, cfg.Storage.Kind)
	assert.Equal(t, "/tmp/tdnet.db", cfg.Storage.SQLitePath)
	assert.Equal(t, ":8080", cfg.API.Addr)

	cal := cfg.Calendar()
	assert.Equal(t, time.December, cal.FiscalYearEndMonth("4612"))
	assert.Equal(t, time.March, cal.FiscalYearEndMonth("9999"))
	assert.Equal(t, extract.IFRS, cfg.StandardPolicy().Default)

	opts := cfg.OrchestratorOptions(nil)
	assert.Equal(t, []string{"売上収益", "営業収益"}, opts.Labels["net_sales"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"workers", func(c *Config) { c.Extraction.Workers = 0 }, ErrInvalidWorkers},
		{"timeout", func(c *Config) { c.Extraction.DocumentTimeout = 0 }, ErrInvalidTimeout},
		{"exponent", func(c *Config) { c.Extraction.TargetExponent = 3 }, ErrInvalidTargetExponent},
		{"standard", func(c *Config) { c.Extraction.DefaultStandard = "US GAAP" }, ErrInvalidStandard},
		{"default month", func(c *Config) { c.FiscalCalendar.DefaultMonth = 13 }, ErrInvalidMonth},
		{"company month", func(c *Config) { c.FiscalCalendar.Companies = map[string]int{"1301": 0} }, ErrInvalidMonth},
		{"storage kind", func(c *Config) { c.Storage.Kind = "mongo" }, ErrUnknownStorage},
		{"postgres url", func(c *Config) { c.Storage.Kind = StoragePostgres }, ErrMissingStorageTarget},
		{"redis addr", func(c *Config) { c.Storage.Kind = StorageRedis }, ErrMissingStorageTarget},
		{"file dir", func(c *Config) { c.Storage.Kind = StorageFile; c.Storage.Dir = "" }, ErrMissingStorageTarget},
	}

	require.NoError(t, Default().Validate())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestOverrideStorage(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.OverrideStorage(""))
	assert.Equal(t, StorageNone, cfg.Storage.Kind)

	require.NoError(t, cfg.OverrideStorage(StorageSQLite))
	assert.Equal(t, StorageSQLite, cfg.Storage.Kind)

	cfg = Default()
	cfg.Storage.SQLitePath = ""
	assert.ErrorIs(t, cfg.OverrideStorage(StorageSQLite), ErrMissingStorageTarget)
	assert.ErrorIs(t, Default().OverrideStorage("mongo"), ErrUnknownStorage)
	assert.ErrorIs(t, Default().OverrideStorage(StoragePostgres), ErrMissingStorageTarget)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StorageNone, cfg.Storage.Kind)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tdnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	t.Setenv("TDNET_WORKERS", "2")
	t.Setenv("TDNET_LOG_LEVEL", "warn")
	t.Setenv("SQLITE_PATH", "/data/override.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Extraction.Workers)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/data/override.db", cfg.Storage.SQLitePath)
}

func TestLoad_BadWorkersEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tdnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	t.Setenv("TDNET_WORKERS", "many")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TDNET_TEST_VALUE=from-dotenv\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("TDNET_TEST_VALUE") })

	require.NoError(t, LoadEnv(envPath, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("TDNET_TEST_VALUE"))
}
