// Package config loads pipeline configuration from YAML and the environment.
//
// This package uses the following external libraries:
//   - gopkg.in/yaml.v2: configuration file format
//   - github.com/joho/godotenv: .env loading for secrets and overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/observability"
	"tdnet_xbrl/pkg/core/period"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "config/tdnet.yaml"

// Storage kinds.
const (
	StorageNone     = "none"
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Validation errors.
var (
	ErrInvalidWorkers        = errors.New("extraction.workers must be positive")
	ErrInvalidTimeout        = errors.New("extraction.document_timeout must be positive")
	ErrInvalidTargetExponent = errors.New("extraction.target_exponent must be between -12 and -1")
	ErrInvalidStandard       = errors.New("extraction.default_standard is not a known accounting standard")
	ErrInvalidMonth          = errors.New("fiscal calendar month must be 1-12")
	ErrUnknownStorage        = errors.New("unknown storage kind")
	ErrMissingStorageTarget  = errors.New("storage target not configured")
)

// Config is the full pipeline configuration.
type Config struct {
	Extraction     ExtractionConfig     `yaml:"extraction"`
	FiscalCalendar FiscalCalendarConfig `yaml:"fiscal_calendar"`
	Labels         map[string][]string  `yaml:"labels"`
	Storage        StorageConfig        `yaml:"storage"`
	Logging        LoggingConfig        `yaml:"logging"`
	API            APIConfig            `yaml:"api"`
}

// ExtractionConfig tunes the orchestrator and batch runner.
type ExtractionConfig struct {
	TargetExponent  int           `yaml:"target_exponent"`
	Workers         int           `yaml:"workers"`
	DocumentTimeout time.Duration `yaml:"document_timeout"`
	DefaultStandard string        `yaml:"default_standard"`
}

// FiscalCalendarConfig maps company codes to fiscal-year-end months.
type FiscalCalendarConfig struct {
	DefaultMonth int            `yaml:"default_month"`
	Companies    map[string]int `yaml:"companies"`
}

// StorageConfig selects and configures the record sink.
type StorageConfig struct {
	Kind          string        `yaml:"kind"`
	Dir           string        `yaml:"dir"`
	SQLitePath    string        `yaml:"sqlite_path"`
	DatabaseURL   string        `yaml:"database_url"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	RedisTTL      time.Duration `yaml:"redis_ttl"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			TargetExponent:  -8,
			Workers:         extract.DefaultWorkers,
			DocumentTimeout: extract.DefaultDocumentTimeout,
			DefaultStandard: "Japan GAAP",
		},
		FiscalCalendar: FiscalCalendarConfig{
			DefaultMonth: int(period.DefaultFiscalYearEndMonth),
		},
		Storage: StorageConfig{
			Kind:        StorageNone,
			Dir:         "data/records",
			SQLitePath:  "data/tdnet.db",
			RedisPrefix: "tdnet:",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		API:     APIConfig{Addr: ":8080", MaxBodyBytes: 32 << 20},
	}
}

// LoadEnv loads .env files into the process environment. Missing files are
// not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML file at path on top of the defaults, applies
// environment overrides and validates the result. An empty path means
// DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults without touching the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.RedisPassword = v
	}
	if v := getenv("TDNET_STORAGE"); v != "" {
		c.Storage.Kind = v
	}
	if v := getenv("TDNET_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("TDNET_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TDNET_WORKERS %q: %w", v, err)
		}
		c.Extraction.Workers = n
	}
	return nil
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Extraction.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Extraction.DocumentTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Extraction.TargetExponent < -12 || c.Extraction.TargetExponent > -1 {
		return ErrInvalidTargetExponent
	}
	if _, ok := extract.ParseStandard(c.Extraction.DefaultStandard); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStandard, c.Extraction.DefaultStandard)
	}
	if !validMonth(c.FiscalCalendar.DefaultMonth) {
		return fmt.Errorf("%w: default_month %d", ErrInvalidMonth, c.FiscalCalendar.DefaultMonth)
	}
	for code, m := range c.FiscalCalendar.Companies {
		if !validMonth(m) {
			return fmt.Errorf("%w: company %s has %d", ErrInvalidMonth, code, m)
		}
	}

	switch strings.ToLower(c.Storage.Kind) {
	case "", StorageNone:
	case StorageFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("%w: storage.dir", ErrMissingStorageTarget)
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("%w: storage.sqlite_path", ErrMissingStorageTarget)
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingStorageTarget)
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR", ErrMissingStorageTarget)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage.Kind)
	}
	return nil
}

// OverrideStorage switches the storage kind, e.g. from a command-line flag,
// and re-validates. An empty kind leaves the configuration unchanged.
func (c *Config) OverrideStorage(kind string) error {
	if kind == "" {
		return nil
	}
	c.Storage.Kind = kind
	return c.Validate()
}

func validMonth(m int) bool {
	return m >= 1 && m <= 12
}

// =============================================================================
// COMPONENT WIRING
// =============================================================================

// Calendar builds the company fiscal calendar.
func (c *Config) Calendar() *period.Calendar {
	months := make(map[string]time.Month, len(c.FiscalCalendar.Companies))
	for code, m := range c.FiscalCalendar.Companies {
		months[code] = time.Month(m)
	}
	return period.NewCalendar(time.Month(c.FiscalCalendar.DefaultMonth), months)
}

// StandardPolicy returns the default-standard policy.
func (c *Config) StandardPolicy() extract.StandardPolicy {
	s, ok := extract.ParseStandard(c.Extraction.DefaultStandard)
	if !ok {
		return extract.DefaultStandardPolicy()
	}
	return extract.StandardPolicy{Default: s}
}

// Logger builds the zerolog logger.
func (c *Config) Logger(service string) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       c.Logging.Level,
		Format:      c.Logging.Format,
		ServiceName: service,
	})
}

// OrchestratorOptions assembles extraction options.
func (c *Config) OrchestratorOptions(log *observability.Logger) extract.Options {
	return extract.Options{
		TargetExponent: c.Extraction.TargetExponent,
		StandardPolicy: c.StandardPolicy(),
		Calendar:       c.Calendar(),
		Labels:         c.Labels,
		Logger:         log,
	}
}
