package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the course catalog service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverDynamo = "dynamo"
	DriverMemory = "memory"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, dynamo, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Region           string   `yaml:"region"`
	Table            string   `yaml:"table"`
	Endpoint         string   `yaml:"endpoint"`
	ScanSegments     int      `yaml:"scan_segments"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HealthTimeoutMs  int      `yaml:"health_timeout_ms"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// CatalogConfig tunes course writes.
type CatalogConfig struct {
	CreateMode     string `yaml:"create_mode"` // reject (default) | upsert
	MaxAttempts    int    `yaml:"max_attempts"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms"`
}

// SearchConfig selects and tunes the ranking strategy.
type SearchConfig struct {
	Strategy          string        `yaml:"strategy"`   // tiered (default) | scored
	Similarity        string        `yaml:"similarity"` // tokens (default) | runes
	Threshold         *float64      `yaml:"threshold"`
	Weights           WeightsConfig `yaml:"weights"`
	CorpusCacheTTLSec int           `yaml:"corpus_cache_ttl_sec"` // 0 disables the cache
}

// WeightsConfig overrides the scored strategy weights. All zero means defaults.
type WeightsConfig struct {
	Title       float64 `yaml:"title"`
	Description float64 `yaml:"description"`
	Alias       float64 `yaml:"alias"`
	Review      float64 `yaml:"review"`
	Professor   float64 `yaml:"professor"`
	Major       float64 `yaml:"major"`
}

// IsZero reports whether no weight was configured.
func (w WeightsConfig) IsZero() bool {
	return w == WeightsConfig{}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod, lambda).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.HealthTimeoutMs <= 0 {
		c.Database.HealthTimeoutMs = 2000
	}
	if c.Database.ScanSegments <= 0 {
		c.Database.ScanSegments = 1
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "{courses}:"
	}
	if c.Catalog.CreateMode == "" {
		c.Catalog.CreateMode = "reject"
	}
	if c.Catalog.MaxAttempts <= 0 {
		c.Catalog.MaxAttempts = 5
	}
	if c.Catalog.RetryBackoffMs < 0 {
		c.Catalog.RetryBackoffMs = 0
	}
	if c.Search.Strategy == "" {
		c.Search.Strategy = "tiered"
	}
	if c.Search.Similarity == "" {
		c.Search.Similarity = "tokens"
	}
	if c.Search.Threshold == nil {
		t := 0.25
		c.Search.Threshold = &t
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverDynamo:
		if c.Database.Table == "" {
			return fmt.Errorf("database.table is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, dynamo, memory, got %q", c.Database.Driver)
	}
	switch c.Catalog.CreateMode {
	case "reject", "upsert":
	default:
		return fmt.Errorf("catalog.create_mode must be \"reject\" or \"upsert\", got %q", c.Catalog.CreateMode)
	}
	switch c.Search.Strategy {
	case "tiered", "scored":
	default:
		return fmt.Errorf("search.strategy must be \"tiered\" or \"scored\", got %q", c.Search.Strategy)
	}
	switch c.Search.Similarity {
	case "tokens", "runes":
	default:
		return fmt.Errorf("search.similarity must be \"tokens\" or \"runes\", got %q", c.Search.Similarity)
	}
	if t := c.Search.Threshold; t != nil && (*t < 0 || *t >= 1) {
		return fmt.Errorf("search.threshold must be in [0, 1), got %v", *t)
	}
	if c.Search.CorpusCacheTTLSec < 0 {
		return fmt.Errorf("search.corpus_cache_ttl_sec must not be negative, got %d", c.Search.CorpusCacheTTLSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
