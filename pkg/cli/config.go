// Package cli provides CLI-specific logic including configuration loading.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = ".pkgrisk.yml"

// Config represents the .pkgrisk.yml configuration file.
type Config struct {
	Version   string          `yaml:"version"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Batch     BatchConfig     `yaml:"batch"`
	Cache     CacheConfig     `yaml:"cache"`
	Providers ProvidersConfig `yaml:"providers"`
	Recommend RecommendConfig `yaml:"recommend"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
}

// ScoringConfig controls weighting and the static tables.
type ScoringConfig struct {
	Weighting string `yaml:"weighting" validate:"oneof=adaptive fixed"`
	// Catalog and Licenses override the embedded tables when set.
	Catalog  string `yaml:"catalog,omitempty"`
	Licenses string `yaml:"licenses,omitempty"`
	// FailOn is the lowest risk level that makes assess exit non-zero.
	FailOn string `yaml:"fail_on" validate:"oneof=minimal low moderate high critical none"`
}

// BatchConfig controls multi-package runs.
type BatchConfig struct {
	Pause time.Duration `yaml:"pause" validate:"gte=0"`
}

// CacheConfig selects a cache backend for provider responses.
type CacheConfig struct {
	Backend       string        `yaml:"backend" validate:"oneof=none memory badger redis"`
	Path          string        `yaml:"path,omitempty"`
	RedisAddr     string        `yaml:"redis_addr,omitempty" validate:"required_if=Backend redis"`
	RedisPassword string        `yaml:"redis_password,omitempty"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	TTL           time.Duration `yaml:"ttl" validate:"gte=0"`
}

// ProvidersConfig locates package metadata.
type ProvidersConfig struct {
	// Snapshots is a YAML or JSON file of snapshots used instead of live lookups.
	Snapshots string `yaml:"snapshots,omitempty"`
	PyPIURL   string `yaml:"pypi_url" validate:"url"`
	OSVURL    string `yaml:"osv_url" validate:"url"`
	Ecosystem string `yaml:"ecosystem" validate:"required"`
	// ForgejoURL registers a Forgejo or Gitea instance as a source host.
	ForgejoURL string `yaml:"forgejo_url,omitempty" validate:"omitempty,url"`
}

// RecommendConfig bounds the alternative search.
type RecommendConfig struct {
	MaxCandidates   int `yaml:"max_candidates" validate:"gte=1"`
	MaxAlternatives int `yaml:"max_alternatives" validate:"gte=1"`
	Concurrency     int `yaml:"concurrency" validate:"gte=1,lte=64"`
}

// OutputConfig controls report output settings.
type OutputConfig struct {
	Format  string `yaml:"format" validate:"oneof=terminal json markdown md"`
	Verbose bool   `yaml:"verbose"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

var validate = validator.New()

// LoadConfig reads and parses a .pkgrisk.yml configuration file.
// If path is empty, it looks for .pkgrisk.yml in the current directory.
// If the default config file is not found, sensible defaults are returned.
// If an explicitly specified config file is not found, an error is returned.
func LoadConfig(path string) (*Config, error) {
	useDefault := path == ""
	if useDefault {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && useDefault {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("cli: reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cli: parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cli: config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults matching the documented
// .pkgrisk.yml schema.
func DefaultConfig() *Config {
	cfg := &Config{Version: "1"}
	applyDefaults(cfg)
	return cfg
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Scoring.Weighting == "" {
		cfg.Scoring.Weighting = "adaptive"
	}
	if cfg.Scoring.FailOn == "" {
		cfg.Scoring.FailOn = "high"
	}
	if cfg.Batch.Pause == 0 {
		cfg.Batch.Pause = time.Second
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 6 * time.Hour
	}
	if cfg.Providers.PyPIURL == "" {
		cfg.Providers.PyPIURL = "https://pypi.org"
	}
	if cfg.Providers.OSVURL == "" {
		cfg.Providers.OSVURL = "https://api.osv.dev"
	}
	if cfg.Providers.Ecosystem == "" {
		cfg.Providers.Ecosystem = "PyPI"
	}
	if cfg.Recommend.MaxCandidates == 0 {
		cfg.Recommend.MaxCandidates = 15
	}
	if cfg.Recommend.MaxAlternatives == 0 {
		cfg.Recommend.MaxAlternatives = 10
	}
	if cfg.Recommend.Concurrency == 0 {
		cfg.Recommend.Concurrency = 4
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "terminal"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}
