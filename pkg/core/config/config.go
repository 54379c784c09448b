// Package config loads runtime settings from an optional YAML file, a .env
// file and AIRFIN_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"airline_financials/pkg/core/logging"
	"airline_financials/pkg/core/validate"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "AIRFIN"

// Config is the full runtime configuration.
type Config struct {
	Log        logging.Config      `mapstructure:"log"`
	Pipeline   PipelineConfig      `mapstructure:"pipeline"`
	Validation validate.Thresholds `mapstructure:"validation"`
	Cache      CacheConfig         `mapstructure:"cache"`
	Database   DatabaseConfig      `mapstructure:"database"`
	Concepts   ConceptsConfig      `mapstructure:"concepts"`
}

type PipelineConfig struct {
	// Workers bounds concurrently processed (company, year) units.
	Workers int    `mapstructure:"workers"`
	DataDir string `mapstructure:"data_dir"`
	// StoreDir is where the file repository writes records.
	StoreDir string `mapstructure:"store_dir"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// DatabaseConfig selects the Postgres repository when URL is set.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type ConceptsConfig struct {
	// Overrides is a YAML file of per-company tag list changes.
	Overrides string `mapstructure:"overrides"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// setDefaults registers every key, which also lets AutomaticEnv see it on
// Unmarshal.
func setDefaults(v *viper.Viper) {
	th := validate.DefaultThresholds()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_paths", []string{"stderr"})

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.data_dir", "data/filings")
	v.SetDefault("pipeline.store_dir", "data/statements")

	v.SetDefault("validation.passenger_dominant", th.PassengerDominant)
	v.SetDefault("validation.min_passenger_share", th.MinPassengerShare)
	v.SetDefault("validation.min_annual_revenue", th.MinAnnualRevenue)
	v.SetDefault("validation.revenue_sum_tolerance", th.RevenueSumTolerance)
	v.SetDefault("validation.revenue_sum_tolerance_abs", th.RevenueSumToleranceAbs)
	v.SetDefault("validation.liability_tolerance", th.LiabilityTolerance)
	v.SetDefault("validation.balance_gap_tolerance", th.BalanceGapTolerance)

	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", 30*time.Minute)

	v.SetDefault("database.url", "")
	v.SetDefault("concepts.overrides", "")
}

// Load reads configPath when it is non-empty, then layers .env and AIRFIN_*
// variables over it. A missing .env file is not an error.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Cache.Size < 1 {
		return fmt.Errorf("cache.size must be at least 1, got %d", c.Cache.Size)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Database.URL == "" && c.Pipeline.StoreDir == "" {
		return errors.New("one of database.url or pipeline.store_dir is required")
	}
	if err := c.Validation.Validate(); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	return nil
}
