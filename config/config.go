package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Adapters  AdaptersConfig
	Resolver  ResolverConfig
	Discovery DiscoveryConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AdaptersConfig holds the external nutrition provider endpoints.
type AdaptersConfig struct {
	FDCAPIKey          string        `mapstructure:"fdc_api_key"`
	FDCBaseURL         string        `mapstructure:"fdc_base_url"`
	OpenFoodFactsURL   string        `mapstructure:"openfoodfacts_url"`
	AIEstimatorURL     string        `mapstructure:"ai_estimator_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	EnableDebugLogging bool          `mapstructure:"debug"`
}

// ResolverConfig tunes the resolution pipeline.
type ResolverConfig struct {
	AcceptanceThreshold float64       `mapstructure:"acceptance_threshold"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

// DiscoveryConfig tunes the background discovery queue.
type DiscoveryConfig struct {
	StoreType    string        `mapstructure:"store_type"` // "memory" or "sqlite"
	SQLitePath   string        `mapstructure:"sqlite_path"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	Workers      int           `mapstructure:"workers"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nutriscope/")

	v.SetEnvPrefix("NUTRISCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Adapter defaults. The empty api key default keeps the key visible to
	// Unmarshal when it is only supplied via the environment.
	v.SetDefault("adapters.fdc_api_key", "")
	v.SetDefault("adapters.fdc_base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("adapters.openfoodfacts_url", "https://world.openfoodfacts.org")
	v.SetDefault("adapters.ai_estimator_url", "")
	v.SetDefault("adapters.timeout", "5s")
	v.SetDefault("adapters.debug", false)

	// Resolver defaults
	v.SetDefault("resolver.acceptance_threshold", 0.3)
	v.SetDefault("resolver.cache_ttl", "720h") // 30 days

	// Discovery defaults
	v.SetDefault("discovery.store_type", "memory")
	v.SetDefault("discovery.sqlite_path", "discovery.db")
	v.SetDefault("discovery.poll_interval", "30s")
	v.SetDefault("discovery.max_attempts", 3)
	v.SetDefault("discovery.workers", 1)
}

// validate validates the configuration.
func validate(config *Config) error {
	if config.Adapters.FDCAPIKey == "" {
		return fmt.Errorf("FoodData Central API key is required (set NUTRISCOPE_ADAPTERS_FDC_API_KEY)")
	}

	if config.Discovery.StoreType != "memory" && config.Discovery.StoreType != "sqlite" {
		return fmt.Errorf("discovery store type must be 'memory' or 'sqlite', got: %s", config.Discovery.StoreType)
	}

	if config.Discovery.StoreType == "sqlite" && config.Discovery.SQLitePath == "" {
		return fmt.Errorf("SQLite path is required when discovery store type is 'sqlite'")
	}

	if config.Resolver.AcceptanceThreshold < 0 || config.Resolver.AcceptanceThreshold > 1 {
		return fmt.Errorf("acceptance threshold must be in [0,1], got: %v", config.Resolver.AcceptanceThreshold)
	}

	return nil
}
