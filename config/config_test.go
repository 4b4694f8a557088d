package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when only the api key is set", func(t *testing.T) {
		t.Setenv("NUTRISCOPE_ADAPTERS_FDC_API_KEY", "test-key")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Adapters.FDCBaseURL != "https://api.nal.usda.gov/fdc" {
			t.Errorf("Adapters.FDCBaseURL = %s, want the FDC default", cfg.Adapters.FDCBaseURL)
		}
		if cfg.Adapters.OpenFoodFactsURL != "https://world.openfoodfacts.org" {
			t.Errorf("Adapters.OpenFoodFactsURL = %s, want the OFF default", cfg.Adapters.OpenFoodFactsURL)
		}
		if cfg.Adapters.Timeout != 5*time.Second {
			t.Errorf("Adapters.Timeout = %v, want 5s", cfg.Adapters.Timeout)
		}
		if cfg.Resolver.AcceptanceThreshold != 0.3 {
			t.Errorf("Resolver.AcceptanceThreshold = %v, want 0.3", cfg.Resolver.AcceptanceThreshold)
		}
		if cfg.Resolver.CacheTTL != 720*time.Hour {
			t.Errorf("Resolver.CacheTTL = %v, want 720h", cfg.Resolver.CacheTTL)
		}
		if cfg.Discovery.StoreType != "memory" {
			t.Errorf("Discovery.StoreType = %s, want memory", cfg.Discovery.StoreType)
		}
		if cfg.Discovery.PollInterval != 30*time.Second {
			t.Errorf("Discovery.PollInterval = %v, want 30s", cfg.Discovery.PollInterval)
		}
		if cfg.Discovery.MaxAttempts != 3 {
			t.Errorf("Discovery.MaxAttempts = %d, want 3", cfg.Discovery.MaxAttempts)
		}
		if cfg.Discovery.Workers != 1 {
			t.Errorf("Discovery.Workers = %d, want 1", cfg.Discovery.Workers)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("NUTRISCOPE_ADAPTERS_FDC_API_KEY", "custom-api-key")
		t.Setenv("NUTRISCOPE_SERVER_PORT", "9090")
		t.Setenv("NUTRISCOPE_SERVER_ENVIRONMENT", "production")
		t.Setenv("NUTRISCOPE_ADAPTERS_TIMEOUT", "10s")
		t.Setenv("NUTRISCOPE_RESOLVER_ACCEPTANCE_THRESHOLD", "0.5")
		t.Setenv("NUTRISCOPE_DISCOVERY_STORE_TYPE", "sqlite")
		t.Setenv("NUTRISCOPE_DISCOVERY_SQLITE_PATH", "/tmp/discovery.db")
		t.Setenv("NUTRISCOPE_DISCOVERY_WORKERS", "4")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Adapters.FDCAPIKey != "custom-api-key" {
			t.Errorf("Adapters.FDCAPIKey = %s, want custom-api-key", cfg.Adapters.FDCAPIKey)
		}
		if cfg.Adapters.Timeout != 10*time.Second {
			t.Errorf("Adapters.Timeout = %v, want 10s", cfg.Adapters.Timeout)
		}
		if cfg.Resolver.AcceptanceThreshold != 0.5 {
			t.Errorf("Resolver.AcceptanceThreshold = %v, want 0.5", cfg.Resolver.AcceptanceThreshold)
		}
		if cfg.Discovery.StoreType != "sqlite" {
			t.Errorf("Discovery.StoreType = %s, want sqlite", cfg.Discovery.StoreType)
		}
		if cfg.Discovery.Workers != 4 {
			t.Errorf("Discovery.Workers = %d, want 4", cfg.Discovery.Workers)
		}
	})

	t.Run("fails without the api key", func(t *testing.T) {
		t.Setenv("NUTRISCOPE_ADAPTERS_FDC_API_KEY", "")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want missing-api-key error")
		}
	})

	t.Run("rejects an unknown discovery store type", func(t *testing.T) {
		t.Setenv("NUTRISCOPE_ADAPTERS_FDC_API_KEY", "test-key")
		t.Setenv("NUTRISCOPE_DISCOVERY_STORE_TYPE", "redis")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want store-type error")
		}
	})

	t.Run("rejects an out-of-range acceptance threshold", func(t *testing.T) {
		t.Setenv("NUTRISCOPE_ADAPTERS_FDC_API_KEY", "test-key")
		t.Setenv("NUTRISCOPE_RESOLVER_ACCEPTANCE_THRESHOLD", "1.5")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want threshold error")
		}
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Adapters:  AdaptersConfig{FDCAPIKey: "key"},
			Resolver:  ResolverConfig{AcceptanceThreshold: 0.3},
			Discovery: DiscoveryConfig{StoreType: "memory"},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		if err := validate(base()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("sqlite store requires a path", func(t *testing.T) {
		cfg := base()
		cfg.Discovery.StoreType = "sqlite"
		cfg.Discovery.SQLitePath = ""
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want sqlite-path error")
		}
	})
}
