package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8081" {
		t.Fatalf("unexpected port %q", cfg.App.Port)
	}
	if cfg.App.APIVersion != DefaultAPIVersion {
		t.Fatalf("expected default api version %q, got %q", DefaultAPIVersion, cfg.App.APIVersion)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without url or address")
	}
	if got := cfg.Throttle.DefaultWindow; got != time.Minute {
		t.Fatalf("expected throttle window 1m, got %v", got)
	}
}

func TestLoad_APIVersionOverride(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAPIVersion, "2.3")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvThrottleIPLimit, "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.App.APIVersion != "2.3" {
		t.Fatalf("expected api version 2.3, got %q", cfg.App.APIVersion)
	}
	if !cfg.Redis.Enabled() || cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if cfg.Throttle.DefaultIPLimit != 7 {
		t.Fatalf("expected ip limit 7, got %d", cfg.Throttle.DefaultIPLimit)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsConflictingRedisSettings(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvThrottleWindow, "-1s")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_ProdRequiresMetricsToken(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAppEnv, AppEnvProd)

	if _, err := Load(); err == nil {
		t.Fatal("expected prod without metrics token to fail")
	}

	t.Setenv(EnvMetricsToken, "scrape-me")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Ops.MetricsToken != "scrape-me" {
		t.Fatalf("unexpected metrics token %q", cfg.Ops.MetricsToken)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	for _, key := range []string{EnvAPIVersion, EnvRedisURL, EnvRedisAddr, EnvThrottleWindow, EnvThrottleIPLimit, EnvMetricsToken} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
