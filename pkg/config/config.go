package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App      AppConfig
	Redis    RedisConfig
	Throttle ThrottleConfig
	Ops      OpsConfig
	CORS     CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// AppConfig holds process settings. APIVersion is the deployment version
// stamped on every envelope's meta.
type AppConfig struct {
	Env          string `envconfig:"CAMPUS_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CAMPUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUS_LOG_WARN_STACK" default:"false"`
	APIVersion   string `envconfig:"API_VERSION" default:"1.0"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUS_REDIS_URL"`
	Address      string        `envconfig:"CAMPUS_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// ThrottleConfig drives the fixed-window throttling decorators.
type ThrottleConfig struct {
	DefaultWindow  time.Duration `envconfig:"CAMPUS_THROTTLE_WINDOW" default:"1m"`
	DefaultIPLimit int           `envconfig:"CAMPUS_THROTTLE_IP_LIMIT" default:"120"`
	AuthWindow     time.Duration `envconfig:"CAMPUS_THROTTLE_AUTH_WINDOW" default:"5m"`
	AuthIPLimit    int           `envconfig:"CAMPUS_THROTTLE_AUTH_IP_LIMIT" default:"20"`
	AuthKeyLimit   int           `envconfig:"CAMPUS_THROTTLE_AUTH_KEY_LIMIT" default:"5"`
}

type OpsConfig struct {
	MetricsToken    string        `envconfig:"CAMPUS_METRICS_TOKEN"`
	ShutdownTimeout time.Duration `envconfig:"CAMPUS_SHUTDOWN_TIMEOUT" default:"10s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CAMPUS_CORS_ORIGINS" default:"http://localhost:3000"`
	MaxAgeSeconds  int      `envconfig:"CAMPUS_CORS_MAX_AGE" default:"300"`
}

func (c *Config) validate() error {
	var errs error
	if strings.TrimSpace(c.App.APIVersion) == "" {
		errs = multierr.Append(errs, errors.New("api version must not be blank"))
	}
	if c.Throttle.DefaultWindow < 0 || c.Throttle.AuthWindow < 0 {
		errs = multierr.Append(errs, errors.New("throttle windows must not be negative"))
	}
	if c.Throttle.DefaultIPLimit < 0 || c.Throttle.AuthIPLimit < 0 || c.Throttle.AuthKeyLimit < 0 {
		errs = multierr.Append(errs, errors.New("throttle limits must not be negative"))
	}
	if c.App.IsProd() && strings.TrimSpace(c.Ops.MetricsToken) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%s is required in %s", EnvMetricsToken, AppEnvProd))
	}
	if c.Redis.URL != "" && c.Redis.Address != "" {
		errs = multierr.Append(errs, fmt.Errorf("set only one of %s or %s", EnvRedisURL, EnvRedisAddr))
	}
	return errs
}
