package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "expensio"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "EXPENSIO_DB_DSN"
	EnvDBHost = "EXPENSIO_DB_HOST"
	EnvDBUser = "EXPENSIO_DB_USER"
	EnvDBName = "EXPENSIO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	Rates        RatesConfig
	Identity     IdentityConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EXPENSIO_APP_ENV" default:"development"`
	Port         string `envconfig:"EXPENSIO_APP_PORT" default:"5001"`
	LogLevel     string `envconfig:"EXPENSIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EXPENSIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EXPENSIO_DB_DSN"`
	Driver string `envconfig:"EXPENSIO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EXPENSIO_DB_HOST"`
	LegacyPort     int    `envconfig:"EXPENSIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EXPENSIO_DB_USER"`
	LegacyPassword string `envconfig:"EXPENSIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"EXPENSIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"EXPENSIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EXPENSIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EXPENSIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EXPENSIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EXPENSIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional: development deployments may run without the
// rate-limit store entirely.
type RedisConfig struct {
	URL          string        `envconfig:"EXPENSIO_REDIS_URL"`
	Address      string        `envconfig:"EXPENSIO_REDIS_ADDR"`
	Password     string        `envconfig:"EXPENSIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"EXPENSIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EXPENSIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EXPENSIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EXPENSIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EXPENSIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EXPENSIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a Redis endpoint was supplied at all.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type RateLimitConfig struct {
	Window            time.Duration `envconfig:"EXPENSIO_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit           int           `envconfig:"EXPENSIO_RATE_LIMIT_IP_LIMIT" default:"100"`
	RetryAfterDefault time.Duration `envconfig:"EXPENSIO_RATE_LIMIT_RETRY_AFTER_DEFAULT" default:"10s"`
}

type RatesConfig struct {
	APIKey          string        `envconfig:"EXPENSIO_RATES_API_KEY"`
	ProviderTimeout time.Duration `envconfig:"EXPENSIO_RATES_PROVIDER_TIMEOUT" default:"5s"`
}

// IdentityConfig points at the external identity provider used for
// best-effort profile syncs. The API never validates credentials itself.
type IdentityConfig struct {
	APIKey  string `envconfig:"EXPENSIO_IDENTITY_API_KEY"`
	BaseURL string `envconfig:"EXPENSIO_IDENTITY_BASE_URL" default:"https://api.clerk.com/v1"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EXPENSIO_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
