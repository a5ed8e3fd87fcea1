package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Stock        StockConfig
	Idempotency  IdempotencyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Stock.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FLEETMAINT_APP_ENV" required:"true"`
	Port         string `envconfig:"FLEETMAINT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLEETMAINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLEETMAINT_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"FLEETMAINT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FLEETMAINT_DB_DSN"`
	Driver string `envconfig:"FLEETMAINT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLEETMAINT_DB_HOST"`
	LegacyPort     int    `envconfig:"FLEETMAINT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLEETMAINT_DB_USER"`
	LegacyPassword string `envconfig:"FLEETMAINT_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLEETMAINT_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLEETMAINT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLEETMAINT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLEETMAINT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLEETMAINT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLEETMAINT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLEETMAINT_REDIS_URL"`
	Address      string        `envconfig:"FLEETMAINT_REDIS_ADDR"`
	Password     string        `envconfig:"FLEETMAINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLEETMAINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLEETMAINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLEETMAINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLEETMAINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLEETMAINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLEETMAINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"FLEETMAINT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FLEETMAINT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FLEETMAINT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FLEETMAINT_AUTO_MIGRATE" default:"false"`
}

// StockConfig tunes the optimistic read-modify-write loop on stock aggregates.
type StockConfig struct {
	MaxRetries   int           `envconfig:"FLEETMAINT_STOCK_MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `envconfig:"FLEETMAINT_STOCK_RETRY_BACKOFF" default:"15ms"`
}

func (s StockConfig) validate() error {
	if s.MaxRetries < 1 {
		return fmt.Errorf("%s must be at least 1", EnvStockMaxRetries)
	}
	if s.RetryBackoff <= 0 {
		return fmt.Errorf("%s must be positive", EnvStockRetryBackoff)
	}
	return nil
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"FLEETMAINT_IDEMPOTENCY_TTL" default:"24h"`
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
