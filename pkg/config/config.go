package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SKYBAZAAR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SKYBAZAAR_DB_DSN"
	EnvDBHost = "SKYBAZAAR_DB_HOST"
	EnvDBUser = "SKYBAZAAR_DB_USER"
	EnvDBName = "SKYBAZAAR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"SKYBAZAAR_APP_ENV" required:"true"`
	Port         string `envconfig:"SKYBAZAAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SKYBAZAAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SKYBAZAAR_LOG_WARN_STACK" default:"false"`

	// Extra browser origins allowed on top of the built-in storefront defaults.
	CORSOrigins []string `envconfig:"SKYBAZAAR_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SKYBAZAAR_DB_DSN"`
	Driver string `envconfig:"SKYBAZAAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SKYBAZAAR_DB_HOST"`
	LegacyPort     int    `envconfig:"SKYBAZAAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SKYBAZAAR_DB_USER"`
	LegacyPassword string `envconfig:"SKYBAZAAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"SKYBAZAAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"SKYBAZAAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SKYBAZAAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SKYBAZAAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SKYBAZAAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SKYBAZAAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SKYBAZAAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SKYBAZAAR_REDIS_ADDR"`
	Password     string        `envconfig:"SKYBAZAAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"SKYBAZAAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SKYBAZAAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SKYBAZAAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SKYBAZAAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SKYBAZAAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SKYBAZAAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SKYBAZAAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SKYBAZAAR_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SKYBAZAAR_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type StripeConfig struct {
	APIKey        string        `envconfig:"SKYBAZAAR_STRIPE_API_KEY"`
	Secret        string        `envconfig:"SKYBAZAAR_STRIPE_SECRET"`
	Env           string        `envconfig:"SKYBAZAAR_STRIPE_ENV" default:"test"`
	WebhookTTL    time.Duration `envconfig:"SKYBAZAAR_STRIPE_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
	StatementName string        `envconfig:"SKYBAZAAR_STRIPE_STATEMENT_NAME" default:"SkyBazaar order"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	FrontendURL string `envconfig:"SKYBAZAAR_CHECKOUT_FRONTEND_URL" required:"true"`
	Currency    string `envconfig:"SKYBAZAAR_CHECKOUT_CURRENCY" default:"usd"`
}

type RateLimitConfig struct {
	CheckoutWindow    time.Duration `envconfig:"SKYBAZAAR_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutUserLimit int           `envconfig:"SKYBAZAAR_RATE_LIMIT_CHECKOUT_USER" default:"10"`
	CheckoutIPLimit   int           `envconfig:"SKYBAZAAR_RATE_LIMIT_CHECKOUT_IP" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SKYBAZAAR_AUTO_MIGRATE" default:"false"`
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
