package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Checkout CheckoutConfig
	Webhook  WebhookConfig
	CORS     CORSConfig
	Features FeatureFlagsConfig
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
	Env          string `envconfig:"APOIADEV_APP_ENV" required:"true"`
	Port         string `envconfig:"APOIADEV_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"APOIADEV_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"APOIADEV_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"APOIADEV_DB_DSN"`
	Driver string `envconfig:"APOIADEV_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"APOIADEV_DB_HOST"`
	LegacyPort     int    `envconfig:"APOIADEV_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"APOIADEV_DB_USER"`
	LegacyPassword string `envconfig:"APOIADEV_DB_PASSWORD"`
	LegacyName     string `envconfig:"APOIADEV_DB_NAME"`
	LegacySSLMode  string `envconfig:"APOIADEV_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"APOIADEV_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"APOIADEV_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"APOIADEV_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"APOIADEV_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"APOIADEV_REDIS_URL" required:"true"`
	Address      string        `envconfig:"APOIADEV_REDIS_ADDR"`
	Password     string        `envconfig:"APOIADEV_REDIS_PASSWORD"`
	DB           int           `envconfig:"APOIADEV_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"APOIADEV_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"APOIADEV_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"APOIADEV_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"APOIADEV_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"APOIADEV_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey         string        `envconfig:"APOIADEV_STRIPE_API_KEY"`
	Secret         string        `envconfig:"APOIADEV_STRIPE_WEBHOOK_SECRET"`
	Env            string        `envconfig:"APOIADEV_STRIPE_ENV" default:"test"`
	SessionTimeout time.Duration `envconfig:"APOIADEV_STRIPE_SESSION_TIMEOUT" default:"10s"`
	BalanceTimeout time.Duration `envconfig:"APOIADEV_STRIPE_BALANCE_TIMEOUT" default:"5s"`
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
	SuccessURL            string `envconfig:"APOIADEV_CHECKOUT_SUCCESS_URL" required:"true"`
	CancelURL             string `envconfig:"APOIADEV_CHECKOUT_CANCEL_URL" required:"true"`
	ApplicationFeePercent int64  `envconfig:"APOIADEV_CHECKOUT_APP_FEE_PERCENT" default:"10"`
}

type WebhookConfig struct {
	IdempotencyTTL       time.Duration `envconfig:"APOIADEV_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
	LookupRetryBase      time.Duration `envconfig:"APOIADEV_WEBHOOK_LOOKUP_RETRY_BASE" default:"100ms"`
	LookupRetryAttempts  uint64        `envconfig:"APOIADEV_WEBHOOK_LOOKUP_RETRY_ATTEMPTS" default:"5"`
	LookupRetryMaxDelay  time.Duration `envconfig:"APOIADEV_WEBHOOK_LOOKUP_RETRY_MAX_DELAY" default:"2s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"APOIADEV_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"APOIADEV_AUTO_MIGRATE" default:"false"`
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
