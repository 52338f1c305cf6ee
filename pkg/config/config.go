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
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"DELIFAST_APP_ENV" required:"true"`
	Port         string `envconfig:"DELIFAST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DELIFAST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DELIFAST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DELIFAST_DB_DSN"`
	Driver string `envconfig:"DELIFAST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DELIFAST_DB_HOST"`
	LegacyPort     int    `envconfig:"DELIFAST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DELIFAST_DB_USER"`
	LegacyPassword string `envconfig:"DELIFAST_DB_PASSWORD"`
	LegacyName     string `envconfig:"DELIFAST_DB_NAME"`
	LegacySSLMode  string `envconfig:"DELIFAST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DELIFAST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DELIFAST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DELIFAST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DELIFAST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DELIFAST_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DELIFAST_REDIS_ADDR"`
	Password     string        `envconfig:"DELIFAST_REDIS_PASSWORD"`
	DB           int           `envconfig:"DELIFAST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DELIFAST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DELIFAST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DELIFAST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DELIFAST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DELIFAST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// OrdersConfig holds intake defaults for the delivery order domain.
type OrdersConfig struct {
	Currency         string        `envconfig:"DELIFAST_ORDERS_CURRENCY" default:"MXN"`
	IdempotencyTTL   time.Duration `envconfig:"DELIFAST_ORDERS_IDEMPOTENCY_TTL" default:"168h"`
	RateLimitWindow  time.Duration `envconfig:"DELIFAST_ORDERS_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitIPLimit int64         `envconfig:"DELIFAST_ORDERS_RATE_LIMIT_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DELIFAST_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DELIFAST_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DELIFAST_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DELIFAST_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DELIFAST_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"DELIFAST_PUBSUB_ORDERS_TOPIC" default:"delifast-order-events"`
	OrdersSubscription string `envconfig:"DELIFAST_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DELIFAST_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DELIFAST_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DELIFAST_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
