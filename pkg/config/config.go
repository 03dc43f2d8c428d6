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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Webhooks     WebhooksConfig
	Bookings     BookingsConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"STOKAGE_APP_ENV" required:"true"`
	Port         string `envconfig:"STOKAGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOKAGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOKAGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOKAGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOKAGE_DB_DSN"`
	Driver string `envconfig:"STOKAGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOKAGE_DB_HOST"`
	LegacyPort     int    `envconfig:"STOKAGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOKAGE_DB_USER"`
	LegacyPassword string `envconfig:"STOKAGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOKAGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOKAGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOKAGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOKAGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOKAGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOKAGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOKAGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOKAGE_REDIS_ADDR"`
	Password     string        `envconfig:"STOKAGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOKAGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOKAGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOKAGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOKAGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOKAGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOKAGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOKAGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOKAGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOKAGE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOKAGE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOKAGE_AUTO_MIGRATE" default:"false"`
}

type WebhooksConfig struct {
	MaxBodyBytes   int64         `envconfig:"STOKAGE_WEBHOOKS_MAX_BODY_BYTES" default:"1048576"`
	DedupTTL       time.Duration `envconfig:"STOKAGE_WEBHOOKS_DEDUP_TTL" default:"720h"`
	AllowUnsigned  bool          `envconfig:"STOKAGE_WEBHOOKS_ALLOW_UNSIGNED" default:"false"`
	RequestTimeout time.Duration `envconfig:"STOKAGE_WEBHOOKS_REQUEST_TIMEOUT" default:"10s"`
}

type BookingsConfig struct {
	NumberPrefix    string        `envconfig:"STOKAGE_BOOKING_NUMBER_PREFIX" default:"BK"`
	IdempotencyTTL  time.Duration `envconfig:"STOKAGE_BOOKING_IDEMPOTENCY_TTL" default:"24h"`
	PendingTTLHours int           `envconfig:"STOKAGE_BOOKING_PENDING_TTL_HOURS" default:"48"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOKAGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOKAGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOKAGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	BookingExpiryInterval time.Duration `envconfig:"STOKAGE_CRON_BOOKING_EXPIRY_INTERVAL" default:"15m"`
	SlotHorizonInterval   time.Duration `envconfig:"STOKAGE_CRON_SLOT_HORIZON_INTERVAL" default:"24h"`
	SlotHorizonDays       int           `envconfig:"STOKAGE_CRON_SLOT_HORIZON_DAYS" default:"30"`
	LockTTL               time.Duration `envconfig:"STOKAGE_CRON_LOCK_TTL" default:"5m"`
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
