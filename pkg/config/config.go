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
	Inventory    InventoryConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"ESTATEERP_APP_ENV" required:"true"`
	Port         string `envconfig:"ESTATEERP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ESTATEERP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ESTATEERP_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"ESTATEERP_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"ESTATEERP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ESTATEERP_DB_DSN"`
	Driver string `envconfig:"ESTATEERP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ESTATEERP_DB_HOST"`
	LegacyPort     int    `envconfig:"ESTATEERP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ESTATEERP_DB_USER"`
	LegacyPassword string `envconfig:"ESTATEERP_DB_PASSWORD"`
	LegacyName     string `envconfig:"ESTATEERP_DB_NAME"`
	LegacySSLMode  string `envconfig:"ESTATEERP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ESTATEERP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ESTATEERP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ESTATEERP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ESTATEERP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ESTATEERP_REDIS_URL"`
	Address      string        `envconfig:"ESTATEERP_REDIS_ADDR"`
	Password     string        `envconfig:"ESTATEERP_REDIS_PASSWORD"`
	DB           int           `envconfig:"ESTATEERP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ESTATEERP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ESTATEERP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ESTATEERP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ESTATEERP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ESTATEERP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret string `envconfig:"ESTATEERP_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"ESTATEERP_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"ESTATEERP_AUTO_MIGRATE" default:"false"`
	UseRedisLocks bool `envconfig:"ESTATEERP_USE_REDIS_LOCKS" default:"true"`
	RequireAuth   bool `envconfig:"ESTATEERP_REQUIRE_AUTH" default:"true"`
}

type InventoryConfig struct {
	LockTTL           time.Duration `envconfig:"ESTATEERP_INVENTORY_LOCK_TTL" default:"30s"`
	LockWait          time.Duration `envconfig:"ESTATEERP_INVENTORY_LOCK_WAIT" default:"5s"`
	LowStockThreshold string        `envconfig:"ESTATEERP_INVENTORY_LOW_STOCK_THRESHOLD" default:"10"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ESTATEERP_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"ESTATEERP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"ESTATEERP_PUBSUB_DOMAIN_TOPIC" default:"erp-domain-events"`
	DomainSubscription string `envconfig:"ESTATEERP_PUBSUB_DOMAIN_SUBSCRIPTION"`
	InventoryTopic     string `envconfig:"ESTATEERP_PUBSUB_INVENTORY_TOPIC" default:"erp-inventory-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ESTATEERP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ESTATEERP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ESTATEERP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"ESTATEERP_CRON_INTERVAL" default:"24h"`
	OutboxRetentionDays int           `envconfig:"ESTATEERP_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	ReconcilePageSize   int           `envconfig:"ESTATEERP_CRON_RECONCILE_PAGE_SIZE" default:"200"`
}

type RateLimitConfig struct {
	Window         time.Duration `envconfig:"ESTATEERP_RATE_LIMIT_WINDOW" default:"1m"`
	PerIP          int           `envconfig:"ESTATEERP_RATE_LIMIT_PER_IP" default:"600"`
	WritesPerActor int           `envconfig:"ESTATEERP_RATE_LIMIT_WRITES_PER_ACTOR" default:"120"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:estateerp.db?cache=shared"
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
