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
	Comparison   ComparisonConfig
	RateLimit    RateLimitConfig
	Refresh      RefreshConfig
	Alerts       AlertsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	if err := cfg.Comparison.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"BASKETWISE_APP_ENV" required:"true"`
	Port         string   `envconfig:"BASKETWISE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"BASKETWISE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"BASKETWISE_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"BASKETWISE_LOG_FORMAT" default:"json"`
	DemoUserID   string   `envconfig:"BASKETWISE_DEMO_USER_ID" default:"demo-user"` // owner of lists/alerts when no session user is present
	CORSOrigins  []string `envconfig:"BASKETWISE_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BASKETWISE_DB_DSN"`
	Driver string `envconfig:"BASKETWISE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BASKETWISE_DB_HOST"`
	LegacyPort     int    `envconfig:"BASKETWISE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BASKETWISE_DB_USER"`
	LegacyPassword string `envconfig:"BASKETWISE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BASKETWISE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BASKETWISE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BASKETWISE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BASKETWISE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BASKETWISE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BASKETWISE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets an embedded sqlite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"BASKETWISE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BASKETWISE_REDIS_ADDR"`
	Password     string        `envconfig:"BASKETWISE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BASKETWISE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BASKETWISE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BASKETWISE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BASKETWISE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BASKETWISE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BASKETWISE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type ComparisonConfig struct {
	StoreTimeout  time.Duration `envconfig:"BASKETWISE_COMPARE_STORE_TIMEOUT" default:"2s"`
	Concurrency   int           `envconfig:"BASKETWISE_COMPARE_CONCURRENCY" default:"8"`
	SavingsPolicy string        `envconfig:"BASKETWISE_COMPARE_SAVINGS_POLICY" default:"average_deviation"`
	MaxItems      int           `envconfig:"BASKETWISE_COMPARE_MAX_ITEMS" default:"200"`
	CacheTTL      time.Duration `envconfig:"BASKETWISE_COMPARE_CACHE_TTL" default:"30s"`
}

func (c ComparisonConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.SavingsPolicy)) {
	case SavingsPolicyAverageDeviation, SavingsPolicySaleDiscount:
	default:
		return fmt.Errorf("%s must be one of %q or %q", EnvCompareSavingsPolicy, SavingsPolicyAverageDeviation, SavingsPolicySaleDiscount)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("%s must not be negative", EnvCompareConcurrency)
	}
	return nil
}

type RateLimitConfig struct {
	CompareWindow time.Duration `envconfig:"BASKETWISE_RATE_LIMIT_COMPARE_WINDOW" default:"1m"`
	CompareLimit  int           `envconfig:"BASKETWISE_RATE_LIMIT_COMPARE_LIMIT" default:"30"`
}

type RefreshConfig struct {
	Enabled  bool          `envconfig:"BASKETWISE_REFRESH_ENABLED" default:"false"`
	FeedURL  string        `envconfig:"BASKETWISE_REFRESH_FEED_URL"`
	Interval time.Duration `envconfig:"BASKETWISE_REFRESH_INTERVAL" default:"6h"`
	Timeout  time.Duration `envconfig:"BASKETWISE_REFRESH_TIMEOUT" default:"30s"`
}

type AlertsConfig struct {
	ScanInterval time.Duration `envconfig:"BASKETWISE_ALERTS_SCAN_INTERVAL" default:"1h"`
	Cooldown     time.Duration `envconfig:"BASKETWISE_ALERTS_COOLDOWN" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BASKETWISE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BASKETWISE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BASKETWISE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AlertsTopic string `envconfig:"BASKETWISE_PUBSUB_ALERTS_TOPIC" default:"bw-price-alert-events"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BASKETWISE_AUTO_MIGRATE" default:"false"`
	SeedOnBoot  bool `envconfig:"BASKETWISE_SEED_ON_BOOT" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
