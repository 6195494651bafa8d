package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Notifier NotifierConfig
}

type AppConfig struct {
	AppName       string
	Environment   string
	HTTPPort      string
	LogJSON       bool
	LogDebug      bool
	MigrationsDir string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret string
}

type NotifierConfig struct {
	CronSpec            string
	Workers             int
	DeliveryTimeout     time.Duration
	LockTTL             time.Duration
	RecommendationTTL   time.Duration
	NotificationChannel string

	// LogOnly replaces the Redis channel with a logger for local runs.
	// Deliveries then always succeed and consume their matches.
	LogOnly bool
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// Load reads the process environment. A .env file in the working directory is
// applied first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optDefault := func(key, def string) string {
		if v := opt(key); v != "" {
			return v
		}
		return def
	}
	optInt := func(key string, def int) int {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optBool := func(key string, def bool) bool {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := time.ParseDuration(raw)
		if err != nil || v < 0 {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:       optDefault("APP_NAME", "lockedin"),
		Environment:   optDefault("APP_ENV", "development"),
		HTTPPort:      optDefault("HTTP_PORT", "8080"),
		LogJSON:       optBool("LOG_JSON", false),
		LogDebug:      optBool("LOG_DEBUG", false),
		MigrationsDir: opt("MIGRATIONS_DIR"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     req("DB_HOST"),
		DBPort:     optDefault("DB_PORT", "5432"),
		DBName:     req("DB_NAME"),
		DBUser:     req("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  optDefault("DB_SSL_MODE", "disable"),

		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	cfg.Redis = RedisConfig{
		Host:     optDefault("REDIS_HOST", "localhost"),
		Port:     optDefault("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD"),
		DB:       optInt("REDIS_DB", 0),
	}

	cfg.JWT = JWTConfig{
		AccessSecret: opt("JWT_ACCESS_SECRET"),
	}

	cfg.Notifier = NotifierConfig{
		CronSpec:            optDefault("NOTIFIER_CRON", "@every 15m"),
		Workers:             optInt("NOTIFIER_WORKERS", 4),
		DeliveryTimeout:     optDuration("NOTIFY_DELIVERY_TIMEOUT", 10*time.Second),
		LockTTL:             optDuration("NOTIFIER_LOCK_TTL", 5*time.Minute),
		RecommendationTTL:   optDuration("RECOMMENDATION_CACHE_TTL", 2*time.Minute),
		NotificationChannel: optDefault("NOTIFICATION_CHANNEL", "lockedin:notifications"),
		LogOnly:             optBool("NOTIFIER_LOG_ONLY", false),
	}

	if cfg.Notifier.Workers < 1 {
		invalid = append(invalid, "NOTIFIER_WORKERS")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}
