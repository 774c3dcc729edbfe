package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Slot backends understood by the persistence layer.
const (
	SlotBackendMemory   = "memory"
	SlotBackendRedis    = "redis"
	SlotBackendPostgres = "postgres"
	SlotBackendSQLite   = "sqlite"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Slots    SlotConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SQLite   SQLiteConfig
	JWT      JWTConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Feedback FeedbackConfig
	Exports  ExportsConfig
	Activity ActivityConfig
	Profiles ProfilesConfig
}

// SlotConfig selects where the key-value persistence slots live.
type SlotConfig struct {
	Backend string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// SQLiteConfig points at the single-file slot database.
type SQLiteConfig struct {
	Path string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig holds the demo accounts accepted by the mock login.
type AuthConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	UserEmail     string
	UserPassword  string
	UserName      string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FeedbackConfig tunes the feedback workflow.
type FeedbackConfig struct {
	SlotKey          string
	SimulatedLatency time.Duration
}

// ExportsConfig controls stored export artifacts and their download links.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ActivityConfig configures the activity log and its writer pool.
type ActivityConfig struct {
	SlotKey           string
	MaxEntries        int
	WorkerConcurrency int
	WorkerRetries     int
}

// ProfilesConfig configures the identity profile lookup cache.
type ProfilesConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Slots = SlotConfig{Backend: strings.ToLower(strings.TrimSpace(v.GetString("SLOT_BACKEND")))}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		Prefix:   v.GetString("REDIS_KEY_PREFIX"),
	}

	cfg.SQLite = SQLiteConfig{Path: v.GetString("SQLITE_PATH")}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		AdminEmail:    v.GetString("AUTH_ADMIN_EMAIL"),
		AdminPassword: v.GetString("AUTH_ADMIN_PASSWORD"),
		AdminName:     v.GetString("AUTH_ADMIN_NAME"),
		UserEmail:     v.GetString("AUTH_USER_EMAIL"),
		UserPassword:  v.GetString("AUTH_USER_PASSWORD"),
		UserName:      v.GetString("AUTH_USER_NAME"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Feedback = FeedbackConfig{
		SlotKey:          v.GetString("FEEDBACK_SLOT_KEY"),
		SimulatedLatency: parseDuration(v.GetString("FEEDBACK_SIMULATED_LATENCY"), 0),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 30*time.Minute),
		ResultTTL:       parseDuration(v.GetString("EXPORTS_RESULT_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	cfg.Activity = ActivityConfig{
		SlotKey:           v.GetString("ACTIVITY_SLOT_KEY"),
		MaxEntries:        v.GetInt("ACTIVITY_MAX_ENTRIES"),
		WorkerConcurrency: v.GetInt("ACTIVITY_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("ACTIVITY_WORKER_RETRIES"),
	}

	cfg.Profiles = ProfilesConfig{
		CacheSize: v.GetInt("PROFILE_CACHE_SIZE"),
		CacheTTL:  parseDuration(v.GetString("PROFILE_CACHE_TTL"), 5*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("SLOT_BACKEND", SlotBackendMemory)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "feedback_desk")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "feedback-desk:")

	v.SetDefault("SQLITE_PATH", "./data/slots.db")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "feedback-desk-api")

	v.SetDefault("AUTH_ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("AUTH_ADMIN_PASSWORD", "admin123")
	v.SetDefault("AUTH_ADMIN_NAME", "Admin User")
	v.SetDefault("AUTH_USER_EMAIL", "user@example.com")
	v.SetDefault("AUTH_USER_PASSWORD", "user123")
	v.SetDefault("AUTH_USER_NAME", "Regular User")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FEEDBACK_SLOT_KEY", "userFeedback")
	v.SetDefault("FEEDBACK_SIMULATED_LATENCY", "0s")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "30m")
	v.SetDefault("EXPORTS_RESULT_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")

	v.SetDefault("ACTIVITY_SLOT_KEY", "activityLogs")
	v.SetDefault("ACTIVITY_MAX_ENTRIES", 500)
	v.SetDefault("ACTIVITY_WORKER_CONCURRENCY", 1)
	v.SetDefault("ACTIVITY_WORKER_RETRIES", 3)

	v.SetDefault("PROFILE_CACHE_SIZE", 64)
	v.SetDefault("PROFILE_CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
