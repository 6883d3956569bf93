package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

const (
	defaultAppEnv           = "dev"
	defaultPort             = "3030"
	defaultDBType           = "sqlite"
	defaultDatabaseURL      = "zyboard.db"
	defaultMaxOpenConns     = "10"
	defaultMaxIdleConns     = "5"
	defaultConnMaxLifetime  = "5m"
	defaultObjectStore      = "webdav"
	defaultWebDAVBaseDir    = "/cloud"
	defaultS3Region         = "us-east-1"
	defaultS3BaseDir        = "cloud"
	defaultJWTTTL           = "24h"
	defaultMaxUploadSize    = "10MiB"
	defaultQuota            = "1GiB"
	defaultCleanupEnabled   = "true"
	defaultCleanupInterval  = "24h"
	defaultNotificationKeep = "720h"
	defaultActivityKeep     = "2160h"
	defaultRequestTimeout   = "30s"
	minProdJWTSecretLength  = 32
)

// Database backends accepted in DB_TYPE.
const (
	DBSQLite   = "sqlite"
	DBPostgres = "postgres"
	DBMySQL    = "mysql"
	DBRest     = "rest"
)

// Object stores accepted in OBJECT_STORE.
const (
	ObjectStoreWebDAV = "webdav"
	ObjectStoreS3     = "s3"
)

type Config struct {
	AppEnv string
	Port   string

	DB       DatabaseConfig
	Supabase SupabaseConfig

	ObjectStore string
	WebDAV      WebDAVConfig
	S3          S3Config

	JWTSecret string
	JWTTTL    time.Duration

	MaxUploadSize int64
	DefaultQuota  int64

	CORSAllowedOrigins []string
	SentryDSN          string

	Cleanup CleanupConfig
}

type DatabaseConfig struct {
	Type            string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	Timeout        time.Duration
}

type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	BaseDir  string
	Timeout  time.Duration
}

type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	BaseDir   string
}

type CleanupConfig struct {
	Enabled               bool
	Interval              time.Duration
	NotificationRetention time.Duration
	ActivityRetention     time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv: strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", defaultAppEnv))),
		Port:   strings.TrimSpace(getEnv("PORT", defaultPort)),
	}

	var err error

	cfg.DB.Type = normalizeDBType(getEnv("DB_TYPE", defaultDBType))
	cfg.DB.URL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	if cfg.DB.MaxOpenConns, err = parseIntEnv("DB_MAX_OPEN_CONNS", defaultMaxOpenConns); err != nil {
		return nil, err
	}
	if cfg.DB.MaxIdleConns, err = parseIntEnv("DB_MAX_IDLE_CONNS", defaultMaxIdleConns); err != nil {
		return nil, err
	}
	if cfg.DB.ConnMaxLifetime, err = parseDurationEnv("DB_CONN_MAX_LIFETIME", defaultConnMaxLifetime); err != nil {
		return nil, err
	}

	cfg.Supabase.URL = strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/")
	cfg.Supabase.ServiceRoleKey = strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_ROLE_KEY"))
	if cfg.Supabase.Timeout, err = parseDurationEnv("SUPABASE_TIMEOUT", defaultRequestTimeout); err != nil {
		return nil, err
	}

	cfg.ObjectStore = strings.ToLower(strings.TrimSpace(getEnv("OBJECT_STORE", defaultObjectStore)))
	cfg.WebDAV = WebDAVConfig{
		URL:      strings.TrimSpace(os.Getenv("WEBDAV_URL")),
		Username: os.Getenv("WEBDAV_USERNAME"),
		Password: os.Getenv("WEBDAV_PASSWORD"),
		BaseDir:  strings.TrimSpace(getEnv("WEBDAV_BASE_DIR", defaultWebDAVBaseDir)),
	}
	if cfg.WebDAV.Timeout, err = parseDurationEnv("WEBDAV_TIMEOUT", defaultRequestTimeout); err != nil {
		return nil, err
	}
	cfg.S3 = S3Config{
		Bucket:    strings.TrimSpace(os.Getenv("S3_BUCKET")),
		Region:    strings.TrimSpace(getEnv("S3_REGION", defaultS3Region)),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		BaseDir:   strings.TrimSpace(getEnv("S3_BASE_DIR", defaultS3BaseDir)),
	}

	cfg.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}

	if cfg.MaxUploadSize, err = parseSizeEnv("MAX_UPLOAD_SIZE", defaultMaxUploadSize); err != nil {
		return nil, err
	}
	if cfg.DefaultQuota, err = parseSizeEnv("DEFAULT_QUOTA", defaultQuota); err != nil {
		return nil, err
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.SentryDSN = strings.TrimSpace(os.Getenv("SENTRY_DSN"))

	cfg.Cleanup.Enabled = parseBoolEnv("CLEANUP_ENABLED", defaultCleanupEnabled)
	if cfg.Cleanup.Interval, err = parseDurationEnv("CLEANUP_INTERVAL", defaultCleanupInterval); err != nil {
		return nil, err
	}
	if cfg.Cleanup.NotificationRetention, err = parseDurationEnv("NOTIFICATION_RETENTION", defaultNotificationKeep); err != nil {
		return nil, err
	}
	if cfg.Cleanup.ActivityRetention, err = parseDurationEnv("ACTIVITY_RETENTION", defaultActivityKeep); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProdLike reports whether the config targets a production deployment.
func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func validateConfig(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.IsProdLike() && len(cfg.JWTSecret) < minProdJWTSecretLength {
		return fmt.Errorf("in prod/release JWT_SECRET must be at least %d bytes", minProdJWTSecretLength)
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}

	switch cfg.DB.Type {
	case DBSQLite, DBPostgres, DBMySQL:
		if cfg.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL must not be empty for DB_TYPE=%s", cfg.DB.Type)
		}
		if cfg.DB.MaxOpenConns <= 0 {
			return fmt.Errorf("DB_MAX_OPEN_CONNS must be > 0")
		}
	case DBRest:
		if cfg.Supabase.URL == "" || cfg.Supabase.ServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for DB_TYPE=%s", cfg.DB.Type)
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", cfg.DB.Type)
	}

	switch cfg.ObjectStore {
	case ObjectStoreWebDAV:
		if cfg.WebDAV.URL == "" {
			return fmt.Errorf("WEBDAV_URL is required for OBJECT_STORE=webdav")
		}
	case ObjectStoreS3:
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for OBJECT_STORE=s3")
		}
	default:
		return fmt.Errorf("unsupported OBJECT_STORE %q", cfg.ObjectStore)
	}

	if cfg.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0")
	}
	if cfg.DefaultQuota <= 0 {
		return fmt.Errorf("DEFAULT_QUOTA must be > 0")
	}
	if cfg.Cleanup.Enabled && cfg.Cleanup.Interval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be > 0")
	}
	return nil
}

func normalizeDBType(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "postgres", "postgresql", "pg":
		return DBPostgres
	case "mysql", "mariadb":
		return DBMySQL
	case "supabase", "rest", "postgrest":
		return DBRest
	case "sqlite", "sqlite3":
		return DBSQLite
	default:
		return strings.ToLower(strings.TrimSpace(v))
	}
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

// parseSizeEnv accepts plain byte counts as well as "10MB" / "1GiB".
func parseSizeEnv(name, fallback string) (int64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return int64(n), nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
