package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded through the resolver chain.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
	EmailJS  EmailJSConfig
	Cleanup  CleanupConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	PublicBaseURL      string // origin used to build confirmation links
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings for the admin surface.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the proof-of-payment bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PreuvesBucket   string
}

// EmailJSConfig holds the transactional email provider identifiers.
type EmailJSConfig struct {
	BaseURL    string
	ServiceID  string
	TemplateID string
	PublicKey  string
	FromName   string
	FromEmail  string
}

// CleanupConfig holds the periodic cleanup and public rate-limit settings.
// The 10-minute age threshold lives inside the cleanup_unverified_registrations
// SQL function, not here.
type CleanupConfig struct {
	IntervalMinutes int
	RateLimitPerMin int
}

// AdminConfig bootstraps the first admin account when both fields are set.
type AdminConfig struct {
	Email    string
	Password string
	FullName string
}

// Interval returns the cleanup period as a duration.
func (c CleanupConfig) Interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL), it is used as-is.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// devDefaults are last-resort development values; deployments set the runtime
// config file or the environment instead.
var devDefaults = map[string]string{
	"PORT":                  "8080",
	"EMAILJS_BASE_URL":      "https://api.emailjs.com",
	"EMAILJS_SERVICE_ID":    "service_dev",
	"EMAILJS_TEMPLATE_ID":   "template_dev",
	"EMAILJS_PUBLIC_KEY":    "dev_public_key",
	"EMAIL_FROM_NAME":       "Summer Camp Registration",
	"EMAIL_FROM_ADDRESS":    "noreply@summercamp.com",
	"DATABASE_URL":          "postgres://localhost:5432/summercamp?sslmode=disable",
	"PUBLIC_BASE_URL":       "http://localhost:3000",
	"AWS_REGION":            "us-east-1",
	"AWS_S3_PREUVES_BUCKET": "preuves",
	"REDIS_ADDR":            "localhost:6379",
	"JWT_SECRET":            "change-me-in-production",
	"CORS_ALLOWED_ORIGINS":  "http://localhost:3000,http://localhost:5173",
}

// Load reads configuration through the ordered chain: runtime config file
// (CONFIG_FILE, default ./config.json), then process environment (with an
// optional .env merged in), then hardcoded development defaults.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.json"
	}
	res := NewResolver(FileSource(configFile), EnvSource(), DefaultsSource(devDefaults))

	cfg := &Config{
		Server: ServerConfig{
			Port:               res.Get("PORT"),
			ReadTimeout:        getInt(res, "READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getInt(res, "WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: res.Get("CORS_ALLOWED_ORIGINS"),
			PublicBaseURL:      res.Get("PUBLIC_BASE_URL"),
		},
		Database: DatabaseConfig{
			URL:      res.Get("DATABASE_URL"),
			Host:     res.Get("DB_HOST"),
			Port:     res.Get("DB_PORT"),
			User:     res.Get("DB_USER"),
			Password: res.Get("DB_PASSWORD"),
			DBName:   res.Get("DB_NAME"),
			SSLMode:  res.Get("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     res.Get("REDIS_ADDR"),
			Password: res.Get("REDIS_PASSWORD"),
			DB:       getInt(res, "REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      res.Get("JWT_SECRET"),
			ExpireHours: getInt(res, "JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:          res.Get("AWS_REGION"),
			AccessKeyID:     res.Get("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: res.Get("AWS_SECRET_ACCESS_KEY"),
			PreuvesBucket:   res.Get("AWS_S3_PREUVES_BUCKET"),
		},
		EmailJS: EmailJSConfig{
			BaseURL:    res.Get("EMAILJS_BASE_URL"),
			ServiceID:  res.Get("EMAILJS_SERVICE_ID"),
			TemplateID: res.Get("EMAILJS_TEMPLATE_ID"),
			PublicKey:  res.Get("EMAILJS_PUBLIC_KEY"),
			FromName:   res.Get("EMAIL_FROM_NAME"),
			FromEmail:  res.Get("EMAIL_FROM_ADDRESS"),
		},
		Cleanup: CleanupConfig{
			IntervalMinutes: getInt(res, "CLEANUP_INTERVAL_MINUTES", 5),
			RateLimitPerMin: getInt(res, "REGISTRATION_RATE_LIMIT_PER_MIN", 10),
		},
		Admin: AdminConfig{
			Email:    res.Get("ADMIN_EMAIL"),
			Password: res.Get("ADMIN_PASSWORD"),
			FullName: res.Get("ADMIN_FULL_NAME"),
		},
	}
	return cfg, nil
}

func getInt(res *Resolver, key string, fallback int) int {
	if v := res.Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
