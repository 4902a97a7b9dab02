// Package config loads runtime settings from the environment (optionally
// from a .env file) and holds the static domain constants.
package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings of the service.
type Config struct {
	Port string

	// Storage
	StorageDriver string // "postgres" or "sqlite"
	DatabaseDSN   string

	// Redis. An empty address disables Redis-backed locks and event fan-out.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret      string
	AdminUsername  string
	AdminEmail     string
	AdminPassword  string
	GoogleClientID string

	// Notifications
	TelegramBotToken    string
	TelegramAdminChatID int64
	NotifyLang          string
	LocalizationDir     string

	CORSOrigins []string
}

// ErrMissingJWTSecret is returned by Validate when no signing secret is set.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		StorageDriver:       getEnv("STORAGE_DRIVER", "postgres"),
		DatabaseDSN:         getEnv("DATABASE_DSN", "host=localhost user=user password=password dbname=complaintdesk port=5432 sslmode=disable"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:          getEnv("ADMIN_EMAIL", "admin@tracker.com"),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChatID: getEnvInt64("TELEGRAM_ADMIN_CHAT_ID", 0),
		NotifyLang:          getEnv("NOTIFY_LANG", "en"),
		LocalizationDir:     getEnv("LOCALIZATION_DIR", "internal/localization"),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// TelegramEnabled reports whether admin notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramAdminChatID != 0
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	return int(getEnvInt64(key, int64(fallback)))
}

// getEnvInt64 parses 64-bit values such as Telegram supergroup chat ids.
func getEnvInt64(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("WARNING: invalid integer in %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
