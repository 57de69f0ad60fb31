package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort          string
	DBDriver            string
	DatabaseDSN         string
	ResetDB             bool
	RedisAddr           string
	RedisDB             int
	RedisPass           string
	JWTSecret           string
	ResendAPIKey        string
	MailFrom            string
	AllowedOrigins      []string
	SwaggerHost         string
	NotifyOnEventUpdate bool
	LogLevel            slog.Level
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		DBDriver:            strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
		DatabaseDSN:         getEnv("DATABASE_DSN", "user:password@tcp(localhost:3306)/signmeup?charset=utf8mb4&parseTime=True&loc=UTC"),
		ResetDB:             getEnvBool("RESET_DB", false),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RedisPass:           os.Getenv("REDIS_PASSWORD"),
		JWTSecret:           getEnv("JWT_SECRET", "change-me"),
		ResendAPIKey:        os.Getenv("RESEND_API_KEY"),
		MailFrom:            getEnv("MAIL_FROM", "SignMeUp <onboarding@resend.dev>"),
		AllowedOrigins:      getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		SwaggerHost:         os.Getenv("SWAGGER_HOST"),
		NotifyOnEventUpdate: getEnvBool("NOTIFY_ON_EVENT_UPDATE", false),
		LogLevel:            getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is empty")
	}
	return nil
}

// String returns a representation of the config with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, DB: %s, Redis: %q, Origins: %v, Mail: %s, Secrets: ***}",
		c.ServerPort, c.DBDriver, c.RedisAddr, c.AllowedOrigins, c.MailFrom)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvList splits a comma-separated variable, dropping blanks and trailing slashes.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if item := strings.TrimRight(strings.TrimSpace(p), "/"); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func getEnvLevel(key string, def slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return def
	}
	return level
}
