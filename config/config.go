package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultCodes is the indicator allow-list used when ETL_CODES is unset.
// It matches the indicators seeded by the migrations.
var DefaultCodes = []string{
	"uf", "ivp", "dolar", "dolar_intercambio", "euro", "ipc",
	"utm", "imacec", "tpm", "libra_cobre", "tasa_desempleo", "bitcoin",
}

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=econpulse
//	POSTGRES_SSLMODE=disable
//	INDICATORS_API_URL=https://mindicador.cl/api
//	INDICATORS_API_TIMEOUT_SECONDS=10
//	ETL_CODES=uf,dolar,euro
//	ETL_HISTORY_DAYS=90
//	ETL_INTERVAL_HOURS=24
//	CACHE_TTL_SECONDS=60
type Config struct {
	Server     ServerConfig     // HTTP server configuration
	Postgres   PostgresConfig   // PostgreSQL connection settings
	Indicators IndicatorsConfig // Upstream indicators API
	ETL        ETLConfig        // Pipeline runs
	Cache      CacheConfig      // Read-side cache
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string // The TCP port the HTTP server will listen on (e.g., "8080")
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// IndicatorsConfig points the extractor at the upstream API.
type IndicatorsConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // requests per second
}

// ETLConfig drives pipeline runs.
type ETLConfig struct {
	Codes       []string
	HistoryDays int // 0 keeps the whole upstream series
	Interval    time.Duration
}

// CacheConfig controls the latest-stats cache; TTL 0 disables it.
type CacheConfig struct {
	TTL time.Duration
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing, validateConfig() will terminate the app
//     with a descriptive log message.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "econpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("INDICATORS_API_URL", "https://mindicador.cl/api")
	viper.SetDefault("INDICATORS_API_TIMEOUT_SECONDS", 10)
	viper.SetDefault("INDICATORS_API_RATE_LIMIT", 5)

	viper.SetDefault("ETL_CODES", strings.Join(DefaultCodes, ","))
	viper.SetDefault("ETL_HISTORY_DAYS", 90)
	viper.SetDefault("ETL_INTERVAL_HOURS", 24)
	viper.SetDefault("CACHE_TTL_SECONDS", 60)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Indicators: IndicatorsConfig{
			BaseURL:   viper.GetString("INDICATORS_API_URL"),
			Timeout:   clampTimeout(viper.GetInt("INDICATORS_API_TIMEOUT_SECONDS")),
			RateLimit: viper.GetInt("INDICATORS_API_RATE_LIMIT"),
		},
		ETL: ETLConfig{
			Codes:       ParseCodes(viper.GetString("ETL_CODES")),
			HistoryDays: viper.GetInt("ETL_HISTORY_DAYS"),
			Interval:    time.Duration(viper.GetInt("ETL_INTERVAL_HOURS")) * time.Hour,
		},
		Cache: CacheConfig{
			TTL: time.Duration(viper.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig()
}

// ParseCodes splits a comma-separated allow-list, lowercasing entries and
// dropping blanks and duplicates while keeping order.
func ParseCodes(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		code := strings.ToLower(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

// clampTimeout keeps the upstream timeout within 10..20 seconds.
func clampTimeout(seconds int) time.Duration {
	if seconds < 10 {
		seconds = 10
	}
	if seconds > 20 {
		seconds = 20
	}
	return time.Duration(seconds) * time.Second
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if AppConfig.Indicators.BaseURL == "" {
		missing = append(missing, "INDICATORS_API_URL")
	}
	if AppConfig.ETL.HistoryDays < 0 {
		missing = append(missing, "ETL_HISTORY_DAYS")
	}
	if AppConfig.ETL.Interval <= 0 {
		missing = append(missing, "ETL_INTERVAL_HOURS")
	}

	if len(missing) > 0 {
		log.Fatalf("missing or invalid environment variables: %v\n", missing)
	}
}
