package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is built once at startup by Load and passed explicitly to the components that need it
// (database opener, provider client, ingestion job, router). Nothing reads it from a global.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=stockpulse
//	POSTGRES_SSLMODE=disable
//	ALPHAVANTAGE_API_KEY=demo
//	TICKER_SYMBOLS=IBM,AAPL
type Config struct {
	Server    ServerConfig    // HTTP server configuration
	Postgres  PostgresConfig  // PostgreSQL connection settings
	Provider  ProviderConfig  // Market-data provider (Alpha Vantage)
	Ingestion IngestionConfig // Ingestion job settings
	Log       LogConfig       // Logger settings
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // The TCP port the HTTP server will listen on (e.g., "8080")
	RateLimit      int           // Requests allowed per client IP per minute
	RequestTimeout time.Duration // Deadline attached to every request context
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
//   - MaxOpenConns: upper bound for the database/sql pool.
type PostgresConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

// DSN returns the connection string used by database/sql.
// User, password and database name are escaped, so reserved characters are safe.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

// ProviderConfig configures access to the Alpha Vantage REST API.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// IngestionConfig lists the tracked tickers and how far back each run looks.
type IngestionConfig struct {
	Symbols    []string
	WindowDays int
	Parallel   int
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads the configuration from defaults, an optional .env file and the environment.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// It returns an error naming every required variable that ended up empty.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("REQUEST_TIMEOUT", "10s")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "stockpulse")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_OPEN_CONNS", 10)

	v.SetDefault("ALPHAVANTAGE_API_KEY", "")
	v.SetDefault("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co")
	v.SetDefault("ALPHAVANTAGE_TIMEOUT", "30s")

	v.SetDefault("TICKER_SYMBOLS", "IBM,AAPL")
	v.SetDefault("INGEST_WINDOW_DAYS", 14)
	v.SetDefault("INGEST_PARALLEL", 1)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)

	// Optionally read from .env if present (common in local dev)
	v.SetConfigFile(".env")
	_ = v.ReadInConfig() // ignore error if no .env

	v.AutomaticEnv()

	cfg := Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			RateLimit:      v.GetInt("RATE_LIMIT_PER_MINUTE"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			Host:         v.GetString("POSTGRES_HOST"),
			Port:         v.GetInt("POSTGRES_PORT"),
			User:         v.GetString("POSTGRES_USER"),
			Password:     v.GetString("POSTGRES_PASSWORD"),
			DBName:       v.GetString("POSTGRES_DB"),
			SSLMode:      v.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns: v.GetInt("POSTGRES_MAX_OPEN_CONNS"),
		},
		Provider: ProviderConfig{
			BaseURL: strings.TrimRight(v.GetString("ALPHAVANTAGE_BASE_URL"), "/"),
			APIKey:  v.GetString("ALPHAVANTAGE_API_KEY"),
			Timeout: v.GetDuration("ALPHAVANTAGE_TIMEOUT"),
		},
		Ingestion: IngestionConfig{
			Symbols:    ParseSymbols(v.GetString("TICKER_SYMBOLS")),
			WindowDays: v.GetInt("INGEST_WINDOW_DAYS"),
			Parallel:   v.GetInt("INGEST_PARALLEL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseSymbols splits a comma separated ticker list, trimming, upper-casing
// and dropping blanks and duplicates while keeping the original order.
func ParseSymbols(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		s := strings.ToUpper(strings.TrimSpace(part))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// validate ensures the variables needed by every mode are present.
func (c Config) validate() error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if c.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if c.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if c.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if c.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if c.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

// ValidateIngestion checks the settings only the ingestion mode depends on.
func (c Config) ValidateIngestion() error {
	var errs []error
	if c.Provider.APIKey == "" {
		errs = append(errs, errors.New("ALPHAVANTAGE_API_KEY is required for ingestion"))
	}
	if c.Provider.BaseURL == "" {
		errs = append(errs, errors.New("ALPHAVANTAGE_BASE_URL must not be empty"))
	}
	if len(c.Ingestion.Symbols) == 0 {
		errs = append(errs, errors.New("TICKER_SYMBOLS must list at least one symbol"))
	}
	if c.Ingestion.WindowDays < 0 {
		errs = append(errs, errors.New("INGEST_WINDOW_DAYS must not be negative"))
	}
	return errors.Join(errs...)
}
