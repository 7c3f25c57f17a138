package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds settings for all pipeline stages, populated from environment
// variables. The stages are separate binaries; each reads only the fields it
// needs, but they share one Config so file paths and table names line up.
type Config struct {
	// Fetch stage.
	SocrataBaseURL string
	DatasetID      string
	RowBudget      int
	PageSize       int
	FetchDelay     time.Duration
	FetchTimeout   time.Duration
	RawPath        string

	// Clean stage.
	CleanedPath string

	// Load stage and dashboard queries.
	DBUser         string
	DBPassword     string
	DBHost         string
	DBPort         string
	DBName         string
	RidershipTable string
	ForecastTable  string
	LoadBatchSize  int

	// Dashboard.
	HTTPAddr        string
	CacheTTL        time.Duration
	CacheMaxEntries int
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	rowBudget, err := envInt("ROW_BUDGET", 8_000_000)
	if err != nil {
		return nil, err
	}
	pageSize, err := envInt("PAGE_SIZE", 50_000)
	if err != nil {
		return nil, err
	}
	batchSize, err := envInt("LOAD_BATCH_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	cacheEntries, err := envInt("CACHE_MAX_ENTRIES", 32)
	if err != nil {
		return nil, err
	}

	fetchDelay, err := envDuration("FETCH_DELAY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := envDuration("FETCH_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := envDuration("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SocrataBaseURL: envOrDefault("SOCRATA_BASE_URL", "https://data.ny.gov/resource"),
		DatasetID:      envOrDefault("DATASET_ID", "wujg-7c2s"),
		RowBudget:      rowBudget,
		PageSize:       pageSize,
		FetchDelay:     fetchDelay,
		FetchTimeout:   fetchTimeout,
		RawPath:        envOrDefault("RAW_PATH", "data/raw/mta_hourly_ridership.csv"),

		CleanedPath: envOrDefault("CLEANED_PATH", "data/processed/mta_hourly_ridership_cleaned.csv"),

		DBUser:         envOrDefault("DB_USER", "subway_user"),
		DBPassword:     envOrDefault("DB_PASSWORD", "12345678"),
		DBHost:         envOrDefault("DB_HOST", "localhost"),
		DBPort:         envOrDefault("DB_PORT", "5432"),
		DBName:         envOrDefault("DB_NAME", "nyc_subway_db"),
		RidershipTable: envOrDefault("RIDERSHIP_TABLE", "hourly_ridership"),
		ForecastTable:  envOrDefault("FORECAST_TABLE", "hourly_ridership_forecasts"),
		LoadBatchSize:  batchSize,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		CacheTTL:        cacheTTL,
		CacheMaxEntries: cacheEntries,
		ShutdownTimeout: shutdownTimeout,

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.RowBudget <= 0 {
		return nil, errors.New("ROW_BUDGET must be positive")
	}
	if cfg.PageSize <= 0 {
		return nil, errors.New("PAGE_SIZE must be positive")
	}
	if cfg.LoadBatchSize <= 0 {
		return nil, errors.New("LOAD_BATCH_SIZE must be positive")
	}
	if cfg.CacheMaxEntries <= 0 {
		return nil, errors.New("CACHE_MAX_ENTRIES must be positive")
	}
	if cfg.RidershipTable == "" {
		return nil, errors.New("RIDERSHIP_TABLE is required")
	}
	if cfg.ForecastTable == "" {
		return nil, errors.New("FORECAST_TABLE is required")
	}

	return cfg, nil
}

// DSN assembles the Postgres connection string from the DB_* settings.
// Credentials come from the environment; the defaults exist for local
// development only and must be overridden everywhere else.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(c.DBUser),
		url.QueryEscape(c.DBPassword),
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
