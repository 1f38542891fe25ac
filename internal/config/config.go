// Package config loads and validates environment variables at startup.
// Fail-fast: a malformed value stops the process before it serves anything.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the job board.
type Config struct {
	Port     string
	LogLevel string
	Env      string // "development" or "production"

	// DatabaseURL selects Postgres; empty falls back to SQLite at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// RedisURL is optional. Without it rate limiting stays in-process.
	RedisURL string

	AnalyticsSalt string
	AdminKey      string
	AdminToken    string
	GTMContainer  string

	// DenylistLinks are listing URLs excluded from every search result.
	DenylistLinks []string

	// Adzuna ingest. Leaving the credentials empty disables ingestion.
	AdzunaAppID         string
	AdzunaAppKey        string
	AdzunaCountry       string // e.g. "de", "gb", "us"
	IngestIntervalHours int
	IngestTitles        []string
	IngestLocations     []string
	IngestRedFlags      []string
}

// Load reads .env (when present) and the environment, and returns a
// validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	mode := os.Getenv("ENV")
	if mode == "" {
		mode = "development"
	}

	sqlitePath := os.Getenv("DB_PATH")
	if sqlitePath == "" {
		sqlitePath = "data/catalitium.db"
	}

	salt := os.Getenv("ANALYTICS_SALT")
	if salt == "" {
		salt = "dev"
	}

	gtm := os.Getenv("GTM_CONTAINER_ID")
	if gtm == "" {
		gtm = "GTM-MNJ9SSL9"
	}

	interval := 6
	if s := os.Getenv("INGEST_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("INGEST_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	country := os.Getenv("ADZUNA_COUNTRY")
	if country == "" {
		country = "de"
	}

	titles := splitList(os.Getenv("INGEST_TITLES"))
	if len(titles) == 0 {
		titles = []string{"software engineer", "data scientist", "product manager"}
	}
	locations := splitList(os.Getenv("INGEST_LOCATIONS"))
	if len(locations) == 0 {
		locations = []string{"berlin", "munich", "remote"}
	}

	return &Config{
		Port:                port,
		LogLevel:            level,
		Env:                 mode,
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:          sqlitePath,
		RedisURL:            os.Getenv("REDIS_URL"),
		AnalyticsSalt:       salt,
		AdminKey:            os.Getenv("ADMIN_KEY"),
		AdminToken:          os.Getenv("ADMIN_TOKEN"),
		GTMContainer:        gtm,
		DenylistLinks:       splitList(os.Getenv("DENYLIST_LINKS")),
		AdzunaAppID:         os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:        os.Getenv("ADZUNA_APP_KEY"),
		AdzunaCountry:       country,
		IngestIntervalHours: interval,
		IngestTitles:        titles,
		IngestLocations:     locations,
		IngestRedFlags:      splitList(os.Getenv("INGEST_RED_FLAGS")),
	}, nil
}

// UsePostgres reports whether a Postgres URL is configured.
func (c *Config) UsePostgres() bool { return c.DatabaseURL != "" }

// IngestEnabled reports whether Adzuna credentials are present.
func (c *Config) IngestEnabled() bool { return c.AdzunaAppID != "" && c.AdzunaAppKey != "" }

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
