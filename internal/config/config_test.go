package config_test

import (
	"testing"

	"github.com/Catalitium/catalitiumJobs/internal/config"
)

// clearEnv pins every variable Load reads so ambient CI values cannot
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "ENV", "DATABASE_URL", "DB_PATH", "REDIS_URL",
		"ANALYTICS_SALT", "ADMIN_KEY", "ADMIN_TOKEN", "GTM_CONTAINER_ID",
		"DENYLIST_LINKS", "ADZUNA_APP_ID", "ADZUNA_APP_KEY", "ADZUNA_COUNTRY",
		"INGEST_INTERVAL_HOURS", "INGEST_TITLES", "INGEST_LOCATIONS",
		"INGEST_RED_FLAGS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.SQLitePath != "data/catalitium.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.AnalyticsSalt != "dev" {
		t.Errorf("AnalyticsSalt = %q, want dev", cfg.AnalyticsSalt)
	}
	if cfg.IngestIntervalHours != 6 {
		t.Errorf("IngestIntervalHours = %d, want 6", cfg.IngestIntervalHours)
	}
	if cfg.UsePostgres() {
		t.Error("UsePostgres must be false without DATABASE_URL")
	}
	if cfg.IngestEnabled() {
		t.Error("IngestEnabled must be false without Adzuna credentials")
	}
	if len(cfg.IngestTitles) == 0 || len(cfg.IngestLocations) == 0 {
		t.Error("ingest title and location defaults must not be empty")
	}
}

func TestLoad_PostgresSelected(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://user:pw@localhost:5432/jobs")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UsePostgres() {
		t.Error("UsePostgres must be true with DATABASE_URL set")
	}
}

func TestLoad_RejectsBadInterval(t *testing.T) {
	for _, bad := range []string{"abc", "0", "-3"} {
		clearEnv(t)
		t.Setenv("INGEST_INTERVAL_HOURS", bad)
		if _, err := config.Load(); err == nil {
			t.Errorf("Load with INGEST_INTERVAL_HOURS=%q should fail", bad)
		}
	}
}

func TestLoad_SplitsLists(t *testing.T) {
	clearEnv(t)
	t.Setenv("INGEST_TITLES", " backend engineer, data engineer ,,sre ")
	t.Setenv("DENYLIST_LINKS", "https://spam.example/a,https://spam.example/b")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wantTitles := []string{"backend engineer", "data engineer", "sre"}
	if len(cfg.IngestTitles) != len(wantTitles) {
		t.Fatalf("IngestTitles = %v, want %v", cfg.IngestTitles, wantTitles)
	}
	for i := range wantTitles {
		if cfg.IngestTitles[i] != wantTitles[i] {
			t.Errorf("IngestTitles[%d] = %q, want %q", i, cfg.IngestTitles[i], wantTitles[i])
		}
	}
	if len(cfg.DenylistLinks) != 2 {
		t.Errorf("DenylistLinks = %v, want 2 entries", cfg.DenylistLinks)
	}
}

func TestLoad_IngestEnabledNeedsBothCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADZUNA_APP_ID", "id-only")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IngestEnabled() {
		t.Error("IngestEnabled must be false with only an app id")
	}

	t.Setenv("ADZUNA_APP_KEY", "key")
	cfg, err = config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IngestEnabled() {
		t.Error("IngestEnabled must be true with both credentials")
	}
}
