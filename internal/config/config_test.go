package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{envPort, envStore, envSyncCron, envSyncAhead, envStaticTokens, envJWTSecret, envExportDelay} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != defaultPort || cfg.Store.Driver != StoreMemory {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Sync.Cron != defaultSyncCron || cfg.Sync.WeeksAhead != defaultWeeksAhead {
		t.Fatalf("unexpected sync defaults %+v", cfg.Sync)
	}
	if cfg.Auth.Enabled() {
		t.Fatal("expected auth to be disabled by default")
	}
	if cfg.Export.ExportDelay != 2*time.Second {
		t.Fatalf("expected 2s export delay, got %v", cfg.Export.ExportDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestSeedDemoDefaultsToMemoryOnly(t *testing.T) {
	t.Setenv(envSeedDemo, "")
	for driver, want := range map[string]bool{"": true, StoreMemory: true, StoreSQLite: false, StorePostgres: false} {
		t.Setenv(envStore, driver)
		if got := Load().SeedDemo; got != want {
			t.Fatalf("store %q: expected seed demo %v, got %v", driver, want, got)
		}
	}

	t.Setenv(envStore, StoreSQLite)
	t.Setenv(envSeedDemo, "true")
	if !Load().SeedDemo {
		t.Fatal("expected SEED_DEMO=true to seed a sqlite store")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(envPort, "9000")
	t.Setenv(envStore, StoreSQLite)
	t.Setenv(envSyncAhead, "0")
	t.Setenv(envStaticTokens, "a, ,b")
	t.Setenv(envEmailDelay, "250ms")
	t.Setenv(envSeedDemo, "no")

	cfg := Load()
	if cfg.Port != "9000" || cfg.Store.Driver != StoreSQLite {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Sync.WeeksAhead != 0 {
		t.Fatalf("expected zero weeks ahead to be allowed, got %d", cfg.Sync.WeeksAhead)
	}
	if len(cfg.Auth.StaticTokens) != 2 || !cfg.Auth.Enabled() {
		t.Fatalf("unexpected tokens %+v", cfg.Auth.StaticTokens)
	}
	if cfg.Export.EmailDelay != 250*time.Millisecond || cfg.SeedDemo {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestValidateRejectsBadStore(t *testing.T) {
	cfg := Config{Store: StoreConfig{Driver: StorePostgres}, Timezone: "UTC"}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), envDatabaseURL) {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
	cfg.Store.Driver = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
	cfg = Config{Store: StoreConfig{Driver: StoreMemory}, Timezone: "Mars/Olympus"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected bad timezone to fail")
	}
}

func TestIntEnvOrDefault(t *testing.T) {
	t.Setenv("ICETIME_TEST_INT", "-1")
	if got := intEnvOrDefault("ICETIME_TEST_INT", 5, 0); got != 5 {
		t.Fatalf("expected fallback 5, got %d", got)
	}
	t.Setenv("ICETIME_TEST_INT", "abc")
	if got := intEnvOrDefault("ICETIME_TEST_INT", 5, 0); got != 5 {
		t.Fatalf("expected fallback 5, got %d", got)
	}
}

func TestLoadRinkConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rink.yaml")
	body := `
templates:
  - name: Weeknight practice
    rrule: FREQ=WEEKLY;BYDAY=MO,WE
    start: "18:00"
    end: "21:00"
    type: practice
    slot_minutes: 90
feeds:
  - url: https://rink.example.com/open-ice.ics
    rink: Sheet B
teams:
  - id: "7"
    name: Blue Liners
    manager_name: Pat Doe
    manager_email: pat@blueliners.com
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadRinkConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Templates) != 1 || cfg.Templates[0].SlotMinutes != 90 {
		t.Fatalf("unexpected templates %+v", cfg.Templates)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].ID != "feed-1" || cfg.Feeds[0].Rink != "Sheet B" {
		t.Fatalf("unexpected feeds %+v", cfg.Feeds)
	}
	if len(cfg.Teams) != 1 || cfg.Teams[0].Name != "Blue Liners" {
		t.Fatalf("unexpected teams %+v", cfg.Teams)
	}
}

func TestLoadRinkConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadRinkConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Teams) != 0 || len(cfg.Templates) != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadRinkConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rink.yaml")
	body := "templates:\n  - name: broken\n    rrule: FREQ=WEEKLY\n    start: \"21:00\"\n    end: \"18:00\"\n    type: practice\nfeeds:\n  - id: x\n    url: ftp://nope\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadRinkConfig(path)
	if err == nil {
		t.Fatal("expected invalid config to fail")
	}
	if !strings.Contains(err.Error(), "end must be after start") || !strings.Contains(err.Error(), "http or https") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}
