package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load consults so tests only see what
// they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"MDM_CONFIG", "MDM_DB_DRIVER", "MDM_DB_PATH", "MDM_DB_URL",
		"MDM_LISTEN_ADDR", "MDM_SESSION_TTL", "MDM_APP_ENV", "MDM_PEPPER",
		"MDM_UPLOADS_DIR", "MDM_UPLOADS_MAX_BYTES",
		"MDM_ADMIN_USERNAME", "MDM_ADMIN_PASSWORD",
		"MDM_SCHEDULER_ENABLED", "MDM_SCHEDULER_CLEANUP_SPEC",
		"MDM_METRICS_ENABLED", "MDM_METRICS_TOKEN",
		"PEPPER", "ENV", "APP_ENV", "PORT", "MDM_PORT", "DATA_PATH", "MDM_DATA_PATH",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MDM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBPath != "data/mdm.db" {
		t.Fatalf("unexpected db defaults: %s %s", cfg.DBDriver, cfg.DBPath)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("unexpected session ttl: %v", cfg.SessionTTL)
	}
	if !cfg.IsDev() {
		t.Fatalf("default env must be dev")
	}
	if cfg.Pepper != defaultPepper {
		t.Fatalf("dev pepper not defaulted: %q", cfg.Pepper)
	}
	if !cfg.Scheduler.Enabled || cfg.Scheduler.CleanupSpec == "" {
		t.Fatalf("scheduler defaults wrong: %+v", cfg.Scheduler)
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	yaml := "db_driver: sqlite\ndb_path: /var/lib/mdm/mdm.db\nlisten_addr: \":9000\"\nsession_ttl: 1h\nuploads:\n  dir: /var/lib/mdm/uploads\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MDM_CONFIG", path)
	t.Setenv("MDM_SESSION_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/var/lib/mdm/mdm.db" || cfg.Uploads.Dir != "/var/lib/mdm/uploads" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("env must override file, got %v", cfg.SessionTTL)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
}

func TestEnvAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("MDM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "9999")
	t.Setenv("ENV", "Production")
	t.Setenv("PEPPER", " secret-pepper ")
	t.Setenv("DATA_PATH", "/srv/mdm")
	t.Setenv("MDM_ADMIN_PASSWORD", "hunter2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("PORT alias not applied: %s", cfg.ListenAddr)
	}
	if cfg.AppEnv != "production" || cfg.IsDev() {
		t.Fatalf("ENV alias not applied: %s", cfg.AppEnv)
	}
	if cfg.Pepper != "secret-pepper" {
		t.Fatalf("PEPPER alias not trimmed: %q", cfg.Pepper)
	}
	if cfg.Uploads.Dir != filepath.Join("/srv/mdm", "uploads") {
		t.Fatalf("DATA_PATH alias not applied to uploads: %s", cfg.Uploads.Dir)
	}
	if cfg.DBPath != filepath.Join("/srv/mdm", "mdm.db") {
		t.Fatalf("DATA_PATH alias not applied to db path: %s", cfg.DBPath)
	}
}

func TestListenAddrWithPort(t *testing.T) {
	cases := []struct {
		addr, port, want string
	}{
		{":8080", "9000", ":9000"},
		{"127.0.0.1:8080", "9000", "127.0.0.1:9000"},
		{":8080", "", ":8080"},
	}
	for _, c := range cases {
		if got := listenAddrWithPort(c.addr, c.port); got != c.want {
			t.Errorf("listenAddrWithPort(%q, %q) = %q, want %q", c.addr, c.port, got, c.want)
		}
	}
}
