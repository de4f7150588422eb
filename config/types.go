package config

import "time"

type AppConfig struct {
	DBDriver   string        `yaml:"db_driver" env:"MDM_DB_DRIVER"`
	DBPath     string        `yaml:"db_path" env:"MDM_DB_PATH"`
	DBURL      string        `yaml:"db_url" env:"MDM_DB_URL"`
	ListenAddr string        `yaml:"listen_addr" env:"MDM_LISTEN_ADDR" env-default:":8080"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"MDM_SESSION_TTL" env-default:"12h"`
	AppEnv     string        `yaml:"app_env" env:"MDM_APP_ENV" env-default:"dev"`
	Pepper     string        `yaml:"pepper" env:"MDM_PEPPER"`

	Uploads       UploadsConfig       `yaml:"uploads"`
	Admin         AdminConfig         `yaml:"admin"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type UploadsConfig struct {
	Dir      string `yaml:"dir" env:"MDM_UPLOADS_DIR" env-default:"data/uploads"`
	MaxBytes int64  `yaml:"max_bytes" env:"MDM_UPLOADS_MAX_BYTES" env-default:"26214400"`
}

type AdminConfig struct {
	Username string `yaml:"username" env:"MDM_ADMIN_USERNAME" env-default:"admin"`
	Password string `yaml:"password" env:"MDM_ADMIN_PASSWORD"`
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled" env:"MDM_SCHEDULER_ENABLED" env-default:"true"`
	// Cron spec for the expired-session / orphaned-attachment sweep.
	CleanupSpec string `yaml:"cleanup_spec" env:"MDM_SCHEDULER_CLEANUP_SPEC" env-default:"17 3 * * *"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled" env:"MDM_METRICS_ENABLED" env-default:"true"`
	MetricsToken   string `yaml:"metrics_token" env:"MDM_METRICS_TOKEN"`
}

func (c *AppConfig) IsDev() bool {
	if c == nil {
		return false
	}
	return c.AppEnv == "dev"
}
