package config

import (
	"fmt"
	"strings"
)

const defaultPepper = "uhmwpe-dev-pepper"

func Validate(cfg *AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return fmt.Errorf("db_path must be set for sqlite driver")
		}
	case "postgres", "pg":
		if strings.TrimSpace(cfg.DBURL) == "" {
			return fmt.Errorf("db_url must be set for postgres driver")
		}
	default:
		return fmt.Errorf("unsupported db_driver: %s", cfg.DBDriver)
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if cfg.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be positive")
	}
	pep := strings.TrimSpace(cfg.Pepper)
	if pep == "" {
		if !cfg.IsDev() {
			return fmt.Errorf("pepper must be set via env outside MDM_APP_ENV=dev")
		}
		cfg.Pepper = defaultPepper
	}
	if !cfg.IsDev() && cfg.Pepper == defaultPepper {
		return fmt.Errorf("default pepper is not allowed outside MDM_APP_ENV=dev")
	}
	if !cfg.IsDev() && strings.TrimSpace(cfg.Admin.Password) == "" {
		return fmt.Errorf("admin.password must be set outside MDM_APP_ENV=dev")
	}
	return nil
}
