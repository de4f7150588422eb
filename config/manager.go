package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	defaultConfigPath = "config/app.yaml"
	envPrefix         = "MDM_"
)

func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfgPath := resolveConfigPath()
	if st, err := os.Stat(cfgPath); err == nil && !st.IsDir() {
		if err := cleanenv.ReadConfig(cfgPath, cfg); err != nil {
			return nil, err
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	applyEnvAliases(cfg)
	normalizeConfig(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveConfigPath() string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + "CONFIG")); v != "" {
		return v
	}
	return defaultConfigPath
}

func applyEnvAliases(cfg *AppConfig) {
	if cfg == nil {
		return
	}
	if v := getEnv("PEPPER"); v != "" {
		cfg.Pepper = strings.TrimSpace(v)
	}
	if v := getEnv("ENV", "APP_ENV"); v != "" {
		cfg.AppEnv = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getEnv("PORT", envPrefix+"PORT"); v != "" {
		cfg.ListenAddr = listenAddrWithPort(cfg.ListenAddr, v)
	}
	if v := getEnv("DATA_PATH", envPrefix+"DATA_PATH"); v != "" {
		base := strings.TrimSpace(v)
		cfg.Uploads.Dir = filepath.Join(base, "uploads")
		if strings.TrimSpace(cfg.DBPath) == "" {
			cfg.DBPath = filepath.Join(base, "mdm.db")
		}
	}
}

func normalizeConfig(cfg *AppConfig) {
	if cfg == nil {
		return
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	cfg.DBURL = strings.TrimSpace(cfg.DBURL)
	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.Pepper = strings.TrimSpace(cfg.Pepper)
	cfg.Uploads.Dir = strings.TrimSpace(cfg.Uploads.Dir)
	cfg.Admin.Username = strings.ToLower(strings.TrimSpace(cfg.Admin.Username))
	cfg.Observability.MetricsToken = strings.TrimSpace(cfg.Observability.MetricsToken)
	if cfg.DBDriver == "" {
		if cfg.DBURL != "" {
			cfg.DBDriver = "postgres"
		} else {
			cfg.DBDriver = "sqlite"
		}
	}
	if cfg.DBDriver == "sqlite" && cfg.DBPath == "" {
		cfg.DBPath = "data/mdm.db"
	}
}

func getEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func listenAddrWithPort(addr, port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return addr
	}
	host := ""
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
	}
	return host + ":" + port
}
