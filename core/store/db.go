package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"uhmwpe-mdm/config"
	"uhmwpe-mdm/core/utils"

	_ "modernc.org/sqlite"
)

func NewDB(cfg *config.AppConfig, logger *utils.Logger) (*sql.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DBDriver)) {
	case "sqlite", "":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return nil, errors.New("MDM_DB_PATH is required for sqlite")
		}
		if dir := filepath.Dir(cfg.DBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			if logger != nil {
				logger.Errorf("db open failed: %v", err)
			}
			return nil, err
		}
		// modernc sqlite serializes writes; a single connection avoids
		// SQLITE_BUSY under concurrent handlers.
		db.SetMaxOpenConns(1)
		if logger != nil {
			logger.Printf("db open sqlite path=%s", cfg.DBPath)
		}
		return db, nil
	case "postgres", "pg":
		if strings.TrimSpace(cfg.DBURL) == "" {
			return nil, errors.New("MDM_DB_URL is required for postgres")
		}
		db, err := sql.Open(postgresDriverName, cfg.DBURL)
		if err != nil {
			if logger != nil {
				logger.Errorf("db open failed: %v", err)
			}
			return nil, err
		}
		if logger != nil {
			logger.Printf("db open postgres")
		}
		return db, nil
	default:
		return nil, errors.New("unsupported db driver: " + cfg.DBDriver)
	}
}
