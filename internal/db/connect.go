// Package db opens and migrates the Flagman store database.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zulandar/flagman/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the mysql backend.
func DSN(host string, port int, database string) string {
	return fmt.Sprintf("root@tcp(%s:%d)/%s?parseTime=true", host, port, database)
}

// Connect opens a GORM connection to the configured backend. For the sqlite
// backend the parent directory is created first so a fresh data_dir works.
func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch cfg.Backend {
	case "mysql":
		db, err := gorm.Open(mysql.Open(DSN(cfg.Host, cfg.Port, cfg.Database)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
		}
		return db, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("db: create data dir for %s: %w", cfg.Path, err)
		}
		db, err := gorm.Open(sqlite.Open(cfg.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open %s: %w", cfg.Path, err)
		}
		return db, nil
	}
}
