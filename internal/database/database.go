package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"drink-ledger/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// Init opens the relational store selected by cfg.Driver with basic tuning.
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Default
	if !cfg.LogMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	// connection pool
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(max(1, maxOpen/2))
	sqlDB.SetConnMaxLifetime(time.Hour)

	// an in-memory SQLite database lives and dies with its connection
	if isSQLite(cfg) && cfg.Path == MemoryPath {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	return db, nil
}

func isSQLite(cfg config.DatabaseConfig) bool {
	return cfg.Driver == "" || cfg.Driver == "sqlite"
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch {
	case isSQLite(cfg):
		if cfg.Path != MemoryPath {
			// ensure parent directory exists
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case cfg.Driver == "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database.dsn is required for postgres")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN 把 PRAGMA 写进 DSN，这样连接池里每个连接都会生效。
// _txlock=immediate 让写事务一开始就拿到写锁，避免并发事务读完再升级锁时失败。
func sqliteDSN(path string) string {
	params := []string{"_foreign_keys=on", "_txlock=immediate", "_busy_timeout=5000"}
	if path != MemoryPath {
		params = append(params, "_journal_mode=WAL", "_synchronous=NORMAL")
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}
