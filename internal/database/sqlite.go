package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openSQLite opens a file-backed or shared in-memory database. Foreign keys
// are enforced, and writers wait out short lock contention via busy_timeout
// instead of surfacing SQLITE_BUSY.
func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		var err error
		if dsn, err = sqliteDSN(cfg.Path); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	return db, nil
}

// sqliteDSN maps the configured path onto a DSN. An empty or ":memory:"
// path yields a shared in-memory database; test fixtures rely on that.
func sqliteDSN(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		return "file::memory:?cache=shared&_foreign_keys=1", nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	return fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", filepath.ToSlash(path)), nil
}
