package database

import (
	"fmt"
	"os"
	"path/filepath"

	"notifier-go/internal/config"
	"notifier-go/internal/notify"
)

// NewDatabaseFromConfig creates a Database implementation based on the
// database config type. In-memory databases get the schema applied
// directly; file databases are expected to be migrated.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, hostID string) (notify.Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, hostID+".db")
		return NewSQLiteDatabase(dbPath)
	case "memory":
		db, err := NewSQLiteDatabase(":memory:")
		if err != nil {
			return nil, err
		}
		if err := db.MigrateUp(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
