package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/database"
	"github.com/xxxsen/common/database/sqlite"
)

var defaultDB database.IDatabase

const (
	createTableSQL = `
CREATE TABLE IF NOT EXISTS sample_rename_tab (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	digest VARCHAR(64) NOT NULL,
	original_name VARCHAR(1024) NOT NULL,
	folder VARCHAR(4096) NOT NULL,
	file_size INTEGER NOT NULL,
	create_time BIGINT NOT NULL
);`

	createIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_sample_rename_tab_digest
ON sample_rename_tab(digest);`
)

// Open opens the sqlite journal at path. With create set, the file and its
// parent directory are created when missing; otherwise a missing file is an
// error wrapping fs.ErrNotExist.
func Open(ctx context.Context, path string, create bool) (database.IDatabase, error) {
	mode := "rw"
	if create {
		mode = "rwc"
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	} else if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("journal %s: %w", path, err)
		}
		return nil, fmt.Errorf("stat journal %s: %w", path, err)
	}

	db, err := sqlite.New(path+"?mode="+mode, func(db database.IDatabase) error {
		if err := EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return fmt.Errorf("init journal schema: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return db, nil
}

// SetDefault assigns the global database instance.
func SetDefault(db database.IDatabase) {
	defaultDB = db
}

// Default returns the configured global database instance.
func Default() database.IDatabase {
	return defaultDB
}

// EnsureSchema initialises required tables and indexes.
func EnsureSchema(ctx context.Context, db database.IDatabase) error {
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, createIndexSQL); err != nil {
		return err
	}
	return nil
}
