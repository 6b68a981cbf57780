// Package db holds the embedded DuckDB engine used to write ideas to local
// analytics formats.
package db

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	dbInstance *sql.DB
	dbOnce     sync.Once
	dbErr      error
)

// GetDB returns a singleton in-memory DuckDB connection
func GetDB() (*sql.DB, error) {
	dbOnce.Do(func() {
		dbInstance, dbErr = initializeDuckDB()
	})
	return dbInstance, dbErr
}

func initializeDuckDB() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	// Temp tables live on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to DuckDB: %w", err)
	}
	return db, nil
}

// loadExtension makes a bundled extension available on the connection
func loadExtension(db *sql.DB, name string) error {
	if _, err := db.Exec("INSTALL " + name); err != nil {
		return fmt.Errorf("failed to install %s extension: %w", name, err)
	}
	if _, err := db.Exec("LOAD " + name); err != nil {
		return fmt.Errorf("failed to load %s extension: %w", name, err)
	}
	return nil
}
