// Package storage is the SQLite layer under the stabilizer cache. It owns the
// StabilizerResults and DbgInfo tables; the swallow-and-log policy lives one
// level up in internal/cache.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"fpstab/internal/paths"
)

// ErrNoDatabase is returned by OpenExisting when the cache file is absent.
var ErrNoDatabase = errors.New("cache database does not exist")

// DB represents a database connection with transaction helpers
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// Open opens or creates <cacheRoot>/stabilizer.db, creating cacheRoot if
// needed. The tables are (re)declared on every open.
func Open(ctx context.Context, cacheRoot string, logger *slog.Logger) (*DB, error) {
	if err := paths.EnsureDir(cacheRoot); err != nil {
		return nil, err
	}
	return open(ctx, paths.DatabasePath(cacheRoot), logger)
}

// OpenExisting is Open for read paths: it returns ErrNoDatabase instead of
// creating a missing database file.
func OpenExisting(ctx context.Context, cacheRoot string, logger *slog.Logger) (*DB, error) {
	dbPath := paths.DatabasePath(cacheRoot)
	if !fileExists(dbPath) {
		return nil, ErrNoDatabase
	}
	return open(ctx, dbPath, logger)
}

func open(ctx context.Context, dbPath string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}

	if err := db.ensureSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.dbPath
}

// WithTx executes a function within a transaction
// If the function returns an error, the transaction is rolled back
// Otherwise, the transaction is committed
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction",
				"error", err.Error(),
				"rollback_error", rbErr.Error(),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// pragmas are applied by the driver to every new connection.
var pragmas = []string{
	"busy_timeout(5000)",  // Wait up to 5 seconds on lock
	"journal_mode(WAL)",   // Readers do not block the writer
	"synchronous(NORMAL)", // Balance between safety and performance
	"foreign_keys(1)",     // DbgInfo.resid must reference a result
}

// dsn builds the driver URI. Transactions begin IMMEDIATE so that a writer
// waits on busy_timeout instead of failing on lock upgrade.
func dsn(dbPath string) string {
	q := url.Values{}
	q.Set("_txlock", "immediate")
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + dbPath + "?" + q.Encode()
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
