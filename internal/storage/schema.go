package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema version tracking, stored in PRAGMA user_version
const currentSchemaVersion = 1

// ensureSchema declares both tables and their indexes. Every statement is
// IF NOT EXISTS, so concurrent openers of one file are harmless.
func (db *DB) ensureSchema(ctx context.Context) error {
	version, err := db.getSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := createStabilizerResultsTable(ctx, tx); err != nil {
			return err
		}
		if err := createDbgInfoTable(ctx, tx); err != nil {
			return err
		}

		if version < currentSchemaVersion {
			if err := setSchemaVersion(ctx, tx, currentSchemaVersion); err != nil {
				return err
			}
			db.logger.Debug("Database schema initialized",
				"path", db.dbPath,
				"version", currentSchemaVersion,
			)
		}
		return nil
	})
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := db.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(ctx context.Context, tx *sql.Tx, version int) error {
	// PRAGMA does not accept bound parameters
	_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}

// createStabilizerResultsTable creates the StabilizerResults table, one row
// per canonical input.
func createStabilizerResultsTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS StabilizerResults (
			id INTEGER PRIMARY KEY,
			cmdin TEXT UNIQUE NOT NULL,
			cmdout TEXT NOT NULL,
			errin DOUBLE NOT NULL,
			errout DOUBLE NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create StabilizerResults table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_stabilizer_results_cmdin ON StabilizerResults(cmdin)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// createDbgInfoTable creates the DbgInfo provenance table. Rows are only
// ever appended.
func createDbgInfoTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS DbgInfo (
			id INTEGER PRIMARY KEY,
			resid INTEGER NOT NULL REFERENCES StabilizerResults(id),
			dbgComments TEXT,
			modName TEXT,
			functionName TEXT,
			functionType TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create DbgInfo table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_dbginfo_resid ON DbgInfo(resid)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}
