package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 1

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS messages (
					wid TEXT PRIMARY KEY,
					chat_id TEXT NOT NULL DEFAULT '',
					chat_name TEXT NOT NULL DEFAULT '',
					sender_id TEXT NOT NULL DEFAULT '',
					sender_name TEXT NOT NULL DEFAULT '',
					ts INTEGER NOT NULL,
					type TEXT NOT NULL DEFAULT '',
					body TEXT NOT NULL DEFAULT '',
					amount NUMERIC NOT NULL,
					currency TEXT NOT NULL,
					category TEXT NOT NULL,
					meta_json TEXT NOT NULL DEFAULT '{}'
				)`,
				`CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts)`,

				`CREATE TABLE IF NOT EXISTS pending_messages (
					wid TEXT PRIMARY KEY,
					chat_id TEXT NOT NULL DEFAULT '',
					chat_name TEXT NOT NULL DEFAULT '',
					sender_id TEXT NOT NULL DEFAULT '',
					sender_name TEXT NOT NULL DEFAULT '',
					ts INTEGER NOT NULL,
					type TEXT NOT NULL DEFAULT '',
					body TEXT NOT NULL DEFAULT '',
					amount NUMERIC NOT NULL,
					currency TEXT NOT NULL,
					category TEXT NOT NULL,
					meta_json TEXT NOT NULL DEFAULT '{}'
				)`,
				`CREATE INDEX IF NOT EXISTS idx_pending_messages_ts ON pending_messages(ts)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate runs all pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		// PRAGMA does not accept bind parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
