package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // Postgres driver
	"github.com/shopspring/decimal"

	"github.com/mfierro/gastos/internal/common"
	"github.com/mfierro/gastos/internal/config"
	"github.com/mfierro/gastos/internal/model"
)

//go:embed schema_postgres.sql
var postgresSchema embed.FS

// PostgresStorage implements the Storage interface using Postgres.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new Postgres storage instance.
func NewPostgresStorage(cfg config.DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	schema, err := postgresSchema.ReadFile("schema_postgres.sql")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// UpsertConfirmed inserts or updates a record in the confirmed table.
func (s *PostgresStorage) UpsertConfirmed(ctx context.Context, rec *model.ExpenseRecord) error {
	return s.upsert(ctx, confirmedTable, rec)
}

// UpsertPending inserts or updates a record in the pending-clarification table.
func (s *PostgresStorage) UpsertPending(ctx context.Context, rec *model.ExpenseRecord) error {
	return s.upsert(ctx, pendingTable, rec)
}

func (s *PostgresStorage) upsert(ctx context.Context, table string, rec *model.ExpenseRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (wid) DO UPDATE SET
			ts = EXCLUDED.ts,
			body = EXCLUDED.body,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			category = EXCLUDED.category,
			meta_json = EXCLUDED.meta_json`, table, recordColumns)

	_, err := s.db.ExecContext(ctx, query,
		rec.WID,
		rec.ChatID,
		rec.ChatName,
		rec.SenderID,
		rec.SenderName,
		rec.Timestamp,
		rec.Type,
		rec.Body,
		rec.Amount,
		rec.Currency,
		string(rec.Category),
		rec.MetaJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s into %s: %w", rec.WID, table, err)
	}
	return nil
}

// Promote moves a pending record into the confirmed table with the supplied
// category, deleting the pending row after the confirmed write succeeds.
func (s *PostgresStorage) Promote(ctx context.Context, wid string, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(wid, "wid"); err != nil {
		return err
	}

	rec, err := s.getRecord(ctx, pendingTable, wid)
	if err != nil {
		return err
	}

	rec.Category = category
	if err := s.upsert(ctx, confirmedTable, rec); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_messages WHERE wid = $1`, wid); err != nil {
		return fmt.Errorf("failed to delete pending record %s: %w", wid, err)
	}
	return nil
}

// ListConfirmed returns confirmed records, newest first.
func (s *PostgresStorage) ListConfirmed(ctx context.Context, limit int) ([]model.ExpenseRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM messages ORDER BY ts DESC LIMIT $1`, recordColumns)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// GetConfirmed returns the confirmed record for wid.
func (s *PostgresStorage) GetConfirmed(ctx context.Context, wid string) (*model.ExpenseRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(wid, "wid"); err != nil {
		return nil, err
	}
	return s.getRecord(ctx, confirmedTable, wid)
}

// ListPending returns pending records, newest first, deleting stale rows
// left behind by an interrupted promotion.
func (s *PostgresStorage) ListPending(ctx context.Context) ([]model.ExpenseRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_messages WHERE wid IN (SELECT wid FROM messages)`); err != nil {
		return nil, fmt.Errorf("failed to reconcile stale pending records: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM pending_messages ORDER BY ts DESC`, recordColumns)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// Summary aggregates the confirmed table.
func (s *PostgresStorage) Summary(ctx context.Context) (*model.Summary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		count  int64
		total  sql.NullString
		lastTS sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(amount), MAX(ts) FROM messages`).Scan(&count, &total, &lastTS)
	if err != nil {
		return nil, fmt.Errorf("failed to compute summary: %w", err)
	}

	summary := &model.Summary{MessageCount: count}
	if total.Valid {
		// NUMERIC sums exactly; scanning as a string keeps it decimal.
		summary.TotalAmount, err = decimal.NewFromString(total.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse summary total %q: %w", total.String, err)
		}
	}
	if lastTS.Valid {
		summary.LastMessageTS = &lastTS.Int64
	}
	return summary, nil
}

func (s *PostgresStorage) getRecord(ctx context.Context, table, wid string) (*model.ExpenseRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE wid = $1`, recordColumns, table)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, wid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", wid, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get record %s from %s: %w", wid, table, err)
	}
	return rec, nil
}
