package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mfierro/gastos/internal/common"
	"github.com/mfierro/gastos/internal/model"
)

const (
	confirmedTable = "messages"
	pendingTable   = "pending_messages"
)

// recordColumns is the shared column set of both tables, in scan order.
const recordColumns = "wid, chat_id, chat_name, sender_id, sender_name, ts, type, body, amount, currency, category, meta_json"

// UpsertConfirmed inserts or updates a record in the confirmed table.
func (s *SQLiteStorage) UpsertConfirmed(ctx context.Context, rec *model.ExpenseRecord) error {
	return s.upsert(ctx, confirmedTable, rec)
}

// UpsertPending inserts or updates a record in the pending-clarification table.
func (s *SQLiteStorage) UpsertPending(ctx context.Context, rec *model.ExpenseRecord) error {
	return s.upsert(ctx, pendingTable, rec)
}

func (s *SQLiteStorage) upsert(ctx context.Context, table string, rec *model.ExpenseRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(wid) DO UPDATE SET
			ts=excluded.ts,
			body=excluded.body,
			amount=excluded.amount,
			currency=excluded.currency,
			category=excluded.category,
			meta_json=excluded.meta_json`, table, recordColumns)

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
// category. The pending row is deleted only after the confirmed write has
// landed; a crash between the two leaves a stale pending row that reads
// reconcile lazily.
func (s *SQLiteStorage) Promote(ctx context.Context, wid string, category model.Category) error {
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

	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_messages WHERE wid = ?`, wid); err != nil {
		return fmt.Errorf("failed to delete pending record %s: %w", wid, err)
	}
	return nil
}

// ListConfirmed returns confirmed records, newest first.
func (s *SQLiteStorage) ListConfirmed(ctx context.Context, limit int) ([]model.ExpenseRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM messages ORDER BY ts DESC LIMIT ?`, recordColumns)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// GetConfirmed returns the confirmed record for wid.
func (s *SQLiteStorage) GetConfirmed(ctx context.Context, wid string) (*model.ExpenseRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(wid, "wid"); err != nil {
		return nil, err
	}
	return s.getRecord(ctx, confirmedTable, wid)
}

// ListPending returns pending records, newest first. Pending rows whose wid
// already exists in the confirmed table are leftovers of an interrupted
// promotion; they are deleted here rather than surfaced.
func (s *SQLiteStorage) ListPending(ctx context.Context) ([]model.ExpenseRecord, error) {
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
func (s *SQLiteStorage) Summary(ctx context.Context) (*model.Summary, error) {
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
		// Scanned as a string so the value stays decimal all the way out.
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

func (s *SQLiteStorage) getRecord(ctx context.Context, table, wid string) (*model.ExpenseRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE wid = ?`, recordColumns, table)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, wid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", wid, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get record %s from %s: %w", wid, table, err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.ExpenseRecord, error) {
	var (
		rec      model.ExpenseRecord
		category string
	)
	err := row.Scan(
		&rec.WID,
		&rec.ChatID,
		&rec.ChatName,
		&rec.SenderID,
		&rec.SenderName,
		&rec.Timestamp,
		&rec.Type,
		&rec.Body,
		&rec.Amount,
		&rec.Currency,
		&category,
		&rec.MetaJSON,
	)
	if err != nil {
		return nil, err
	}
	rec.Category = model.Category(category)
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]model.ExpenseRecord, error) {
	var records []model.ExpenseRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}
