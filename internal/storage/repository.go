package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"stockflow/internal/core"
	"stockflow/internal/ports"

	_ "modernc.org/sqlite"
)

var (
	_ ports.RecordStore = (*SQLiteRepository)(nil)
	_ ports.Versioner   = (*SQLiteRepository)(nil)
)

const recordColumns = `id, record_type, name, category, purchase_price, purchase_date,
	misc_expense, consumable_expense, selling_price, sold_date, status, memo, created_at`

const upsertRecord = `
	INSERT INTO records (` + recordColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		record_type = excluded.record_type,
		name = excluded.name,
		category = excluded.category,
		purchase_price = excluded.purchase_price,
		purchase_date = excluded.purchase_date,
		misc_expense = excluded.misc_expense,
		consumable_expense = excluded.consumable_expense,
		selling_price = excluded.selling_price,
		sold_date = excluded.sold_date,
		status = excluded.status,
		memo = excluded.memo,
		created_at = excluded.created_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetAll implements ports.RecordReader
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Get returns a single record; the boolean is false when the id is unknown.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Record, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return core.Record{}, false, nil
	}
	if err != nil {
		return core.Record{}, false, err
	}
	return rec, true, nil
}

// Upsert implements ports.RecordWriter
func (r *SQLiteRepository) Upsert(ctx context.Context, rec core.Record) error {
	if err := upsert(ctx, r.db, rec); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Record saved to SQLite",
		"id", rec.ID,
		"record_type", rec.RecordType,
		"status", rec.Status)
	return nil
}

// Delete implements ports.RecordWriter
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		slog.DebugContext(ctx, "Delete of unknown record ignored", "id", id)
	}
	return nil
}

// ReplaceAll implements ports.RecordWriter
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, records []core.Record) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
		for _, rec := range records {
			if err := upsert(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertMany implements ports.RecordWriter
func (r *SQLiteRepository) InsertMany(ctx context.Context, records []core.Record) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			if err := upsert(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of stored records.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// DataVersion returns the write counter maintained by triggers on the
// records table. Every process sharing the database file sees the same value.
func (r *SQLiteRepository) DataVersion(ctx context.Context) (uint64, error) {
	var v int64
	if err := r.db.QueryRowContext(ctx, `SELECT version FROM records_version WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read data version: %w", err)
	}
	return uint64(v), nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func upsert(ctx context.Context, db execer, rec core.Record) error {
	var selling, soldDate sql.NullString
	if rec.SellingPrice.Valid {
		selling = sql.NullString{String: rec.SellingPrice.Decimal.String(), Valid: true}
	}
	if rec.SoldDate != nil {
		soldDate = sql.NullString{String: *rec.SoldDate, Valid: true}
	}

	_, err := db.ExecContext(ctx, upsertRecord,
		rec.ID,
		string(rec.RecordType),
		rec.Name,
		string(rec.Category),
		rec.PurchasePrice.String(),
		rec.PurchaseDate,
		rec.MiscExpense.String(),
		rec.ConsumableExpense.String(),
		selling,
		soldDate,
		string(rec.Status),
		rec.Memo,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (core.Record, error) {
	var (
		rec                          core.Record
		recordType, category, status string
		purchase, misc, consumable   string
		selling, soldDate            sql.NullString
	)
	err := s.Scan(
		&rec.ID, &recordType, &rec.Name, &category, &purchase, &rec.PurchaseDate,
		&misc, &consumable, &selling, &soldDate, &status, &rec.Memo, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return core.Record{}, err
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("scan record: %w", err)
	}

	rec.RecordType = core.RecordType(recordType)
	rec.Category = core.Category(category)
	rec.Status = core.Status(status)

	if rec.PurchasePrice, err = decimal.NewFromString(purchase); err != nil {
		return core.Record{}, fmt.Errorf("record %s purchase_price: %w", rec.ID, err)
	}
	if rec.MiscExpense, err = decimal.NewFromString(misc); err != nil {
		return core.Record{}, fmt.Errorf("record %s misc_expense: %w", rec.ID, err)
	}
	if rec.ConsumableExpense, err = decimal.NewFromString(consumable); err != nil {
		return core.Record{}, fmt.Errorf("record %s consumable_expense: %w", rec.ID, err)
	}
	if selling.Valid {
		d, err := decimal.NewFromString(selling.String)
		if err != nil {
			return core.Record{}, fmt.Errorf("record %s selling_price: %w", rec.ID, err)
		}
		rec.SellingPrice = decimal.NewNullDecimal(d)
	}
	if soldDate.Valid {
		v := soldDate.String
		rec.SoldDate = &v
	}
	return rec, nil
}
