// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const recordColumns = `id, user_id, date, name, company, location, start_time, end_time,
	day_hours, night_hours, late_night_hours, extra_amount, memo, created_at`

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection keeps writes from
	// failing with SQLITE_BUSY and keeps per-connection pragmas in effect.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListRecords returns every work record, newest date first.
func (s *SQLiteStore) ListRecords(ctx context.Context) ([]models.WorkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM work_records ORDER BY date DESC, created_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []models.WorkRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

// GetRecord retrieves a work record by ID.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*models.WorkRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM work_records WHERE id = ?",
		id,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CreateRecord persists a new work record.
func (s *SQLiteStore) CreateRecord(ctx context.Context, record *models.WorkRecord) error {
	// Generate IDs if not set
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO work_records (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, nullString(record.UserID), record.Date.String(),
		record.Name, record.Company, record.Location,
		record.StartTime, record.EndTime,
		record.DayHours, record.NightHours, record.LateNightHours,
		record.ExtraAmount, nullString(record.Memo), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// UpdateRecord replaces the editable fields of a work record.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, record *models.WorkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE work_records
		 SET date = ?, name = ?, company = ?, location = ?, start_time = ?, end_time = ?,
		     day_hours = ?, night_hours = ?, late_night_hours = ?, extra_amount = ?, memo = ?
		 WHERE id = ?`,
		record.Date.String(), record.Name, record.Company, record.Location,
		record.StartTime, record.EndTime,
		record.DayHours, record.NightHours, record.LateNightHours,
		record.ExtraAmount, nullString(record.Memo),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if err := requireAffected(result, "record", record.ID); err != nil {
		return err
	}

	// Re-read so the caller sees the preserved owner and creation time.
	updated, err := scanRecord(tx.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM work_records WHERE id = ?",
		record.ID,
	))
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	*record = *updated
	return nil
}

// DeleteRecord removes a work record by ID.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM work_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return requireAffected(result, "record", id)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one work record and applies optional-field defaults.
func scanRecord(row rowScanner) (*models.WorkRecord, error) {
	var (
		record    models.WorkRecord
		userID    sql.NullString
		date      string
		night     sql.NullFloat64
		lateNight sql.NullFloat64
		amount    sql.NullInt64
		memo      sql.NullString
	)
	err := row.Scan(
		&record.ID, &userID, &date,
		&record.Name, &record.Company, &record.Location,
		&record.StartTime, &record.EndTime,
		&record.DayHours, &night, &lateNight, &amount, &memo,
		&record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	record.UserID = userID.String
	record.Date, err = models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", record.ID, err)
	}

	var optional models.Optional
	if night.Valid {
		optional.NightHours = &night.Float64
	}
	if lateNight.Valid {
		optional.LateNightHours = &lateNight.Float64
	}
	if amount.Valid {
		optional.ExtraAmount = &amount.Int64
	}
	if memo.Valid {
		optional.Memo = &memo.String
	}
	record.ApplyOptional(optional)

	return &record, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
