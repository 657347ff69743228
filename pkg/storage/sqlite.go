package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mailops/ses-guardian/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) RecordCheck(ctx context.Context, record *model.CheckRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_records (id, signal, status, action, utilization_percent, volume, max_volume,
		   critical_count, warning_count, ok_count, skipped, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, string(record.Signal), string(record.Status), string(record.Action),
		record.UtilizationPercent, record.Volume, record.MaxVolume,
		record.CriticalCount, record.WarningCount, record.OKCount,
		record.Skipped, record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert check record: %w", err)
	}
	return nil
}

func (s *SQLite) RecordDelivery(ctx context.Context, record *model.DeliveryRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (id, backend, identifier, status_code, dry_run, error, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Backend, record.Identifier,
		record.StatusCode, record.DryRun, record.Error, record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert delivery record: %w", err)
	}
	return nil
}

func (s *SQLite) ListChecks(ctx context.Context, filter model.HistoryFilter) ([]model.CheckRecord, error) {
	query := `SELECT id, signal, status, action, utilization_percent, volume, max_volume,
		critical_count, warning_count, ok_count, skipped, timestamp FROM check_records`
	where, args := buildCheckWhere(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	var records []model.CheckRecord
	for rows.Next() {
		var r model.CheckRecord
		var signal, status, action string
		if err := rows.Scan(&r.ID, &signal, &status, &action,
			&r.UtilizationPercent, &r.Volume, &r.MaxVolume,
			&r.CriticalCount, &r.WarningCount, &r.OKCount,
			&r.Skipped, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan check row: %w", err)
		}
		r.Signal = model.Signal(signal)
		r.Status = model.Status(status)
		r.Action = model.Action(action)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) ListDeliveries(ctx context.Context, filter model.HistoryFilter) ([]model.DeliveryRecord, error) {
	query := "SELECT id, backend, identifier, status_code, dry_run, error, timestamp FROM deliveries"
	where, args := buildDeliveryWhere(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var records []model.DeliveryRecord
	for rows.Next() {
		var r model.DeliveryRecord
		if err := rows.Scan(&r.ID, &r.Backend, &r.Identifier,
			&r.StatusCode, &r.DryRun, &r.Error, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan delivery row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildCheckWhere constructs a SQL WHERE clause from a HistoryFilter.
func buildCheckWhere(filter model.HistoryFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Signal != "" {
		conditions = append(conditions, "signal = ?")
		args = append(args, string(filter.Signal))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.StartTime.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, filter.EndTime)
	}

	return strings.Join(conditions, " AND "), args
}

func buildDeliveryWhere(filter model.HistoryFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Backend != "" {
		conditions = append(conditions, "backend = ?")
		args = append(args, filter.Backend)
	}
	if !filter.StartTime.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, filter.EndTime)
	}

	return strings.Join(conditions, " AND "), args
}
