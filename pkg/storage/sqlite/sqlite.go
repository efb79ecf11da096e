// Package sqlite implements the audit store over SQLite for embedded and
// single-binary deployments. It mirrors the PostgreSQL backend's contract
// with JSON stored as TEXT.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/courtline/audittrail/pkg/audit"
)

const recordColumns = `id, table_name, record_id, operation,
		actor_id, actor_email, actor_role,
		old_values, new_values, changed_fields,
		ip_address, user_agent, request_id, session_id,
		reason, source, created_at`

const numRecordColumns = 17

// Store persists audit records and retention policies in SQLite
type Store struct {
	db *sql.DB
}

// New creates a SQLite-backed audit store and ensures its schema
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit schema: %w", err)
	}

	return s, nil
}

func (s *Store) ensureSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		table_name TEXT NOT NULL,
		record_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		actor_id TEXT,
		actor_email TEXT,
		actor_role TEXT,
		old_values TEXT,
		new_values TEXT,
		changed_fields TEXT,
		ip_address TEXT,
		user_agent TEXT,
		request_id TEXT,
		session_id TEXT,
		reason TEXT,
		source TEXT NOT NULL DEFAULT 'web',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_logs_table_record ON audit_logs(table_name, record_id);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_created ON audit_logs(actor_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at);

	CREATE TABLE IF NOT EXISTS data_retention_policies (
		table_name TEXT PRIMARY KEY,
		retention_days INTEGER NOT NULL,
		archive_before_delete INTEGER NOT NULL DEFAULT 1,
		is_active INTEGER NOT NULL DEFAULT 1,
		last_cleanup_at TIMESTAMP
	);
	`

	_, err := s.db.Exec(query)
	return err
}

// InsertRecord persists one audit record
func (s *Store) InsertRecord(ctx context.Context, rec *audit.Record) error {
	args, err := recordArgs(rec)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT INTO audit_logs (%s) VALUES (%s)",
		recordColumns, placeholders(numRecordColumns))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// InsertRecords persists a batch as a single multi-row INSERT
func (s *Store) InsertRecords(ctx context.Context, recs []*audit.Record) error {
	if len(recs) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(recs))
	args := make([]interface{}, 0, len(recs)*numRecordColumns)

	for _, rec := range recs {
		recArgs, err := recordArgs(rec)
		if err != nil {
			return err
		}
		valueStrings = append(valueStrings, "("+placeholders(numRecordColumns)+")")
		args = append(args, recArgs...)
	}

	query := fmt.Sprintf("INSERT INTO audit_logs (%s) VALUES %s",
		recordColumns, strings.Join(valueStrings, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert audit record batch: %w", err)
	}
	return nil
}

// SelectRecords returns records matching the filter, oldest first
func (s *Store) SelectRecords(ctx context.Context, filter audit.RecordFilter) ([]*audit.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM audit_logs WHERE 1=1", recordColumns)
	args := []interface{}{}

	if filter.Table != "" {
		query += " AND table_name = ?"
		args = append(args, filter.Table)
	}
	if filter.RecordID != "" {
		query += " AND record_id = ?"
		args = append(args, filter.RecordID)
	}
	if filter.ActorID != "" {
		query += " AND actor_id = ?"
		args = append(args, filter.ActorID)
	}
	if filter.Start != nil {
		query += " AND created_at >= ?"
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		query += " AND created_at <= ?"
		args = append(args, *filter.End)
	}
	if len(filter.Operations) > 0 {
		query += " AND operation IN (" + placeholders(len(filter.Operations)) + ")"
		for _, op := range filter.Operations {
			args = append(args, string(op))
		}
	}

	query += " ORDER BY created_at ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select audit records: %w", err)
	}
	defer rows.Close()

	recs := make([]*audit.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit records: %w", err)
	}

	return recs, nil
}

// CountByTableOperation aggregates counts grouped by (table, operation)
func (s *Store) CountByTableOperation(ctx context.Context, start, end time.Time) ([]audit.OperationStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, operation, COUNT(*)
		FROM audit_logs
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY table_name, operation
		ORDER BY table_name, operation`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate audit statistics: %w", err)
	}
	defer rows.Close()

	stats := make([]audit.OperationStat, 0)
	for rows.Next() {
		var stat audit.OperationStat
		if err := rows.Scan(&stat.TableName, &stat.Operation, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan audit statistics: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit statistics: %w", err)
	}

	return stats, nil
}

// DeleteRecordsBefore deletes records for table created before cutoff
func (s *Store) DeleteRecordsBefore(ctx context.Context, table string, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_logs WHERE table_name = ? AND created_at < ?", table, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted audit records: %w", err)
	}

	return deleted, nil
}

// ListRetentionPolicies returns all configured retention policies
func (s *Store) ListRetentionPolicies(ctx context.Context) ([]audit.RetentionPolicy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, retention_days, archive_before_delete, is_active, last_cleanup_at
		FROM data_retention_policies
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list retention policies: %w", err)
	}
	defer rows.Close()

	policies := make([]audit.RetentionPolicy, 0)
	for rows.Next() {
		var policy audit.RetentionPolicy
		var lastCleanup sql.NullTime

		if err := rows.Scan(&policy.TableName, &policy.RetentionDays, &policy.ArchiveBeforeDelete, &policy.Active, &lastCleanup); err != nil {
			return nil, fmt.Errorf("failed to scan retention policy: %w", err)
		}
		if lastCleanup.Valid {
			policy.LastCleanupAt = &lastCleanup.Time
		}
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating retention policies: %w", err)
	}

	return policies, nil
}

// TouchRetentionPolicy records the completion time of a cleanup sweep
func (s *Store) TouchRetentionPolicy(ctx context.Context, table string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE data_retention_policies SET last_cleanup_at = ? WHERE table_name = ?", at, table); err != nil {
		return fmt.Errorf("failed to touch retention policy: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func recordArgs(rec *audit.Record) ([]interface{}, error) {
	var oldJSON, newJSON, changedJSON []byte
	var err error

	if rec.OldValues != nil {
		if oldJSON, err = json.Marshal(rec.OldValues); err != nil {
			return nil, fmt.Errorf("failed to marshal old values: %w", err)
		}
	}
	if rec.NewValues != nil {
		if newJSON, err = json.Marshal(rec.NewValues); err != nil {
			return nil, fmt.Errorf("failed to marshal new values: %w", err)
		}
	}
	if rec.ChangedFields != nil {
		if changedJSON, err = json.Marshal(rec.ChangedFields); err != nil {
			return nil, fmt.Errorf("failed to marshal changed fields: %w", err)
		}
	}

	return []interface{}{
		rec.ID, rec.TableName, rec.RecordID, string(rec.Operation),
		rec.ActorID, rec.ActorEmail, rec.ActorRole,
		oldJSON, newJSON, changedJSON,
		rec.IPAddress, rec.UserAgent, rec.RequestID, rec.SessionID,
		rec.Reason, string(rec.Source), rec.CreatedAt,
	}, nil
}

func scanRecord(rows *sql.Rows) (*audit.Record, error) {
	rec := &audit.Record{}
	var oldJSON, newJSON, changedJSON []byte

	err := rows.Scan(
		&rec.ID, &rec.TableName, &rec.RecordID, &rec.Operation,
		&rec.ActorID, &rec.ActorEmail, &rec.ActorRole,
		&oldJSON, &newJSON, &changedJSON,
		&rec.IPAddress, &rec.UserAgent, &rec.RequestID, &rec.SessionID,
		&rec.Reason, &rec.Source, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit record: %w", err)
	}

	if len(oldJSON) > 0 {
		if err := json.Unmarshal(oldJSON, &rec.OldValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal old values: %w", err)
		}
	}
	if len(newJSON) > 0 {
		if err := json.Unmarshal(newJSON, &rec.NewValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal new values: %w", err)
		}
	}
	if len(changedJSON) > 0 {
		if err := json.Unmarshal(changedJSON, &rec.ChangedFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changed fields: %w", err)
		}
	}

	return rec, nil
}
