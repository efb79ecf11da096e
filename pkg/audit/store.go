package audit

import (
	"context"
	"time"
)

// RecordFilter selects audit records for history queries. Zero-valued
// fields are ignored. Results are always ordered by creation timestamp,
// oldest first.
type RecordFilter struct {
	// Record identity filters
	Table    string
	RecordID string

	// Actor filter
	ActorID string

	// Time range (inclusive on both ends)
	Start *time.Time
	End   *time.Time

	// Operation filters (any of)
	Operations []Operation

	// Limit caps the number of returned records; 0 means no cap
	Limit int
}

// Store is the persistence collaborator for audit records and retention
// policies. Implementations provide their own per-statement atomicity;
// this package adds no locking of its own.
//
// InsertRecords must submit the whole batch as a single storage operation
// where the backend supports it; partial success is not modeled.
type Store interface {
	// InsertRecord persists one audit record
	InsertRecord(ctx context.Context, rec *Record) error

	// InsertRecords persists a batch of audit records in one operation
	InsertRecords(ctx context.Context, recs []*Record) error

	// SelectRecords returns records matching the filter, ordered by
	// creation timestamp ascending
	SelectRecords(ctx context.Context, filter RecordFilter) ([]*Record, error)

	// CountByTableOperation aggregates record counts grouped by
	// (table, operation) for records created within [start, end]
	CountByTableOperation(ctx context.Context, start, end time.Time) ([]OperationStat, error)

	// DeleteRecordsBefore deletes all records for table created strictly
	// before cutoff and returns the number deleted
	DeleteRecordsBefore(ctx context.Context, table string, cutoff time.Time) (int64, error)

	// ListRetentionPolicies returns all configured retention policies
	ListRetentionPolicies(ctx context.Context) ([]RetentionPolicy, error)

	// TouchRetentionPolicy records the completion time of a cleanup sweep
	TouchRetentionPolicy(ctx context.Context, table string, at time.Time) error
}
