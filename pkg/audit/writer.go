package audit

import (
	"context"
	"fmt"

	"github.com/courtline/audittrail/pkg/observability"
)

// Writer persists audit records through the storage collaborator. Failures
// are logged and counted here; callers on the mutation hot path discard
// the returned error so audit persistence never becomes a new failure mode
// for the operation being observed.
type Writer struct {
	store   Store
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewWriter creates a writer over the given store. metrics may be nil.
func NewWriter(store Store, log *observability.Logger, metrics *observability.Metrics) *Writer {
	return &Writer{
		store:   store,
		log:     log,
		metrics: metrics,
	}
}

// Write persists a single audit record
func (w *Writer) Write(ctx context.Context, rec *Record) error {
	if rec == nil {
		return nil
	}

	if err := w.store.InsertRecord(ctx, rec); err != nil {
		w.observeFailure(rec, err)
		return fmt.Errorf("insert audit record: %w", err)
	}

	if w.metrics != nil {
		w.metrics.AuditRecordsWritten.WithLabelValues(rec.TableName, string(rec.Operation)).Inc()
	}
	return nil
}

// WriteBatch persists many audit records as one storage operation. An
// empty batch is a no-op success and performs no storage call. Creation
// timestamps are normalized to be non-decreasing in insertion order before
// the write.
func (w *Writer) WriteBatch(ctx context.Context, recs []*Record) error {
	if len(recs) == 0 {
		return nil
	}

	for i := 1; i < len(recs); i++ {
		if recs[i].CreatedAt.Before(recs[i-1].CreatedAt) {
			recs[i].CreatedAt = recs[i-1].CreatedAt
		}
	}

	if err := w.store.InsertRecords(ctx, recs); err != nil {
		for _, rec := range recs {
			w.observeFailure(rec, err)
		}
		return fmt.Errorf("insert audit record batch of %d: %w", len(recs), err)
	}

	if w.metrics != nil {
		w.metrics.AuditBatchSize.Observe(float64(len(recs)))
		for _, rec := range recs {
			w.metrics.AuditRecordsWritten.WithLabelValues(rec.TableName, string(rec.Operation)).Inc()
		}
	}
	return nil
}

// observeFailure logs a failed write with enough context to reconcile the
// missing history entry by hand.
func (w *Writer) observeFailure(rec *Record, err error) {
	w.log.WithError(err).WithFields(map[string]interface{}{
		"table":     rec.TableName,
		"record_id": rec.RecordID,
		"operation": rec.Operation,
	}).Error("Failed to persist audit record")

	if w.metrics != nil {
		w.metrics.AuditWriteFailures.WithLabelValues(rec.TableName, string(rec.Operation)).Inc()
	}
}
