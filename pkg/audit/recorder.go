package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/courtline/audittrail/pkg/observability"
)

// defaultWriteTimeout bounds each detached audit write so a hung storage
// collaborator cannot leak goroutines indefinitely.
const defaultWriteTimeout = 10 * time.Second

// Mutation describes one observed mutation attempt for audit purposes
type Mutation struct {
	Table     string
	RecordID  string
	Operation Operation
	Context   Context

	// Snapshots captured by the caller before/after the mutation
	OldValues map[string]interface{}
	NewValues map[string]interface{}
}

// Recorder schedules audit persistence off the caller's critical path.
// Each scheduled write runs on a detached goroutine with its own bounded
// context, so neither caller cancellation nor storage failure ever reaches
// the wrapped operation.
type Recorder struct {
	writer  *Writer
	log     *observability.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder dispatching through the given writer
func NewRecorder(writer *Writer, log *observability.Logger) *Recorder {
	return &Recorder{
		writer:  writer,
		log:     log,
		timeout: defaultWriteTimeout,
	}
}

// WithAudit runs op and schedules an audit record for it regardless of the
// outcome. The result or error of op is returned unchanged; the audit
// write is fire-and-forget relative to the caller. When op fails, the
// failure reason is appended to the record's reason field and the original
// error is still returned.
func WithAudit[T any](r *Recorder, ctx context.Context, m Mutation, op func(context.Context) (T, error)) (T, error) {
	result, err := op(ctx)
	if err != nil {
		failed := m
		failed.Context.Reason = appendReason(m.Context.Reason, fmt.Sprintf("operation failed: %v", err))
		r.Schedule(failed)
		return result, err
	}

	r.Schedule(m)
	return result, nil
}

// Schedule builds and writes the audit record for a mutation on a detached
// goroutine. Builder validation failures are logged and the record dropped;
// write failures are handled inside the writer. Nothing propagates back.
func (r *Recorder) Schedule(m Mutation) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.log.WithField("panic", p).Error("Panic in detached audit write")
			}
		}()

		rec, err := NewRecord(m.Table, m.RecordID, m.Operation, m.Context, m.OldValues, m.NewValues)
		if err != nil {
			r.log.WithError(err).WithFields(map[string]interface{}{
				"table":     m.Table,
				"record_id": m.RecordID,
			}).Warn("Dropping malformed audit record")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		// Failures are logged by the writer; there is no caller to
		// report them to on this path.
		_ = r.writer.Write(ctx, rec)
	}()
}

// Wait blocks until all scheduled audit writes have finished. Call it on
// shutdown to drain in-flight records.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func appendReason(reason, note string) string {
	if reason == "" {
		return note
	}
	return reason + "; " + note
}
