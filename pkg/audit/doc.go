// Package audit records a durable, queryable history entry for every
// observed mutation against the application's persistent store: what
// changed, who changed it, and why.
//
// # Design
//
// Audit logging is best-effort and strictly subordinate to the operation
// it observes. Exactly one failure class crosses this package's boundary:
// the error of the wrapped operation itself, passed through unchanged.
// Every audit-specific failure is logged and absorbed.
//
// # Recording mutations
//
// Wrap every mutating persistence call with WithAudit. The mutation runs
// synchronously; the audit record is built and written on a detached
// goroutine after the outcome is known:
//
//	rec, err := audit.WithAudit(recorder, ctx, audit.Mutation{
//		Table:     "reservations",
//		RecordID:  res.ID,
//		Operation: audit.OperationUpdate,
//		Context:   audit.ContextFrom(ctx),
//		OldValues: before,
//		NewValues: after,
//	}, func(ctx context.Context) (*Reservation, error) {
//		return repo.Update(ctx, res)
//	})
//
// # Querying history
//
// History serves compliance reads by record, by actor, or as aggregate
// statistics. Storage failures on the read path degrade to empty results:
//
//	recs := history.ByRecord(ctx, "reservations", "R1", 0)
//
// # Retention
//
// Retention deletes records older than each table's persisted policy
// window. Cleanup is idempotent; failures report zero deletions and never
// reach the scheduler.
package audit
