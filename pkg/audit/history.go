package audit

import (
	"context"
	"time"

	"github.com/courtline/audittrail/pkg/observability"
)

// Default result caps for history queries when the caller passes no limit
const (
	DefaultRecordHistoryLimit = 50
	DefaultActorHistoryLimit  = 100
)

// History provides read-only access over audit records. Every query fails
// open: on storage failure it logs and returns an empty result instead of
// an error. History queries are diagnostic, never load-bearing, and must
// not crash their caller.
type History struct {
	store   Store
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewHistory creates a history query service. metrics may be nil.
func NewHistory(store Store, log *observability.Logger, metrics *observability.Metrics) *History {
	return &History{
		store:   store,
		log:     log,
		metrics: metrics,
	}
}

// ByRecord returns the audit records for one logical entity, oldest first,
// capped at limit (DefaultRecordHistoryLimit when limit <= 0).
func (h *History) ByRecord(ctx context.Context, table, recordID string, limit int) []*Record {
	if limit <= 0 {
		limit = DefaultRecordHistoryLimit
	}

	recs, err := h.store.SelectRecords(ctx, RecordFilter{
		Table:    table,
		RecordID: recordID,
		Limit:    limit,
	})
	if err != nil {
		h.observeFailure("by_record", err, map[string]interface{}{
			"table":     table,
			"record_id": recordID,
		})
		return []*Record{}
	}

	h.observeQuery("by_record")
	return recs
}

// ByActor returns the audit records attributed to one actor across all
// tables, oldest first, capped at limit (DefaultActorHistoryLimit when
// limit <= 0).
func (h *History) ByActor(ctx context.Context, actorID string, limit int) []*Record {
	if limit <= 0 {
		limit = DefaultActorHistoryLimit
	}

	recs, err := h.store.SelectRecords(ctx, RecordFilter{
		ActorID: actorID,
		Limit:   limit,
	})
	if err != nil {
		h.observeFailure("by_actor", err, map[string]interface{}{
			"actor_id": actorID,
		})
		return []*Record{}
	}

	h.observeQuery("by_actor")
	return recs
}

// Statistics returns aggregate record counts grouped by (table, operation)
// for records created within [start, end].
func (h *History) Statistics(ctx context.Context, start, end time.Time) []OperationStat {
	stats, err := h.store.CountByTableOperation(ctx, start, end)
	if err != nil {
		h.observeFailure("statistics", err, map[string]interface{}{
			"start": start,
			"end":   end,
		})
		return []OperationStat{}
	}

	h.observeQuery("statistics")
	return stats
}

// Query returns records matching an arbitrary filter, for export surfaces.
// Like the named queries it fails open to an empty result.
func (h *History) Query(ctx context.Context, filter RecordFilter) []*Record {
	recs, err := h.store.SelectRecords(ctx, filter)
	if err != nil {
		h.observeFailure("query", err, map[string]interface{}{
			"table":    filter.Table,
			"actor_id": filter.ActorID,
		})
		return []*Record{}
	}

	h.observeQuery("query")
	return recs
}

func (h *History) observeQuery(query string) {
	if h.metrics != nil {
		h.metrics.HistoryQueriesTotal.WithLabelValues(query).Inc()
	}
}

func (h *History) observeFailure(query string, err error, fields map[string]interface{}) {
	h.log.WithError(err).WithField("query", query).WithFields(fields).Error("History query failed, returning empty result")
	if h.metrics != nil {
		h.metrics.HistoryQueriesTotal.WithLabelValues(query).Inc()
		h.metrics.HistoryQueryFailures.WithLabelValues(query).Inc()
	}
}
