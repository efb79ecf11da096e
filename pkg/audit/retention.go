package audit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/courtline/audittrail/pkg/observability"
)

// maxConcurrentSweeps bounds how many per-table cleanups run at once
const maxConcurrentSweeps = 4

// Retention deletes audit records once their age exceeds their table's
// configured retention window. Cleanup is idempotent and commutative, so
// concurrent runs for the same table are safe, just redundant.
type Retention struct {
	store   Store
	log     *observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewRetention creates a retention manager. metrics may be nil.
func NewRetention(store Store, log *observability.Logger, metrics *observability.Metrics) *Retention {
	return &Retention{
		store:   store,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// Cleanup deletes all audit records for table created strictly before
// now - retentionDays and returns the number deleted. Failures are logged
// and reported as zero; a scheduler calling this never sees an error.
func (r *Retention) Cleanup(ctx context.Context, table string, retentionDays int) int64 {
	cutoff := r.now().UTC().AddDate(0, 0, -retentionDays)

	deleted, err := r.store.DeleteRecordsBefore(ctx, table, cutoff)
	if err != nil {
		r.log.WithError(err).WithFields(map[string]interface{}{
			"table":  table,
			"cutoff": cutoff,
		}).Error("Retention cleanup failed")
		if r.metrics != nil {
			r.metrics.RetentionSweepFailures.WithLabelValues(table).Inc()
		}
		return 0
	}

	if r.metrics != nil {
		r.metrics.RetentionDeletedTotal.WithLabelValues(table).Add(float64(deleted))
	}
	r.log.WithFields(map[string]interface{}{
		"table":   table,
		"cutoff":  cutoff,
		"deleted": deleted,
	}).Info("Retention cleanup finished")

	return deleted
}

// RunPolicies loads the persisted retention policies and runs a cleanup
// for every active one, a few tables at a time. Per-table failures are
// contained inside Cleanup; the returned error only covers failure to load
// the policies themselves. Returns the total number of deleted records.
func (r *Retention) RunPolicies(ctx context.Context) (int64, error) {
	started := r.now()

	policies, err := r.store.ListRetentionPolicies(ctx)
	if err != nil {
		return 0, fmt.Errorf("list retention policies: %w", err)
	}

	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSweeps)

	for _, policy := range policies {
		policy := policy
		if !policy.Active {
			r.log.WithField("table", policy.TableName).Debug("Skipping inactive retention policy")
			continue
		}

		if policy.ArchiveBeforeDelete {
			// Archive-before-delete is a declared hook with no archiver
			// wired yet; records are deleted without archiving.
			r.log.WithField("table", policy.TableName).Warn("archive_before_delete is set but no archiver is configured")
		}

		g.Go(func() error {
			total.Add(r.Cleanup(gctx, policy.TableName, policy.RetentionDays))

			if err := r.store.TouchRetentionPolicy(gctx, policy.TableName, r.now().UTC()); err != nil {
				r.log.WithError(err).WithField("table", policy.TableName).Warn("Failed to record cleanup time on retention policy")
			}
			return nil
		})
	}

	// Sweep goroutines never return errors; Wait is for completion only.
	_ = g.Wait()

	if r.metrics != nil {
		r.metrics.RetentionSweepDuration.Observe(r.now().Sub(started).Seconds())
	}

	return total.Load(), nil
}
