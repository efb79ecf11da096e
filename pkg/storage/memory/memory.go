// Package memory implements an in-memory audit store for tests, examples,
// and throwaway deployments. It is not intended for production use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/courtline/audittrail/pkg/audit"
)

// Store holds audit records and retention policies in process memory
type Store struct {
	mu       sync.Mutex
	records  []*audit.Record
	policies map[string]audit.RetentionPolicy
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		policies: make(map[string]audit.RetentionPolicy),
	}
}

// InsertRecord persists one audit record
func (s *Store) InsertRecord(ctx context.Context, rec *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, cloneRecord(rec))
	return nil
}

// InsertRecords persists a batch of audit records
func (s *Store) InsertRecords(ctx context.Context, recs []*audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.records = append(s.records, cloneRecord(rec))
	}
	return nil
}

// SelectRecords returns records matching the filter, oldest first
func (s *Store) SelectRecords(ctx context.Context, filter audit.RecordFilter) ([]*audit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*audit.Record, 0)
	for _, rec := range s.records {
		if matches(rec, filter) {
			matched = append(matched, cloneRecord(rec))
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

// CountByTableOperation aggregates counts grouped by (table, operation)
func (s *Store) CountByTableOperation(ctx context.Context, start, end time.Time) ([]audit.OperationStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		table string
		op    audit.Operation
	}
	counts := make(map[key]int64)

	for _, rec := range s.records {
		if rec.CreatedAt.Before(start) || rec.CreatedAt.After(end) {
			continue
		}
		counts[key{rec.TableName, rec.Operation}]++
	}

	stats := make([]audit.OperationStat, 0, len(counts))
	for k, count := range counts {
		stats = append(stats, audit.OperationStat{
			TableName: k.table,
			Operation: k.op,
			Count:     count,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TableName != stats[j].TableName {
			return stats[i].TableName < stats[j].TableName
		}
		return stats[i].Operation < stats[j].Operation
	})

	return stats, nil
}

// DeleteRecordsBefore deletes records for table created strictly before
// cutoff and returns the number deleted
func (s *Store) DeleteRecordsBefore(ctx context.Context, table string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64

	for _, rec := range s.records {
		if rec.TableName == table && rec.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept

	return deleted, nil
}

// ListRetentionPolicies returns all configured retention policies
func (s *Store) ListRetentionPolicies(ctx context.Context) ([]audit.RetentionPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	policies := make([]audit.RetentionPolicy, 0, len(s.policies))
	for _, policy := range s.policies {
		policies = append(policies, policy)
	}

	sort.Slice(policies, func(i, j int) bool {
		return policies[i].TableName < policies[j].TableName
	})

	return policies, nil
}

// TouchRetentionPolicy records the completion time of a cleanup sweep
func (s *Store) TouchRetentionPolicy(ctx context.Context, table string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if policy, ok := s.policies[table]; ok {
		policy.LastCleanupAt = &at
		s.policies[table] = policy
	}
	return nil
}

// SetPolicy installs or replaces a retention policy. Policies are normally
// administered outside the audit subsystem; this is the test/dev hook.
func (s *Store) SetPolicy(policy audit.RetentionPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.TableName] = policy
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func matches(rec *audit.Record, filter audit.RecordFilter) bool {
	if filter.Table != "" && rec.TableName != filter.Table {
		return false
	}
	if filter.RecordID != "" && rec.RecordID != filter.RecordID {
		return false
	}
	if filter.ActorID != "" && rec.ActorID != filter.ActorID {
		return false
	}
	if filter.Start != nil && rec.CreatedAt.Before(*filter.Start) {
		return false
	}
	if filter.End != nil && rec.CreatedAt.After(*filter.End) {
		return false
	}
	if len(filter.Operations) > 0 {
		found := false
		for _, op := range filter.Operations {
			if rec.Operation == op {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// cloneRecord copies a record shallowly except for the snapshot maps and
// changed-field list, so callers cannot mutate stored history.
func cloneRecord(rec *audit.Record) *audit.Record {
	clone := *rec
	if rec.OldValues != nil {
		clone.OldValues = make(map[string]interface{}, len(rec.OldValues))
		for k, v := range rec.OldValues {
			clone.OldValues[k] = v
		}
	}
	if rec.NewValues != nil {
		clone.NewValues = make(map[string]interface{}, len(rec.NewValues))
		for k, v := range rec.NewValues {
			clone.NewValues[k] = v
		}
	}
	if rec.ChangedFields != nil {
		clone.ChangedFields = append([]string(nil), rec.ChangedFields...)
	}
	return &clone
}
