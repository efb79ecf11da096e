package audit

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/courtline/audittrail/pkg/observability"
)

// stubStore is a controllable Store implementation for exercising the
// failure-containment contracts without a database.
type stubStore struct {
	mu sync.Mutex

	records     []*Record
	insertCalls int
	batchCalls  int
	lastFilter  RecordFilter
	cutoffs     map[string]time.Time
	touched     map[string]time.Time

	insertErr error
	selectErr error
	countErr  error
	deleteErr error
	listErr   error
	touchErr  error

	selectResult []*Record
	countResult  []OperationStat
	deleteResult int64
	policies     []RetentionPolicy
}

func newStubStore() *stubStore {
	return &stubStore{
		cutoffs: make(map[string]time.Time),
		touched: make(map[string]time.Time),
	}
}

func (s *stubStore) InsertRecord(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *stubStore) InsertRecords(ctx context.Context, recs []*Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	s.records = append(s.records, recs...)
	return nil
}

func (s *stubStore) SelectRecords(ctx context.Context, filter RecordFilter) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter
	if s.selectErr != nil {
		return nil, s.selectErr
	}
	return s.selectResult, nil
}

func (s *stubStore) CountByTableOperation(ctx context.Context, start, end time.Time) ([]OperationStat, error) {
	if s.countErr != nil {
		return nil, s.countErr
	}
	return s.countResult, nil
}

func (s *stubStore) DeleteRecordsBefore(ctx context.Context, table string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	s.cutoffs[table] = cutoff
	return s.deleteResult, nil
}

func (s *stubStore) ListRetentionPolicies(ctx context.Context) ([]RetentionPolicy, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.policies, nil
}

func (s *stubStore) TouchRetentionPolicy(ctx context.Context, table string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.touchErr != nil {
		return s.touchErr
	}
	s.touched[table] = at
	return nil
}

func (s *stubStore) storedRecords() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}
