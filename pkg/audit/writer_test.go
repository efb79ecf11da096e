package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Write(t *testing.T) {
	store := newStubStore()
	w := NewWriter(store, testLogger(), nil)

	rec, err := NewRecord("reservations", "R1", OperationInsert, Context{}, nil,
		map[string]interface{}{"status": "pending"})
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), rec))
	require.Len(t, store.storedRecords(), 1)
	assert.Equal(t, rec.ID, store.storedRecords()[0].ID)
}

func TestWriter_WriteNilIsNoop(t *testing.T) {
	store := newStubStore()
	w := NewWriter(store, testLogger(), nil)

	require.NoError(t, w.Write(context.Background(), nil))
	assert.Equal(t, 0, store.insertCalls)
}

func TestWriter_WriteFailure(t *testing.T) {
	store := newStubStore()
	store.insertErr = errors.New("connection refused")
	w := NewWriter(store, testLogger(), nil)

	rec, err := NewRecord("reservations", "R1", OperationInsert, Context{}, nil, nil)
	require.NoError(t, err)

	err = w.Write(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit record")
	assert.Empty(t, store.storedRecords())
}

func TestWriter_WriteBatch(t *testing.T) {
	store := newStubStore()
	w := NewWriter(store, testLogger(), nil)

	var recs []*Record
	for _, id := range []string{"R1", "R2", "R3"} {
		rec, err := NewRecord("reservations", id, OperationInsert, Context{}, nil, nil)
		require.NoError(t, err)
		recs = append(recs, rec)
	}

	require.NoError(t, w.WriteBatch(context.Background(), recs))
	assert.Equal(t, 1, store.batchCalls)
	assert.Len(t, store.storedRecords(), 3)
}

func TestWriter_WriteBatchEmptyIsNoop(t *testing.T) {
	store := newStubStore()
	w := NewWriter(store, testLogger(), nil)

	require.NoError(t, w.WriteBatch(context.Background(), nil))
	require.NoError(t, w.WriteBatch(context.Background(), []*Record{}))
	assert.Equal(t, 0, store.batchCalls)
}

func TestWriter_WriteBatchNormalizesTimestamps(t *testing.T) {
	store := newStubStore()
	w := NewWriter(store, testLogger(), nil)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	var recs []*Record
	for i, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
		rec, err := NewRecord("reservations", "R1", OperationInsert, Context{}, nil, nil)
		require.NoError(t, err, "record %d", i)
		rec.CreatedAt = base.Add(offset)
		recs = append(recs, rec)
	}

	require.NoError(t, w.WriteBatch(context.Background(), recs))

	stored := store.storedRecords()
	require.Len(t, stored, 3)
	for i := 1; i < len(stored); i++ {
		assert.False(t, stored[i].CreatedAt.Before(stored[i-1].CreatedAt),
			"record %d precedes record %d", i, i-1)
	}
}

func TestWriter_WriteBatchFailure(t *testing.T) {
	store := newStubStore()
	store.insertErr = errors.New("deadlock detected")
	w := NewWriter(store, testLogger(), nil)

	rec, err := NewRecord("reservations", "R1", OperationInsert, Context{}, nil, nil)
	require.NoError(t, err)

	err = w.WriteBatch(context.Background(), []*Record{rec})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch of 1")
}
