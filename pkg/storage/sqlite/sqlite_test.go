package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtline/audittrail/pkg/audit"
)

var recordRowColumns = []string{
	"id", "table_name", "record_id", "operation",
	"actor_id", "actor_email", "actor_role",
	"old_values", "new_values", "changed_fields",
	"ip_address", "user_agent", "request_id", "session_id",
	"reason", "source", "created_at",
}

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_logs").WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := New(db)
	require.NoError(t, err)

	return store, mock
}

func TestNew_NilDB(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestStore_InsertRecord(t *testing.T) {
	store, mock := newTestStore(t)

	rec, err := audit.NewRecord("reservations", "R1", audit.OperationUpdate,
		audit.Context{ActorID: "U1"},
		map[string]interface{}{"status": "pending"},
		map[string]interface{}{"status": "success"},
	)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(
			rec.ID, "reservations", "R1", "UPDATE",
			"U1", "", "",
			[]byte(`{"status":"pending"}`), []byte(`{"status":"success"}`), []byte(`["status"]`),
			"", "", "", "",
			"", "web", rec.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.InsertRecord(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertRecords_SingleStatement(t *testing.T) {
	store, mock := newTestStore(t)

	var recs []*audit.Record
	for _, id := range []string{"R1", "R2", "R3"} {
		rec, err := audit.NewRecord("reservations", id, audit.OperationInsert, audit.Context{}, nil, nil)
		require.NoError(t, err)
		recs = append(recs, rec)
	}

	mock.ExpectExec(`INSERT INTO audit_logs .+ VALUES \(.+\), \(.+\), \(.+\)`).
		WillReturnResult(sqlmock.NewResult(3, 3))

	require.NoError(t, store.InsertRecords(context.Background(), recs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertRecords_Empty(t *testing.T) {
	store, mock := newTestStore(t)

	require.NoError(t, store.InsertRecords(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SelectRecords(t *testing.T) {
	store, mock := newTestStore(t)

	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(recordRowColumns).AddRow(
		"rec-1", "reservations", "R1", "UPDATE",
		"U1", "", "",
		`{"status":"pending"}`, `{"status":"success"}`, `["status"]`,
		"", "", "", "",
		"", "web", created,
	)

	mock.ExpectQuery("SELECT (.+) FROM audit_logs").
		WithArgs("reservations", "R1", 50).
		WillReturnRows(rows)

	recs, err := store.SelectRecords(context.Background(), audit.RecordFilter{
		Table:    "reservations",
		RecordID: "R1",
		Limit:    50,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]interface{}{"status": "pending"}, recs[0].OldValues)
	assert.Equal(t, []string{"status"}, recs[0].ChangedFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SelectRecords_OperationsFilter(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM audit_logs (.+) operation IN \(\?, \?\)`).
		WithArgs("reservations", "INSERT", "DELETE", 10).
		WillReturnRows(sqlmock.NewRows(recordRowColumns))

	recs, err := store.SelectRecords(context.Background(), audit.RecordFilter{
		Table:      "reservations",
		Operations: []audit.Operation{audit.OperationInsert, audit.OperationDelete},
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SelectRecords_Error(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT (.+) FROM audit_logs").WillReturnError(errors.New("database is locked"))

	_, err := store.SelectRecords(context.Background(), audit.RecordFilter{Table: "reservations"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select audit records")
}

func TestStore_CountByTableOperation(t *testing.T) {
	store, mock := newTestStore(t)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"table_name", "operation", "count"}).
		AddRow("reservations", "INSERT", int64(7))

	mock.ExpectQuery("SELECT table_name, operation, COUNT").
		WithArgs(start, end).
		WillReturnRows(rows)

	stats, err := store.CountByTableOperation(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(7), stats[0].Count)
}

func TestStore_DeleteRecordsBefore(t *testing.T) {
	store, mock := newTestStore(t)

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM audit_logs").
		WithArgs("reservations", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 9))

	deleted, err := store.DeleteRecordsBefore(context.Background(), "reservations", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(9), deleted)
}

func TestStore_ListRetentionPolicies(t *testing.T) {
	store, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"table_name", "retention_days", "archive_before_delete", "is_active", "last_cleanup_at"}).
		AddRow("reservations", 30, false, true, nil)

	mock.ExpectQuery("SELECT (.+) FROM data_retention_policies").WillReturnRows(rows)

	policies, err := store.ListRetentionPolicies(context.Background())
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, 30, policies[0].RetentionDays)
	assert.True(t, policies[0].Active)
	assert.Nil(t, policies[0].LastCleanupAt)
}

func TestStore_TouchRetentionPolicy(t *testing.T) {
	store, mock := newTestStore(t)

	at := time.Date(2026, 8, 31, 3, 30, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE data_retention_policies SET last_cleanup_at").
		WithArgs(at, "reservations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.TouchRetentionPolicy(context.Background(), "reservations", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
