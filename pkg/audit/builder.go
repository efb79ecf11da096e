package audit

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Validation errors returned by NewRecord. These are the only failures the
// builder reports; missing context fields are treated as unknown, not as
// errors.
var (
	ErrMissingTable     = errors.New("audit: table name is required")
	ErrMissingRecordID  = errors.New("audit: record id is required")
	ErrInvalidOperation = errors.New("audit: invalid operation")
)

// NewRecord assembles an audit record from an operation descriptor, a
// context, and optional before/after snapshots. It only produces the
// value; nothing is written to storage.
//
// Snapshots are kept per the operation kind: INSERT keeps only the new
// values, DELETE only the old values, UPDATE keeps both and computes the
// changed-field list. For an UPDATE with only one snapshot supplied the
// changed-field list is a best-effort diff against the missing side; with
// neither it is left absent.
func NewRecord(table, recordID string, op Operation, auditCtx Context, oldValues, newValues map[string]interface{}) (*Record, error) {
	if table == "" {
		return nil, ErrMissingTable
	}
	if recordID == "" {
		return nil, ErrMissingRecordID
	}
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperation, op)
	}

	source := auditCtx.Source
	if source == "" {
		source = SourceWeb
	}

	rec := &Record{
		ID:        uuid.NewString(),
		TableName: table,
		RecordID:  recordID,
		Operation: op,

		ActorID:    auditCtx.ActorID,
		ActorEmail: auditCtx.ActorEmail,
		ActorRole:  auditCtx.ActorRole,

		IPAddress: auditCtx.IPAddress,
		UserAgent: auditCtx.UserAgent,
		RequestID: auditCtx.RequestID,
		SessionID: auditCtx.SessionID,

		Reason: auditCtx.Reason,
		Source: source,

		CreatedAt: time.Now().UTC(),
	}

	switch op {
	case OperationInsert:
		rec.NewValues = newValues
	case OperationDelete:
		rec.OldValues = oldValues
	case OperationUpdate:
		rec.OldValues = oldValues
		rec.NewValues = newValues
		rec.ChangedFields = ChangedFields(oldValues, newValues)
	}

	return rec, nil
}
