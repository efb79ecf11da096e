package audit

import (
	"encoding/json"
	"time"
)

// Operation represents the kind of mutation an audit record describes
type Operation string

const (
	OperationInsert Operation = "INSERT"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// Valid reports whether the operation is one of the three known kinds
func (o Operation) Valid() bool {
	switch o {
	case OperationInsert, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Source represents the channel a mutation arrived through
type Source string

const (
	SourceWeb       Source = "web"
	SourceAPI       Source = "api"
	SourceSystem    Source = "system"
	SourceMigration Source = "migration"
)

// Context carries the actor and request metadata attached to one logical
// operation. It is passed by value and never persisted on its own; every
// field is copied onto the records it produces.
type Context struct {
	// Actor information. ActorID is empty for system-initiated changes.
	ActorID    string `json:"actor_id,omitempty"`
	ActorEmail string `json:"actor_email,omitempty"`
	ActorRole  string `json:"actor_role,omitempty"`

	// Request context
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// Reason is a free-text explanation for the change
	Reason string `json:"reason,omitempty"`

	// Source defaults to SourceWeb when unset
	Source Source `json:"source,omitempty"`
}

// Record is a single immutable audit log entry describing one observed
// mutation attempt. Actor fields are denormalized from the Context so the
// history survives deletion of the actor itself. Records are never updated;
// the only delete path is bulk retention cleanup.
type Record struct {
	// Core fields
	ID        string    `json:"id"`
	TableName string    `json:"table_name"`
	RecordID  string    `json:"record_id"`
	Operation Operation `json:"operation"`

	// Actor information (denormalized)
	ActorID    string `json:"actor_id,omitempty"`
	ActorEmail string `json:"actor_email,omitempty"`
	ActorRole  string `json:"actor_role,omitempty"`

	// Change data. OldValues is set for UPDATE/DELETE, NewValues for
	// INSERT/UPDATE, ChangedFields only for UPDATE.
	OldValues     map[string]interface{} `json:"old_values,omitempty"`
	NewValues     map[string]interface{} `json:"new_values,omitempty"`
	ChangedFields []string               `json:"changed_fields,omitempty"`

	// Request context
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// Additional details
	Reason string `json:"reason,omitempty"`
	Source Source `json:"source"`

	// CreatedAt is server-assigned once at build time
	CreatedAt time.Time `json:"created_at"`
}

// ToJSON converts the record to JSON
func (r *Record) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// OperationStat is one row of the statistics aggregation: the number of
// records for a (table, operation) pair within the queried time range.
type OperationStat struct {
	TableName string    `json:"table_name"`
	Operation Operation `json:"operation"`
	Count     int64     `json:"count"`
}

// RetentionPolicy is the per-table configuration governing how long audit
// records are kept. Policies are administered outside this package and are
// read-only from the retention manager's perspective.
type RetentionPolicy struct {
	TableName     string `json:"table_name"`
	RetentionDays int    `json:"retention_days"`

	// ArchiveBeforeDelete requests archival before deletion. It is a hook
	// for a future archiver; no archival is performed yet.
	ArchiveBeforeDelete bool `json:"archive_before_delete"`

	// Active disables the policy without deleting it
	Active bool `json:"active"`

	// LastCleanupAt records when the last sweep for this table finished
	LastCleanupAt *time.Time `json:"last_cleanup_at,omitempty"`
}
