package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExportFormat represents the format for exporting audit records
type ExportFormat string

const (
	ExportFormatJSON   ExportFormat = "json"
	ExportFormatCSV    ExportFormat = "csv"
	ExportFormatNDJSON ExportFormat = "ndjson" // Newline-delimited JSON
)

// ExportRecords serializes audit records in the requested format. Unknown
// formats fall back to JSON.
func ExportRecords(recs []*Record, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatCSV:
		return exportCSV(recs)
	case ExportFormatNDJSON:
		return exportNDJSON(recs)
	default:
		return exportJSON(recs)
	}
}

// exportJSON exports records as an indented JSON array
func exportJSON(recs []*Record) ([]byte, error) {
	return json.MarshalIndent(recs, "", "  ")
}

// exportNDJSON exports records as newline-delimited JSON
func exportNDJSON(recs []*Record) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)

	for _, rec := range recs {
		if err := encoder.Encode(rec); err != nil {
			return nil, fmt.Errorf("failed to encode record: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// exportCSV exports records as CSV. Snapshot maps are embedded as JSON
// strings; the changed-field list is semicolon-joined.
func exportCSV(recs []*Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"ID",
		"TableName",
		"RecordID",
		"Operation",
		"ActorID",
		"ActorEmail",
		"ActorRole",
		"OldValues",
		"NewValues",
		"ChangedFields",
		"IPAddress",
		"UserAgent",
		"RequestID",
		"SessionID",
		"Reason",
		"Source",
		"CreatedAt",
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range recs {
		row := []string{
			rec.ID,
			rec.TableName,
			rec.RecordID,
			string(rec.Operation),
			rec.ActorID,
			rec.ActorEmail,
			rec.ActorRole,
			jsonString(rec.OldValues),
			jsonString(rec.NewValues),
			strings.Join(rec.ChangedFields, ";"),
			rec.IPAddress,
			rec.UserAgent,
			rec.RequestID,
			rec.SessionID,
			rec.Reason,
			string(rec.Source),
			rec.CreatedAt.Format(time.RFC3339Nano),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

func jsonString(values map[string]interface{}) string {
	if values == nil {
		return ""
	}
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}
