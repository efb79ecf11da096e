package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// Handlers provides the admin/compliance HTTP API over the history query
// service. All endpoints are read-only; like the service itself they never
// surface storage failures, only empty results.
type Handlers struct {
	history *History
}

// NewHandlers creates new audit history handlers
func NewHandlers(history *History) *Handlers {
	return &Handlers{
		history: history,
	}
}

// RegisterRoutes registers audit history routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/audit/records/{table}/{record_id}", h.recordHistory).Methods("GET")
	router.HandleFunc("/audit/actors/{actor_id}/records", h.actorHistory).Methods("GET")
	router.HandleFunc("/audit/stats", h.statistics).Methods("GET")
	router.HandleFunc("/audit/export", h.export).Methods("GET")
}

// recordHistory handles GET /audit/records/{table}/{record_id}
func (h *Handlers) recordHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	recs := h.history.ByRecord(r.Context(), vars["table"], vars["record_id"], parseLimit(r))
	writeJSON(w, map[string]interface{}{
		"records": recs,
		"count":   len(recs),
	})
}

// actorHistory handles GET /audit/actors/{actor_id}/records
func (h *Handlers) actorHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	recs := h.history.ByActor(r.Context(), vars["actor_id"], parseLimit(r))
	writeJSON(w, map[string]interface{}{
		"records": recs,
		"count":   len(recs),
	})
}

// statistics handles GET /audit/stats?start=...&end=...
// Times are RFC3339; end defaults to now and start to 24 hours before end.
func (h *Handlers) statistics(w http.ResponseWriter, r *http.Request) {
	end := time.Now().UTC()
	if endStr := r.URL.Query().Get("end"); endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			http.Error(w, "invalid end time", http.StatusBadRequest)
			return
		}
		end = t
	}

	start := end.Add(-24 * time.Hour)
	if startStr := r.URL.Query().Get("start"); startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			http.Error(w, "invalid start time", http.StatusBadRequest)
			return
		}
		start = t
	}

	stats := h.history.Statistics(r.Context(), start, end)
	writeJSON(w, map[string]interface{}{
		"stats": stats,
		"start": start,
		"end":   end,
	})
}

// export handles GET /audit/export?table=&record_id=&actor_id=&op=&format=
func (h *Handlers) export(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := RecordFilter{
		Table:    query.Get("table"),
		RecordID: query.Get("record_id"),
		ActorID:  query.Get("actor_id"),
		Limit:    parseLimit(r),
	}
	for _, op := range query["op"] {
		filter.Operations = append(filter.Operations, Operation(op))
	}

	recs := h.history.Query(r.Context(), filter)

	format := ExportFormat(query.Get("format"))
	if format == "" {
		format = ExportFormatJSON
	}

	data, err := ExportRecords(recs, format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	switch format {
	case ExportFormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=audit-records.csv")
	case ExportFormatNDJSON:
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Content-Disposition", "attachment; filename=audit-records.ndjson")
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=audit-records.json")
	}

	w.Write(data)
}

func parseLimit(r *http.Request) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			return limit
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
