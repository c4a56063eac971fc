package handlers

import (
	"net/http"
	"strconv"

	"storemonitor/app/internal/database"
)

const maxLogLimit = 500

// HandleGetLogs returns system logs with optional filtering
func HandleGetLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := database.LogFilter{
			Level:    q.Get("level"),
			Category: q.Get("category"),
			StoreID:  q.Get("store_id"),
			Limit:    100,
		}
		if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
			f.Limit = min(l, maxLogLimit)
		}
		if o, err := strconv.Atoi(q.Get("offset")); err == nil && o > 0 {
			f.Offset = o
		}

		logs, err := database.GetLogs(f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, errInternal, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
	}
}

// HandleGetLogStats returns log counts per level
func HandleGetLogStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.GetLogStats()
		if err != nil {
			writeError(w, http.StatusInternalServerError, errInternal, "")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
