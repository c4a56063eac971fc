package handlers

import (
	"net/http"
	"time"

	"storemonitor/app/internal/database"
	"storemonitor/app/internal/stats"
)

type healthResponse struct {
	Status            string     `json:"status"`
	Stores            int        `json:"stores"`
	Observations      int        `json:"observations"`
	LatestObservation *time.Time `json:"latest_observation,omitempty"`
	Database          string     `json:"database"`
}

// HandleHealth reports snapshot size and database reachability
func HandleHealth(rep *stats.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := rep.Snapshot()
		out := healthResponse{
			Status:       "ok",
			Stores:       snap.NumStores(),
			Observations: snap.NumObservations(),
			Database:     "ok",
		}
		if t, ok := snap.Latest(); ok {
			out.LatestObservation = &t
		}

		status := http.StatusOK
		if database.DB == nil || database.DB.PingContext(r.Context()) != nil {
			out.Status = "degraded"
			out.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, out)
	}
}
