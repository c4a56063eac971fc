package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"storemonitor/app/internal/database"
	"storemonitor/app/internal/export"
	"storemonitor/app/internal/metrics"
	"storemonitor/app/internal/models"
	"storemonitor/app/internal/stats"
)

// reportResponse is the body of trigger and JSON retrieval responses.
// Report is a single models.Report for store runs and a list for
// all-store runs.
type reportResponse struct {
	ReportID string     `json:"report_id,omitempty"`
	Status   string     `json:"status"`
	AsOf     *time.Time `json:"as_of,omitempty"`
	Report   any        `json:"report"`
}

const statusComplete = "Complete"

// result of one generation, for either scope
type reportResult struct {
	single  *models.Report
	reports []models.Report
	asOf    time.Time
}

func (res reportResult) list() []models.Report {
	if res.single != nil {
		return []models.Report{*res.single}
	}
	return res.reports
}

func (res reportResult) response(reportID string) reportResponse {
	out := reportResponse{ReportID: reportID, Status: statusComplete}
	if !res.asOf.IsZero() {
		asOf := res.asOf.UTC()
		out.AsOf = &asOf
	}
	if res.single != nil {
		out.Report = res.single
	} else {
		out.Report = res.reports
	}
	return out
}

// generate runs the aggregator for one store, or every store when storeID
// is empty, and records metrics for the run.
func generate(rep *stats.Reporter, storeID string) (reportResult, error) {
	start := time.Now()
	scope := "store"
	if storeID == "" {
		scope = "all"
	}

	var res reportResult
	var err error
	if storeID == "" {
		res.reports, err = rep.GenerateAll()
		res.asOf, _ = rep.Snapshot().Latest()
	} else {
		var r models.Report
		r, err = rep.Generate(storeID)
		res.single = &r
		res.asOf = r.AsOf
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveReport(scope, result, time.Since(start))
	return res, err
}

// writeReportError maps aggregator errors onto HTTP responses
func writeReportError(w http.ResponseWriter, storeID string, err error) {
	if errors.Is(err, stats.ErrUnknownStore) {
		metrics.IncReportError("unknown_store")
		writeError(w, http.StatusNotFound, errStoreNotFound, fmt.Sprintf("store %q has no data", storeID))
		return
	}
	metrics.IncReportError("internal")
	log.Printf("report for store %q failed: %v", storeID, err)
	_ = database.InsertLog(database.LogLevelError, database.LogCategoryReport, storeID, "Report generation failed", err.Error())
	writeError(w, http.StatusInternalServerError, errInternal, "report generation failed")
}

// HandleTriggerReport generates a report synchronously and records a run id
// that /get_report can later re-serve.
func HandleTriggerReport(rep *stats.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StoreID string `json:"store_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, errBadRequest, "invalid JSON body")
			return
		}

		res, err := generate(rep, req.StoreID)
		if err != nil {
			writeReportError(w, req.StoreID, err)
			return
		}

		run, err := database.CreateReportRun(req.StoreID)
		if err != nil {
			log.Printf("failed to record report run: %v", err)
			writeError(w, http.StatusInternalServerError, errInternal, "failed to record report run")
			return
		}

		details := fmt.Sprintf("report_id=%s stores=%d", run.ID, len(res.list()))
		_ = database.InsertLog(database.LogLevelInfo, database.LogCategoryReport, req.StoreID, "Report triggered", details)

		writeJSON(w, http.StatusOK, res.response(run.ID))
	}
}

// HandleGetReport re-runs the report for a recorded run and serializes it
// in the requested format.
func HandleGetReport(rep *stats.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("report_id")
		if id == "" {
			writeError(w, http.StatusBadRequest, errBadRequest, "report_id is required")
			return
		}
		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
			return
		}

		run, err := database.GetReportRun(id)
		if errors.Is(err, database.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, errReportNotFound, "")
			return
		}
		if err != nil {
			log.Printf("failed to load report run %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, errInternal, "")
			return
		}

		res, err := generate(rep, run.StoreID)
		if err != nil {
			writeReportError(w, run.StoreID, err)
			return
		}
		serve(w, format, run.ID, *run, res)
	}
}

// HandleStoreReport serves a store's report without recording a run
func HandleStoreReport(rep *stats.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID := r.PathValue("store_id")
		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
			return
		}

		res, err := generate(rep, storeID)
		if err != nil {
			writeReportError(w, storeID, err)
			return
		}
		// direct reports have no run id; files are named after the store
		run := models.ReportRun{ID: storeID, StoreID: storeID, CreatedAt: time.Now().UTC()}
		serve(w, format, "", run, res)
	}
}

func serve(w http.ResponseWriter, format export.Format, reportID string, run models.ReportRun, res reportResult) {
	if format == export.FormatJSON {
		metrics.IncExport(string(format), metrics.ResultSuccess)
		writeJSON(w, http.StatusOK, res.response(reportID))
		return
	}

	data, err := export.Build(format, run, res.list())
	if err != nil {
		metrics.IncExport(string(format), metrics.ResultError)
		log.Printf("export %s for %s failed: %v", format, run.ID, err)
		writeError(w, http.StatusInternalServerError, errInternal, "export failed")
		return
	}
	metrics.IncExport(string(format), metrics.ResultSuccess)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(run.ID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
