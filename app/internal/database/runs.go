package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"storemonitor/app/internal/models"
)

// ErrRunNotFound is returned when a report id has never been issued
var ErrRunNotFound = errors.New("report run not found")

// CreateReportRun records a triggered report and returns its id.
// An empty storeID denotes an all-stores run.
func CreateReportRun(storeID string) (*models.ReportRun, error) {
	run := &models.ReportRun{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := DB.Exec(`INSERT INTO report_runs (id, store_id, created_at) VALUES (?, ?, ?)`,
		run.ID, run.StoreID, formatTime(run.CreatedAt))
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetReportRun looks up a run by id
func GetReportRun(id string) (*models.ReportRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRunNotFound
	}

	var run models.ReportRun
	var created string
	err := DB.QueryRow(`SELECT id, store_id, created_at FROM report_runs WHERE id = ?`, id).
		Scan(&run.ID, &run.StoreID, &created)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	if run.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &run, nil
}
