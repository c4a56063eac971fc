package database

import (
	"time"

	"storemonitor/app/internal/models"
)

// LogLevel constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// LogCategory constants
const (
	LogCategoryImport      = "import"
	LogCategoryDataQuality = "data_quality"
	LogCategoryReport      = "report"
	LogCategorySystem      = "system"
)

// InsertLog adds a new log entry
func InsertLog(level, category, storeID, message, details string) error {
	_, err := DB.Exec(`INSERT INTO system_logs (timestamp, level, category, store_id, message, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(time.Now()), level, category, storeID, message, details)
	return err
}

// LogFilter narrows GetLogs results. Empty fields match everything.
type LogFilter struct {
	Level    string
	Category string
	StoreID  string
	Limit    int
	Offset   int
}

// GetLogs retrieves logs with optional filtering, newest first
func GetLogs(f LogFilter) ([]models.LogEntry, error) {
	query := `SELECT id, timestamp, level, category, COALESCE(store_id, ''), message, COALESCE(details, '')
		FROM system_logs WHERE 1=1`
	args := []interface{}{}

	if f.Level != "" {
		query += " AND level = ?"
		args = append(args, f.Level)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.StoreID != "" {
		query += " AND store_id = ?"
		args = append(args, f.StoreID)
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.LogEntry{}
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Level, &e.Category, &e.StoreID, &e.Message, &e.Details); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

// GetLogStats returns counts of logs per level
func GetLogStats() (*models.LogStats, error) {
	var stats models.LogStats
	err := DB.QueryRow(`SELECT
		COUNT(*),
		COALESCE(SUM(level = 'error'), 0),
		COALESCE(SUM(level = 'warn'), 0),
		COALESCE(SUM(level = 'info'), 0)
		FROM system_logs`).Scan(&stats.TotalLogs, &stats.ErrorCount, &stats.WarnCount, &stats.InfoCount)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// PruneLogs removes old logs to keep the database size manageable (keeps last N logs)
func PruneLogs(keepCount int) error {
	_, err := DB.Exec(`DELETE FROM system_logs WHERE id NOT IN (
		SELECT id FROM system_logs ORDER BY timestamp DESC, id DESC LIMIT ?
	)`, keepCount)
	return err
}
