package database

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// TimeLayout is the fixed-width UTC layout used for every stored timestamp,
// so that text ordering in SQLite matches chronological ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// DB is the global database instance
var DB *sql.DB

// Init initializes the database connection and creates schema
func Init(dbPath string) error {
	var err error
	DB, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	// One connection: ":memory:" databases are per-connection in SQLite.
	DB.SetMaxOpenConns(1)

	return EnsureSchema()
}

// Close closes the global database handle
func Close() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}

// EnsureSchema creates all necessary database tables
func EnsureSchema() error {
	_, err := DB.Exec(`
CREATE TABLE IF NOT EXISTS store_status (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  store_id TEXT NOT NULL,
  status TEXT NOT NULL,
  timestamp_utc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_store_status_store_ts ON store_status(store_id, timestamp_utc);
CREATE INDEX IF NOT EXISTS idx_store_status_ts ON store_status(timestamp_utc);

CREATE TABLE IF NOT EXISTS menu_hours (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  store_id TEXT NOT NULL,
  day_of_week INTEGER NOT NULL,
  start_time_local TEXT NOT NULL,
  end_time_local TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_menu_hours_store ON menu_hours(store_id);

CREATE TABLE IF NOT EXISTS store_timezone (
  store_id TEXT PRIMARY KEY,
  timezone_str TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS report_runs (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS system_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp TEXT NOT NULL,
  level TEXT NOT NULL,
  category TEXT NOT NULL,
  store_id TEXT,
  message TEXT NOT NULL,
  details TEXT
);
CREATE INDEX IF NOT EXISTS idx_system_logs_ts ON system_logs(timestamp);
CREATE INDEX IF NOT EXISTS idx_system_logs_level ON system_logs(level);
`)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}
