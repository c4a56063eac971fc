package models

import "time"

// Status is the polled state of a store
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus normalizes a raw status string. ok is false for anything
// other than active/inactive.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusInactive:
		return Status(s), true
	}
	return "", false
}

// Observation is a single poll result for a store
type Observation struct {
	StoreID   string
	Timestamp time.Time // always UTC
	Status    Status
}

// BusinessHourRule is one schedule row. DayOfWeek is 0=Monday .. 6=Sunday.
// Start and End are offsets from local midnight.
type BusinessHourRule struct {
	StoreID   string
	DayOfWeek int
	Start     time.Duration
	End       time.Duration
}

// StoreTimezone maps a store to an IANA timezone name
type StoreTimezone struct {
	StoreID  string
	Timezone string
}

// Report holds uptime/downtime minutes for the three trailing windows
type Report struct {
	StoreID          string  `json:"store_id"`
	UptimeLastHour   float64 `json:"uptime_last_hour"`
	UptimeLastDay    float64 `json:"uptime_last_day"`
	UptimeLastWeek   float64 `json:"uptime_last_week"`
	DowntimeLastHour float64 `json:"downtime_last_hour"`
	DowntimeLastDay  float64 `json:"downtime_last_day"`
	DowntimeLastWeek float64 `json:"downtime_last_week"`

	// AsOf is the data-derived anchor the windows end at
	AsOf time.Time `json:"-"`
}

// ReportRun records a triggered report. StoreID is empty for all-store runs.
type ReportRun struct {
	ID        string    `json:"report_id"`
	StoreID   string    `json:"store_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LogEntry represents a row of the system_logs table
type LogEntry struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	StoreID   string `json:"store_id"`
	Message   string `json:"message"`
	Details   string `json:"details"`
}

// LogStats summarizes the system_logs table
type LogStats struct {
	TotalLogs  int `json:"total_logs"`
	ErrorCount int `json:"error_count"`
	WarnCount  int `json:"warn_count"`
	InfoCount  int `json:"info_count"`
}
