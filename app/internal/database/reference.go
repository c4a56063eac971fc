package database

import (
	"fmt"

	"storemonitor/app/internal/models"
)

// LoadObservations returns every observation ordered by store, time and
// insertion order, so that for duplicate instants the last loaded row is last.
func LoadObservations() ([]models.Observation, error) {
	rows, err := DB.Query(`SELECT store_id, status, timestamp_utc FROM store_status
		ORDER BY store_id, timestamp_utc, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var storeID, status, ts string
		if err := rows.Scan(&storeID, &status, &ts); err != nil {
			return nil, err
		}
		st, ok := models.ParseStatus(status)
		if !ok {
			return nil, fmt.Errorf("store %s: invalid status %q", storeID, status)
		}
		t, err := parseTime(ts)
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", storeID, err)
		}
		out = append(out, models.Observation{StoreID: storeID, Timestamp: t, Status: st})
	}
	return out, rows.Err()
}

// LoadBusinessHours returns every schedule row in load order
func LoadBusinessHours() ([]models.BusinessHourRule, error) {
	rows, err := DB.Query(`SELECT store_id, day_of_week, start_time_local, end_time_local
		FROM menu_hours ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BusinessHourRule
	for rows.Next() {
		var r models.BusinessHourRule
		var start, end string
		if err := rows.Scan(&r.StoreID, &r.DayOfWeek, &start, &end); err != nil {
			return nil, err
		}
		if r.Start, err = ParseTimeOfDay(start); err != nil {
			return nil, fmt.Errorf("store %s: %w", r.StoreID, err)
		}
		if r.End, err = ParseTimeOfDay(end); err != nil {
			return nil, fmt.Errorf("store %s: %w", r.StoreID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadTimezones returns every store timezone row
func LoadTimezones() ([]models.StoreTimezone, error) {
	rows, err := DB.Query(`SELECT store_id, timezone_str FROM store_timezone ORDER BY store_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StoreTimezone
	for rows.Next() {
		var tz models.StoreTimezone
		if err := rows.Scan(&tz.StoreID, &tz.Timezone); err != nil {
			return nil, err
		}
		out = append(out, tz)
	}
	return out, rows.Err()
}
