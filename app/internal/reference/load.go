package reference

import (
	"fmt"
	"log"
	"time"

	"storemonitor/app/internal/database"
)

// Load reads the three relations from the database and builds a snapshot.
// Data-quality warnings are logged and recorded in system_logs.
func Load(defaultTimezone string) (*Snapshot, error) {
	if defaultTimezone == "" {
		defaultTimezone = DefaultTimezone
	}
	defaultLoc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("default timezone %q: %w", defaultTimezone, err)
	}

	obs, err := database.LoadObservations()
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	rules, err := database.LoadBusinessHours()
	if err != nil {
		return nil, fmt.Errorf("load business hours: %w", err)
	}
	zones, err := database.LoadTimezones()
	if err != nil {
		return nil, fmt.Errorf("load timezones: %w", err)
	}

	snap, warnings := Build(obs, rules, zones, defaultLoc)
	for i, w := range warnings {
		if i < 20 {
			log.Printf("Warning: store %s: %s (%s)", w.StoreID, w.Message, w.Details)
		}
		_ = database.InsertLog(database.LogLevelWarn, database.LogCategoryDataQuality, w.StoreID, w.Message, w.Details)
	}
	if len(warnings) > 20 {
		log.Printf("Warning: %d more data-quality warnings recorded in system_logs", len(warnings)-20)
	}
	return snap, nil
}
