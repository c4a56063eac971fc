package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"storemonitor/app/internal/models"
)

// Table identifies one of the three input relations
type Table string

const (
	TableStoreStatus   Table = "store_status"
	TableMenuHours     Table = "menu_hours"
	TableStoreTimezone Table = "store_timezone"
)

// ImportResult summarizes a CSV import
type ImportResult struct {
	Table    Table
	Imported int
	Skipped  int
}

// Layouts accepted for observation timestamps. The first matches the
// "2023-01-22 12:09:39.388884 UTC" form of the polling export.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp parses an observation timestamp and normalizes it to UTC.
// Timestamps without zone information are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

var clockLayouts = []string{"15:04:05.999999999", "15:04:05", "15:04"}

// ParseTimeOfDay parses a local wall-clock time into an offset from midnight
func ParseTimeOfDay(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second +
				time.Duration(t.Nanosecond()), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time of day %q", s)
}

// ImportFile imports a CSV file into the given table, replacing its rows
func ImportFile(table Table, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ImportCSV(table, f)
}

// ImportCSV reads a headered CSV stream into the given table. Existing rows
// are replaced inside a single transaction. Malformed rows are skipped and
// counted; a malformed header fails the import.
func ImportCSV(table Table, r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", table, err)
	}
	cols := indexColumns(header)

	var conv rowConverter
	switch table {
	case TableStoreStatus:
		conv, err = statusConverter(cols)
	case TableMenuHours:
		conv, err = menuHoursConverter(cols)
	case TableStoreTimezone:
		conv, err = timezoneConverter(cols)
	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", table, err)
	}

	tx, err := DB.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// #nosec G202 -- table is one of the Table constants
	if _, err := tx.Exec(`DELETE FROM ` + string(table)); err != nil {
		return nil, err
	}
	stmt, err := tx.Prepare(conv.insertSQL)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	res := &ImportResult{Table: table}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.Skipped++
			continue
		}
		args, err := conv.convert(rec)
		if err != nil {
			if res.Skipped < 10 {
				log.Printf("import %s line %d skipped: %v", table, line, err)
			}
			res.Skipped++
			continue
		}
		if _, err := stmt.Exec(args...); err != nil {
			return nil, fmt.Errorf("insert %s line %d: %w", table, line, err)
		}
		res.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	level := LogLevelInfo
	if res.Skipped > 0 {
		level = LogLevelWarn
	}
	_ = InsertLog(level, LogCategoryImport, "", "Imported "+string(table),
		fmt.Sprintf("imported=%d, skipped=%d", res.Imported, res.Skipped))
	return res, nil
}

type rowConverter struct {
	insertSQL string
	convert   func(rec []string) ([]any, error)
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
	}
	return cols
}

// column returns the index of the first present alias
func column(cols map[string]int, aliases ...string) (int, error) {
	for _, a := range aliases {
		if i, ok := cols[strings.ToLower(a)]; ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("missing column %q", aliases[0])
}

func field(rec []string, i int) (string, error) {
	if i >= len(rec) {
		return "", fmt.Errorf("short record: %d fields", len(rec))
	}
	v := strings.TrimSpace(rec[i])
	if v == "" {
		return "", fmt.Errorf("empty field %d", i)
	}
	return v, nil
}

func statusConverter(cols map[string]int) (rowConverter, error) {
	storeCol, err := column(cols, "store_id")
	if err != nil {
		return rowConverter{}, err
	}
	statusCol, err := column(cols, "status")
	if err != nil {
		return rowConverter{}, err
	}
	tsCol, err := column(cols, "timestamp_utc", "timestamp")
	if err != nil {
		return rowConverter{}, err
	}

	return rowConverter{
		insertSQL: `INSERT INTO store_status (store_id, status, timestamp_utc) VALUES (?, ?, ?)`,
		convert: func(rec []string) ([]any, error) {
			storeID, err := field(rec, storeCol)
			if err != nil {
				return nil, err
			}
			raw, err := field(rec, statusCol)
			if err != nil {
				return nil, err
			}
			status, ok := models.ParseStatus(strings.ToLower(raw))
			if !ok {
				return nil, fmt.Errorf("unknown status %q", raw)
			}
			rawTS, err := field(rec, tsCol)
			if err != nil {
				return nil, err
			}
			ts, err := ParseTimestamp(rawTS)
			if err != nil {
				return nil, err
			}
			return []any{storeID, string(status), formatTime(ts)}, nil
		},
	}, nil
}

func menuHoursConverter(cols map[string]int) (rowConverter, error) {
	storeCol, err := column(cols, "store_id")
	if err != nil {
		return rowConverter{}, err
	}
	dayCol, err := column(cols, "day", "day_of_week", "dayofweek")
	if err != nil {
		return rowConverter{}, err
	}
	startCol, err := column(cols, "start_time_local")
	if err != nil {
		return rowConverter{}, err
	}
	endCol, err := column(cols, "end_time_local")
	if err != nil {
		return rowConverter{}, err
	}

	return rowConverter{
		insertSQL: `INSERT INTO menu_hours (store_id, day_of_week, start_time_local, end_time_local) VALUES (?, ?, ?, ?)`,
		convert: func(rec []string) ([]any, error) {
			storeID, err := field(rec, storeCol)
			if err != nil {
				return nil, err
			}
			rawDay, err := field(rec, dayCol)
			if err != nil {
				return nil, err
			}
			day, err := strconv.Atoi(rawDay)
			if err != nil || day < 0 || day > 6 {
				return nil, fmt.Errorf("day of week %q out of range", rawDay)
			}
			start, err := field(rec, startCol)
			if err != nil {
				return nil, err
			}
			end, err := field(rec, endCol)
			if err != nil {
				return nil, err
			}
			if _, err := ParseTimeOfDay(start); err != nil {
				return nil, err
			}
			if _, err := ParseTimeOfDay(end); err != nil {
				return nil, err
			}
			return []any{storeID, day, start, end}, nil
		},
	}, nil
}

func timezoneConverter(cols map[string]int) (rowConverter, error) {
	storeCol, err := column(cols, "store_id")
	if err != nil {
		return rowConverter{}, err
	}
	tzCol, err := column(cols, "timezone_str", "timezone")
	if err != nil {
		return rowConverter{}, err
	}

	return rowConverter{
		// Later rows for the same store replace earlier ones
		insertSQL: `INSERT INTO store_timezone (store_id, timezone_str) VALUES (?, ?)
			ON CONFLICT(store_id) DO UPDATE SET timezone_str = excluded.timezone_str`,
		convert: func(rec []string) ([]any, error) {
			storeID, err := field(rec, storeCol)
			if err != nil {
				return nil, err
			}
			tz, err := field(rec, tzCol)
			if err != nil {
				return nil, err
			}
			return []any{storeID, tz}, nil
		},
	}, nil
}

// InsertObservation adds a single polling observation
func InsertObservation(o models.Observation) error {
	_, err := DB.Exec(`INSERT INTO store_status (store_id, status, timestamp_utc) VALUES (?, ?, ?)`,
		o.StoreID, string(o.Status), formatTime(o.Timestamp))
	return err
}

// InsertBusinessHours adds a single schedule row
func InsertBusinessHours(r models.BusinessHourRule) error {
	_, err := DB.Exec(`INSERT INTO menu_hours (store_id, day_of_week, start_time_local, end_time_local) VALUES (?, ?, ?, ?)`,
		r.StoreID, r.DayOfWeek, formatClock(r.Start), formatClock(r.End))
	return err
}

// SetStoreTimezone inserts or replaces a store's timezone
func SetStoreTimezone(tz models.StoreTimezone) error {
	_, err := DB.Exec(`INSERT INTO store_timezone (store_id, timezone_str) VALUES (?, ?)
		ON CONFLICT(store_id) DO UPDATE SET timezone_str = excluded.timezone_str`,
		tz.StoreID, tz.Timezone)
	return err
}

func formatClock(d time.Duration) string {
	t := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d)
	if t.Nanosecond() != 0 {
		return t.Format("15:04:05.999999999")
	}
	return t.Format("15:04:05")
}
