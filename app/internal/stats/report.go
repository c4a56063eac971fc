package stats

import (
	"errors"
	"fmt"
	"time"

	"storemonitor/app/internal/models"
	"storemonitor/app/internal/reference"
)

// ErrUnknownStore is returned for store ids absent from every relation
var ErrUnknownStore = errors.New("unknown store")

// Window is a trailing period ending at the report anchor
type Window struct {
	Name   string
	Length time.Duration
}

var (
	LastHour = Window{Name: "last_hour", Length: time.Hour}
	LastDay  = Window{Name: "last_day", Length: 24 * time.Hour}
	LastWeek = Window{Name: "last_week", Length: 7 * 24 * time.Hour}
)

// Windows lists the report windows, shortest first
var Windows = []Window{LastHour, LastDay, LastWeek}

// Reporter computes uptime reports over an immutable reference snapshot.
// It holds no mutable state and is safe for concurrent use.
type Reporter struct {
	snap *reference.Snapshot
}

// NewReporter creates a reporter for the given snapshot
func NewReporter(snap *reference.Snapshot) *Reporter {
	return &Reporter{snap: snap}
}

// Snapshot returns the underlying reference snapshot
func (r *Reporter) Snapshot() *reference.Snapshot {
	return r.snap
}

// Estimate interpolates the store's status over [start, end). The interval
// is taken as given; callers restrict it to business hours.
func (r *Reporter) Estimate(storeID string, start, end time.Time) (Estimate, error) {
	return Interpolate(r.snap.Observations(storeID), start.UTC(), end.UTC())
}

// Anchor returns the report's "now": the store's latest observation, or the
// latest observation of any store when the store has none.
func (r *Reporter) Anchor(storeID string) (time.Time, bool) {
	if t, ok := r.snap.LatestObservation(storeID); ok {
		return t, true
	}
	return r.snap.Latest()
}

// WindowEstimate sums the estimate over business hours within
// [now-w.Length, now).
func (r *Reporter) WindowEstimate(storeID string, now time.Time, w Window) (Estimate, error) {
	var total Estimate
	for _, iv := range BusinessIntervals(r.snap, storeID, now.Add(-w.Length), now) {
		e, err := r.Estimate(storeID, iv.Start, iv.End)
		if err != nil {
			return Estimate{}, fmt.Errorf("store %s %s: %w", storeID, w.Name, err)
		}
		total = total.Add(e)
	}
	return total, nil
}

// Generate builds the store's report for the last hour, day and week.
// All figures are minutes.
func (r *Reporter) Generate(storeID string) (models.Report, error) {
	if !r.snap.Has(storeID) {
		return models.Report{}, fmt.Errorf("%w: %s", ErrUnknownStore, storeID)
	}
	report := models.Report{StoreID: storeID}

	now, ok := r.Anchor(storeID)
	if !ok {
		return report, nil
	}
	report.AsOf = now

	hour, err := r.WindowEstimate(storeID, now, LastHour)
	if err != nil {
		return models.Report{}, err
	}
	day, err := r.WindowEstimate(storeID, now, LastDay)
	if err != nil {
		return models.Report{}, err
	}
	week, err := r.WindowEstimate(storeID, now, LastWeek)
	if err != nil {
		return models.Report{}, err
	}

	report.UptimeLastHour = hour.Uptime.Minutes()
	report.DowntimeLastHour = hour.Downtime.Minutes()
	report.UptimeLastDay = day.Uptime.Minutes()
	report.DowntimeLastDay = day.Downtime.Minutes()
	report.UptimeLastWeek = week.Uptime.Minutes()
	report.DowntimeLastWeek = week.Downtime.Minutes()
	return report, nil
}

// GenerateAll builds reports for every known store in id order
func (r *Reporter) GenerateAll() ([]models.Report, error) {
	ids := r.snap.StoreIDs()
	out := make([]models.Report, 0, len(ids))
	for _, id := range ids {
		rep, err := r.Generate(id)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}
