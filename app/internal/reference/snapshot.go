// Package reference holds the immutable in-memory snapshot of the three
// input relations: polling observations, business hours and timezones.
package reference

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // stores may name any IANA zone

	"storemonitor/app/internal/models"
)

// DefaultTimezone applies to stores without a (valid) timezone row
const DefaultTimezone = "America/Chicago"

// Hours is a store's open interval for one calendar date, as offsets from
// local midnight. Close <= Open means the store closes the following day.
type Hours struct {
	Open  time.Duration
	Close time.Duration
}

// FullDay covers 00:00 up to, but excluding, the next midnight
var FullDay = Hours{Open: 0, Close: 24 * time.Hour}

// Overnight reports whether the interval ends on the next calendar day
func (h Hours) Overnight() bool {
	return h.Close <= h.Open
}

func (h Hours) String() string {
	return fmt.Sprintf("%s-%s", clock(h.Open), clock(h.Close))
}

func clock(d time.Duration) string {
	if d >= 24*time.Hour {
		return "23:59:59.999"
	}
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("15:04:05")
}

// Warning is a data-quality finding recorded while building a snapshot
type Warning struct {
	StoreID string
	Message string
	Details string
}

type store struct {
	observations []models.Observation
	schedule     [7]*Hours
	location     *time.Location
}

// Snapshot is read-only after Build returns and safe for concurrent use
type Snapshot struct {
	stores          map[string]*store
	ids             []string
	latest          time.Time
	observations    int
	defaultLocation *time.Location
}

// Build assembles a snapshot from raw rows. Observations need not be
// sorted; for duplicate instants within a store the later row wins.
// For duplicate schedule rows on the same weekday the first row wins.
func Build(obs []models.Observation, rules []models.BusinessHourRule, zones []models.StoreTimezone, defaultLoc *time.Location) (*Snapshot, []Warning) {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	s := &Snapshot{
		stores:          make(map[string]*store),
		defaultLocation: defaultLoc,
	}
	var warnings []Warning

	get := func(id string) *store {
		st, ok := s.stores[id]
		if !ok {
			st = &store{location: defaultLoc}
			s.stores[id] = st
		}
		return st
	}

	for _, o := range obs {
		o.Timestamp = o.Timestamp.UTC()
		st := get(o.StoreID)
		st.observations = append(st.observations, o)
	}
	for _, st := range s.stores {
		st.observations = dedupe(st.observations)
		s.observations += len(st.observations)
		if n := len(st.observations); n > 0 {
			if last := st.observations[n-1].Timestamp; last.After(s.latest) {
				s.latest = last
			}
		}
	}

	duplicates := map[string][]int{}
	for _, r := range rules {
		st := get(r.StoreID)
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			warnings = append(warnings, Warning{
				StoreID: r.StoreID,
				Message: "Business hours row ignored",
				Details: fmt.Sprintf("day_of_week=%d out of range", r.DayOfWeek),
			})
			continue
		}
		if st.schedule[r.DayOfWeek] != nil {
			duplicates[r.StoreID] = append(duplicates[r.StoreID], r.DayOfWeek)
			continue
		}
		st.schedule[r.DayOfWeek] = &Hours{Open: r.Start, Close: r.End}
	}
	for id, days := range duplicates {
		slices.Sort(days)
		days = slices.Compact(days)
		parts := make([]string, len(days))
		for i, d := range days {
			parts[i] = fmt.Sprintf("%d=%s", d, s.stores[id].schedule[d])
		}
		warnings = append(warnings, Warning{
			StoreID: id,
			Message: "Multiple business hours rows for the same day; using the first",
			Details: strings.Join(parts, ", "),
		})
	}

	locations := map[string]*time.Location{}
	for _, z := range zones {
		st := get(z.StoreID)
		loc, ok := locations[z.Timezone]
		if !ok {
			var err error
			loc, err = time.LoadLocation(z.Timezone)
			if err != nil || z.Timezone == "" {
				loc = nil
			}
			locations[z.Timezone] = loc
		}
		if loc == nil {
			warnings = append(warnings, Warning{
				StoreID: z.StoreID,
				Message: "Unknown timezone; using default",
				Details: fmt.Sprintf("timezone=%q, default=%s", z.Timezone, defaultLoc),
			})
			continue
		}
		st.location = loc
	}

	s.ids = make([]string, 0, len(s.stores))
	for id := range s.stores {
		s.ids = append(s.ids, id)
	}
	sort.Strings(s.ids)
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].StoreID < warnings[j].StoreID })

	return s, warnings
}

// dedupe sorts by time and keeps the last of any run of equal timestamps
func dedupe(obs []models.Observation) []models.Observation {
	slices.SortStableFunc(obs, func(a, b models.Observation) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	out := obs[:0]
	for _, o := range obs {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(o.Timestamp) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return slices.Clip(out)
}

// Has reports whether the store appears in any of the three relations
func (s *Snapshot) Has(storeID string) bool {
	_, ok := s.stores[storeID]
	return ok
}

// StoreIDs returns all known store ids in sorted order
func (s *Snapshot) StoreIDs() []string {
	return slices.Clone(s.ids)
}

// NumStores returns the number of known stores
func (s *Snapshot) NumStores() int { return len(s.ids) }

// NumObservations returns the number of distinct observations
func (s *Snapshot) NumObservations() int { return s.observations }

// Observations returns the store's observations in ascending time order.
// The slice is shared and must not be modified.
func (s *Snapshot) Observations(storeID string) []models.Observation {
	if st, ok := s.stores[storeID]; ok {
		return st.observations
	}
	return nil
}

// LatestObservation returns the store's most recent observation time
func (s *Snapshot) LatestObservation(storeID string) (time.Time, bool) {
	obs := s.Observations(storeID)
	if len(obs) == 0 {
		return time.Time{}, false
	}
	return obs[len(obs)-1].Timestamp, true
}

// Latest returns the most recent observation time across all stores
func (s *Snapshot) Latest() (time.Time, bool) {
	return s.latest, !s.latest.IsZero()
}

// Location returns the store's timezone, or the default one
func (s *Snapshot) Location(storeID string) *time.Location {
	if st, ok := s.stores[storeID]; ok {
		return st.location
	}
	return s.defaultLocation
}

// Hours resolves the store's business hours for the calendar date of d
// (its year, month and day as given, in d's own location). Without a
// schedule row for that weekday the store is open all day.
func (s *Snapshot) Hours(storeID string, d time.Time) Hours {
	st, ok := s.stores[storeID]
	if !ok {
		return FullDay
	}
	if h := st.schedule[DayOfWeek(d)]; h != nil {
		return *h
	}
	return FullDay
}

// DayOfWeek maps a date to the schedule convention 0=Monday .. 6=Sunday
func DayOfWeek(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}
