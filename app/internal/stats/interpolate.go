package stats

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"storemonitor/app/internal/models"
)

// ErrInvalidInterval is returned for empty or inverted query intervals
var ErrInvalidInterval = errors.New("invalid interval")

// Estimate is the time a store spent up and down within some interval
type Estimate struct {
	Uptime   time.Duration
	Downtime time.Duration
}

// Add returns the component-wise sum
func (e Estimate) Add(o Estimate) Estimate {
	return Estimate{Uptime: e.Uptime + o.Uptime, Downtime: e.Downtime + o.Downtime}
}

// Total is the covered time, uptime plus downtime
func (e Estimate) Total() time.Duration {
	return e.Uptime + e.Downtime
}

func (e *Estimate) add(status models.Status, d time.Duration) {
	if status == models.StatusActive {
		e.Uptime += d
	} else {
		e.Downtime += d
	}
}

// Interpolate estimates uptime and downtime over [start, end) from a
// time-ordered observation series. Each observation's status holds until the
// next observation. Before the first observation in the interval the status
// of the latest earlier observation applies, or of the first later one when
// nothing precedes start. With no observations at all the result is zero.
func Interpolate(obs []models.Observation, start, end time.Time) (Estimate, error) {
	if !end.After(start) {
		return Estimate{}, fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval,
			start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano))
	}
	if len(obs) == 0 {
		return Estimate{}, nil
	}

	i := sort.Search(len(obs), func(k int) bool {
		return obs[k].Timestamp.After(start)
	})
	current := obs[0].Status
	if i > 0 {
		current = obs[i-1].Status
	}

	var e Estimate
	cursor := start
	for ; i < len(obs) && obs[i].Timestamp.Before(end); i++ {
		e.add(current, obs[i].Timestamp.Sub(cursor))
		cursor = obs[i].Timestamp
		current = obs[i].Status
	}
	e.add(current, end.Sub(cursor))
	return e, nil
}
