// Package aggregate buckets entries from both services by calendar day in
// the source account's timezone, producing the per-day per-task hour totals
// the transfer plan is decided on.
package aggregate

import (
	"time"

	"github.com/a3ng7n/timesheet-sync/pkg/daterange"
	"github.com/a3ng7n/timesheet-sync/pkg/harvest"
	"github.com/a3ng7n/timesheet-sync/pkg/toggl"
)

const dateLayout = "2006-01-02"

// GroupKey is the optional project grouping of a source task. HasGroup
// keeps ungrouped entries distinct from any real project id.
type GroupKey struct {
	HasGroup bool
	GroupID  int64
}

// DayBucket holds one day's accumulated hours from each side. Source hours
// are bucketed two levels deep, project grouping then description;
// destination hours are bucketed by notes.
type DayBucket struct {
	Source      map[GroupKey]map[string]float64
	Destination map[string]float64
}

func newDayBucket() *DayBucket {
	return &DayBucket{
		Source:      make(map[GroupKey]map[string]float64),
		Destination: make(map[string]float64),
	}
}

// Aggregate buckets entries by day over the window. Day enumeration is
// inclusive of both window bounds (one day more than the half-open window --
// the boundary behavior downstream code depends on). A source entry belongs
// to the day whose (midnight, midnight+24h] interval contains its start in
// loc; an entry starting exactly at midnight of day d therefore lands on
// d-1. A destination entry belongs to the day its spent date names. Days
// with no entries on either side are omitted. Accumulation is a running
// sum, so input order never matters.
func Aggregate(w daterange.Window, src []toggl.ReportEntry, dst []harvest.TimeEntry, loc *time.Location) map[time.Time]*DayBucket {
	out := make(map[time.Time]*DayBucket)

	days := w.Days()
	for i := 0; i <= days; i++ {
		day := w.Start.AddDate(0, 0, i)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		dayEnd := dayStart.Add(24 * time.Hour)
		dayISO := day.Format(dateLayout)

		var bucket *DayBucket
		get := func() *DayBucket {
			if bucket == nil {
				bucket = newDayBucket()
				out[day] = bucket
			}
			return bucket
		}

		for _, e := range src {
			start := e.Start.In(loc)
			if start.After(dayStart) && !start.After(dayEnd) {
				b := get()
				gk := GroupKey{}
				if e.PID != nil {
					gk = GroupKey{HasGroup: true, GroupID: *e.PID}
				}
				if b.Source[gk] == nil {
					b.Source[gk] = make(map[string]float64)
				}
				b.Source[gk][e.Description] += e.Hours()
			}
		}

		for _, e := range dst {
			if e.SpentDate == dayISO {
				get().Destination[e.Notes] += e.Hours
			}
		}
	}

	return out
}
