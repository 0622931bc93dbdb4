// Package plan decides which aggregated source hours become new destination
// entries and shapes them into the exact submission payload.
package plan

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/a3ng7n/timesheet-sync/pkg/aggregate"
	"github.com/a3ng7n/timesheet-sync/pkg/assoc"
)

// TransferItem is one entry queued for submission. The field names are the
// wire contract with the destination service.
type TransferItem struct {
	UserID    int64   `json:"user_id"`
	ProjectID int64   `json:"project_id"`
	TaskID    int64   `json:"task_id"`
	SpentDate string  `json:"spent_date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
}

// RoundHours rounds to 2 decimal places, half away from zero on the decimal
// value (2.335 -> 2.34). Done in decimal arithmetic because the .5 boundary
// does not exist in binary floats.
func RoundHours(h float64) float64 {
	return decimal.NewFromFloat(h).Round(2).InexactFloat64()
}

// Plan emits one TransferItem per associated (day, task, destination pair).
// A day is eligible only when the source side has tasked time and the
// destination side has none at all: any existing destination activity,
// however small, leaves the whole day untouched so a repeated run can never
// double-count. Source tasks with no association are silently skipped.
// Output is sorted by date, then project grouping, then description.
func Plan(buckets map[time.Time]*aggregate.DayBucket, m assoc.Map, userID int64) []TransferItem {
	dates := make([]time.Time, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var items []TransferItem
	for _, date := range dates {
		bucket := buckets[date]
		if len(bucket.Source) == 0 || len(bucket.Destination) != 0 {
			continue
		}

		groups := make([]aggregate.GroupKey, 0, len(bucket.Source))
		for gk := range bucket.Source {
			groups = append(groups, gk)
		}
		sort.Slice(groups, func(i, j int) bool { return lessGroup(groups[i], groups[j]) })

		for _, gk := range groups {
			descs := make([]string, 0, len(bucket.Source[gk]))
			for desc := range bucket.Source[gk] {
				descs = append(descs, desc)
			}
			sort.Strings(descs)

			for _, desc := range descs {
				mp, ok := m[taskKey(gk, desc)]
				if !ok || mp == nil {
					continue
				}

				hours := RoundHours(bucket.Source[gk][desc])
				pairs := len(mp.ProjectIDs)
				if len(mp.TaskIDs) < pairs {
					pairs = len(mp.TaskIDs)
				}
				for i := 0; i < pairs; i++ {
					items = append(items, TransferItem{
						UserID:    userID,
						ProjectID: mp.ProjectIDs[i],
						TaskID:    mp.TaskIDs[i],
						SpentDate: date.Format("2006-01-02"),
						Hours:     hours,
						Notes:     desc,
					})
				}
			}
		}
	}
	return items
}

func taskKey(gk aggregate.GroupKey, desc string) assoc.TaskKey {
	return assoc.TaskKey{HasGroup: gk.HasGroup, GroupID: gk.GroupID, Description: desc}
}

func lessGroup(a, b aggregate.GroupKey) bool {
	if a.HasGroup != b.HasGroup {
		return !a.HasGroup // no-group sorts first
	}
	return a.GroupID < b.GroupID
}
