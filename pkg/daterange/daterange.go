// Package daterange resolves operator-supplied date selectors into the
// concrete window of calendar days a sync run covers, and splits that window
// into the sub-ranges the Toggl reports API will accept.
package daterange

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/araddon/dateparse"
)

// ErrInvalidDate is returned when none of the supplied date strings parse.
var ErrInvalidDate = errors.New("no valid dates in range")

// MaxSpanDays is the longest range the Toggl detailed report endpoint will
// serve in a single request.
const MaxSpanDays = 180

// Window is a half-open range of calendar days: Start is the first day to
// include, End is the day after the last day to include. Both are naive
// midnights (UTC wall clock, localized later by consumers).
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of days spanned by the half-open window.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// Span is one sub-range of a partitioned window, inclusive of both endpoints
// at the day level. Spans are what get localized into request parameters.
type Span struct {
	Since time.Time
	Until time.Time
}

// Localize attaches the source account's timezone to the span endpoints,
// keeping the wall-clock dates.
func (s Span) Localize(loc *time.Location) (time.Time, time.Time) {
	return atMidnight(s.Since, loc), atMidnight(s.Until, loc)
}

// Resolve turns the date selection options into a concrete Window.
//
// Exactly one selector is expected; a nonzero day count wins over explicit
// dates. With a day count the window is the trailing |days| days ending
// tomorrow-midnight, so "today" is always included as the boundary day.
// Explicit date strings are parsed leniently; unparseable strings are
// dropped, a single surviving date becomes the lower bound with today as the
// upper, and the two bounds may arrive in either order. With no selector at
// all the default is the trailing 365-day window.
func Resolve(days int, dates []string, now time.Time) (Window, error) {
	today := atMidnight(now, time.UTC)

	switch {
	case days != 0:
		if days < 0 {
			days = -days
		}
		end := today.AddDate(0, 0, 1)
		return Window{Start: end.AddDate(0, 0, -(days + 1)), End: end}, nil

	case len(dates) > 0:
		parsed := make([]time.Time, 0, 2)
		for _, s := range dates {
			t, err := dateparse.ParseAny(s)
			if err != nil {
				continue
			}
			parsed = append(parsed, atMidnight(t, time.UTC))
		}
		if len(parsed) == 0 {
			return Window{}, fmt.Errorf("%w: %q", ErrInvalidDate, dates)
		}
		if len(parsed) == 1 {
			parsed = append(parsed, today)
		}
		sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })
		return Window{
			Start: parsed[0],
			End:   parsed[len(parsed)-1].AddDate(0, 0, 1),
		}, nil

	default:
		end := today.AddDate(0, 0, 1)
		return Window{Start: end.AddDate(0, 0, -365), End: end}, nil
	}
}

// Partition splits a window into consecutive Spans of at most maxSpanDays
// days: full chunks of exactly maxSpanDays, then one trailing partial chunk
// covering the remainder.
func Partition(w Window, maxSpanDays int) []Span {
	total := w.Days()
	chunks := total / maxSpanDays
	rem := total % maxSpanDays

	spans := make([]Span, 0, chunks+1)
	for i := 0; i < chunks; i++ {
		spans = append(spans, Span{
			Since: w.Start.AddDate(0, 0, i*maxSpanDays),
			Until: w.Start.AddDate(0, 0, (i+1)*maxSpanDays-1),
		})
	}
	if rem > 0 {
		spans = append(spans, Span{
			Since: w.Start.AddDate(0, 0, chunks*maxSpanDays),
			Until: w.Start.AddDate(0, 0, chunks*maxSpanDays+rem),
		})
	}
	return spans
}

func atMidnight(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
