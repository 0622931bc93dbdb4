package toggl

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp handles the RFC3339-with-offset timestamps the Toggl report API
// emits for entry start/end instants.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface for Timestamp.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		ts.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("failed to parse Toggl time string '%s': %w", s, err)
	}
	ts.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Timestamp.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ts.Time.Format(time.RFC3339) + `"`), nil
}

// Me is the subset of the /me payload the sync needs: which timezone the
// account records entries in.
type Me struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
	APIToken string `json:"api_token,omitempty"`
}

// Workspace is one Toggl workspace; entries are reported per workspace.
type Workspace struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReportEntry is one timed record from the detailed report endpoint.
// PID is the project grouping and is genuinely optional: entries tracked
// without a project carry no id at all, which must never collapse into a
// real project whose id happens to be zero.
type ReportEntry struct {
	ID          int64     `json:"id"`
	PID         *int64    `json:"pid"`
	Project     string    `json:"project"`
	Description string    `json:"description"`
	Start       Timestamp `json:"start"`
	DurationMS  int64     `json:"dur"`
}

// Hours converts the entry's millisecond duration to decimal hours.
func (e ReportEntry) Hours() float64 {
	return float64(e.DurationMS) / 3600000
}

// ReportPage is one page of the detailed report. TotalCount is stable across
// pages of the same query and drives the pagination loop.
type ReportPage struct {
	TotalCount int           `json:"total_count"`
	PerPage    int           `json:"per_page"`
	Data       []ReportEntry `json:"data"`
}
