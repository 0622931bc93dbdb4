// Package sync wires the whole run together: resolve the date window, fetch
// entries from both services, align the task taxonomies with the operator,
// aggregate by day, plan the transfer, and submit it.
package sync

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"github.com/a3ng7n/timesheet-sync/pkg/aggregate"
	"github.com/a3ng7n/timesheet-sync/pkg/assoc"
	"github.com/a3ng7n/timesheet-sync/pkg/daterange"
	"github.com/a3ng7n/timesheet-sync/pkg/harvest"
	"github.com/a3ng7n/timesheet-sync/pkg/plan"
	"github.com/a3ng7n/timesheet-sync/pkg/prompt"
	"github.com/a3ng7n/timesheet-sync/pkg/toggl"
)

// SourceClient is what the run needs from the source time-tracking service.
type SourceClient interface {
	Me(ctx context.Context) (*toggl.Me, error)
	Workspaces(ctx context.Context) ([]toggl.Workspace, error)
	FetchEntries(ctx context.Context, workspaceID int64, since, until time.Time) ([]toggl.ReportEntry, error)
}

// DestinationClient is what the run needs from the destination timesheet
// service.
type DestinationClient interface {
	Users(ctx context.Context) ([]harvest.User, error)
	TimeEntries(ctx context.Context) ([]harvest.TimeEntry, error)
	Projects(ctx context.Context) ([]harvest.Project, error)
	TaskAssignments(ctx context.Context) ([]harvest.TaskAssignment, error)
	CreateTimeEntry(ctx context.Context, entry harvest.NewTimeEntry) (*harvest.SubmitResult, error)
}

// Options selects what one run covers.
type Options struct {
	// Days is the trailing day count; zero means unset.
	Days int
	// DateRange is up to two natural-language date strings.
	DateRange []string
	// HarvestEmail selects the destination user entries are created under.
	HarvestEmail string
	// Timezone overrides the source account's reported timezone when set.
	Timezone string
	// Now is the run's reference clock; zero means time.Now().
	Now time.Time
}

// Syncer runs the reconciliation.
type Syncer struct {
	src    SourceClient
	dst    DestinationClient
	prompt prompt.Prompter
	out    io.Writer
	log    zerolog.Logger
}

// New creates a Syncer.
func New(src SourceClient, dst DestinationClient, p prompt.Prompter, out io.Writer, log zerolog.Logger) *Syncer {
	return &Syncer{src: src, dst: dst, prompt: p, out: out, log: log}
}

// Run executes one reconciliation pass end to end. Declining the final
// confirmation is a normal termination with zero submissions.
func (s *Syncer) Run(ctx context.Context, opts Options) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	window, err := daterange.Resolve(opts.Days, opts.DateRange, now)
	if err != nil {
		return err
	}

	loc, err := s.sourceLocation(ctx, opts.Timezone)
	if err != nil {
		return err
	}

	sourceEntries, err := s.fetchSourceEntries(ctx, window, loc)
	if err != nil {
		return err
	}
	sourceTasks := assoc.BuildSourceTasks(sourceEntries)

	users, err := s.dst.Users(ctx)
	if err != nil {
		return err
	}
	userID, err := harvest.LookupUserID(users, opts.HarvestEmail)
	if err != nil {
		return fmt.Errorf("could not find user with email address %s: %w", opts.HarvestEmail, err)
	}

	destEntries, err := s.dst.TimeEntries(ctx)
	if err != nil {
		return err
	}
	projects, err := s.dst.Projects(ctx)
	if err != nil {
		return err
	}
	assignments, err := s.dst.TaskAssignments(ctx)
	if err != nil {
		return err
	}
	assigned, err := harvest.ResolveClients(assignments, projects)
	if err != nil {
		return err
	}
	destTasks := assoc.BuildDestinationTasks(assigned)

	collector := assoc.NewCollector(sourceTasks, destTasks)
	groups, err := collector.Collect(s.prompt, s.out)
	if err != nil {
		return err
	}
	associations := assoc.BuildMap(groups, sourceTasks)

	buckets := aggregate.Aggregate(window, sourceEntries, destEntries, loc)
	items := plan.Plan(buckets, associations, userID)

	if len(items) == 0 {
		fmt.Fprintln(s.out, "Nothing to transfer: every day in range is either empty or already has Harvest entries.")
		return nil
	}

	fmt.Fprintln(s.out, "The following Toggl entries will be added to Harvest:")
	renderPlan(s.out, items)

	confirmed, err := s.prompt.YesNo("Add the entries noted above to harvest? (y/n) ")
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(s.out, "aborted")
		return nil
	}

	return s.submit(ctx, items)
}

// sourceLocation resolves the timezone day bucketing happens in: an
// explicit override, or whatever the source account reports.
func (s *Syncer) sourceLocation(ctx context.Context, override string) (*time.Location, error) {
	name := override
	if name == "" {
		me, err := s.src.Me(ctx)
		if err != nil {
			return nil, err
		}
		name = me.Timezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown source timezone %q: %w", name, err)
	}
	return loc, nil
}

// fetchSourceEntries collects report entries across every workspace and
// every partitioned sub-range, strictly sequentially.
func (s *Syncer) fetchSourceEntries(ctx context.Context, window daterange.Window, loc *time.Location) ([]toggl.ReportEntry, error) {
	workspaces, err := s.src.Workspaces(ctx)
	if err != nil {
		return nil, err
	}
	spans := daterange.Partition(window, daterange.MaxSpanDays)

	var entries []toggl.ReportEntry
	for _, ws := range workspaces {
		for _, span := range spans {
			since, until := span.Localize(loc)
			page, err := s.src.FetchEntries(ctx, ws.ID, since, until)
			if err != nil {
				return nil, err
			}
			entries = append(entries, page...)
		}
	}

	s.log.Info().Int("entries", len(entries)).Int("workspaces", len(workspaces)).Msg("collected toggl entries")
	return entries, nil
}

// submit posts the planned items one by one, reporting each raw response.
// A rejected item is reported and the loop continues; there is no batch
// transaction and no automatic retry.
func (s *Syncer) submit(ctx context.Context, items []plan.TransferItem) error {
	failed := 0
	for _, item := range items {
		fmt.Fprintf(s.out, "About to post: %+v\n", item)

		result, err := s.dst.CreateTimeEntry(ctx, harvest.NewTimeEntry(item))
		if err != nil {
			failed++
			s.log.Error().Err(err).Str("spent_date", item.SpentDate).Str("notes", item.Notes).Msg("submission failed")
			continue
		}
		fmt.Fprintf(s.out, "response (%d): %s\n", result.StatusCode, result.Body)
		if !result.Accepted {
			failed++
			s.log.Warn().Int("status", result.StatusCode).Str("spent_date", item.SpentDate).Msg("entry rejected")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d entries were not accepted", failed, len(items))
	}
	fmt.Fprintln(s.out, "done!")
	return nil
}

// renderPlan prints the pre-submission preview table, the operator's last
// inspection point before anything is written.
func renderPlan(w io.Writer, items []plan.TransferItem) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"user_id", "project_id", "task_id", "spent_date", "hours", "notes"})
	for _, item := range items {
		table.Append([]string{
			strconv.FormatInt(item.UserID, 10),
			strconv.FormatInt(item.ProjectID, 10),
			strconv.FormatInt(item.TaskID, 10),
			item.SpentDate,
			strconv.FormatFloat(item.Hours, 'f', -1, 64),
			item.Notes,
		})
	}
	table.Render()
}
