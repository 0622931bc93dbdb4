// Package assoc aligns the two task taxonomies: it derives deduplicated,
// operator-numbered task lists from raw Toggl entries and Harvest task
// assignments, parses the interactive association-rule grammar, and builds
// the mapping that drives the transfer plan.
package assoc

import (
	"sort"

	"github.com/a3ng7n/timesheet-sync/pkg/harvest"
	"github.com/a3ng7n/timesheet-sync/pkg/toggl"
)

// TaskKey identifies a source task: the optional project grouping plus the
// free-text description. HasGroup keeps "no project" distinct from any real
// project id; the zero id is only ever a sort key.
type TaskKey struct {
	HasGroup    bool
	GroupID     int64
	Description string
}

// SourceTask is a deduplicated Toggl task identity. DisplayID is the dense
// run-scoped number the operator types in association rules; it has no
// meaning outside one run.
type SourceTask struct {
	DisplayID   int
	ProjectID   *int64
	Project     string
	Description string
}

// Key returns the task's identity key.
func (t SourceTask) Key() TaskKey {
	k := TaskKey{Description: t.Description}
	if t.ProjectID != nil {
		k.HasGroup = true
		k.GroupID = *t.ProjectID
	}
	return k
}

// DestinationTask is a deduplicated Harvest (client, project, task) triple
// with its own run-scoped DisplayID.
type DestinationTask struct {
	DisplayID   int
	ClientID    int64
	ClientName  string
	ProjectID   int64
	ProjectName string
	TaskID      int64
	TaskName    string
}

// BuildSourceTasks dedupes report entries on (project id, description),
// sorts by project id with ungrouped entries first, and assigns dense
// display ids.
func BuildSourceTasks(entries []toggl.ReportEntry) []SourceTask {
	seen := make(map[TaskKey]bool)
	var tasks []SourceTask
	for _, e := range entries {
		t := SourceTask{
			ProjectID:   e.PID,
			Project:     e.Project,
			Description: e.Description,
		}
		k := t.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		tasks = append(tasks, t)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return sortID(tasks[i].ProjectID) < sortID(tasks[j].ProjectID)
	})
	for i := range tasks {
		tasks[i].DisplayID = i
	}
	return tasks
}

// BuildDestinationTasks dedupes assigned tasks on the full triple, sorts by
// client id, and assigns dense display ids.
func BuildDestinationTasks(assigned []harvest.AssignedTask) []DestinationTask {
	type triple struct{ client, project, task int64 }
	seen := make(map[triple]bool)
	var tasks []DestinationTask
	for _, a := range assigned {
		k := triple{a.Client.ID, a.Project.ID, a.Task.ID}
		if seen[k] {
			continue
		}
		seen[k] = true
		tasks = append(tasks, DestinationTask{
			ClientID:    a.Client.ID,
			ClientName:  a.Client.Name,
			ProjectID:   a.Project.ID,
			ProjectName: a.Project.Name,
			TaskID:      a.Task.ID,
			TaskName:    a.Task.Name,
		})
	}

	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].ClientID < tasks[j].ClientID })
	for i := range tasks {
		tasks[i].DisplayID = i
	}
	return tasks
}

// sortID is the ordering substitute for a missing group. Used only for
// sorting, never for identity.
func sortID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// Mapping is one source task's destination pairs: parallel ordered lists
// where the i-th project id pairs with the i-th task id.
type Mapping struct {
	ProjectIDs []int64
	TaskIDs    []int64
}

// Map is the full association from source task identity to destination
// pairs. Source tasks referenced by no rule keep empty lists and are never
// transferred.
type Map map[TaskKey]*Mapping

// BuildMap assembles the association map from resolved config groups. A task
// appearing in several groups accumulates pairs from each, in group order.
func BuildMap(groups []ConfigGroup, sourceTasks []SourceTask) Map {
	m := make(Map, len(sourceTasks))
	for _, t := range sourceTasks {
		m[t.Key()] = &Mapping{}
	}

	for _, g := range groups {
		for _, src := range g.Sources {
			mp := m[src.Key()]
			for _, dst := range g.Destinations {
				mp.ProjectIDs = append(mp.ProjectIDs, dst.ProjectID)
				mp.TaskIDs = append(mp.TaskIDs, dst.TaskID)
			}
		}
	}
	return m
}
