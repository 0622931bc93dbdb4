package assoc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3ng7n/timesheet-sync/pkg/harvest"
	"github.com/a3ng7n/timesheet-sync/pkg/toggl"
)

func entry(pid *int64, desc string) toggl.ReportEntry {
	return toggl.ReportEntry{
		PID:         pid,
		Description: desc,
		Start:       toggl.Timestamp{Time: time.Now()},
		DurationMS:  3600000,
	}
}

func TestBuildSourceTasksDedupesAndSorts(t *testing.T) {
	entries := []toggl.ReportEntry{
		entry(int64p(20), "b"),
		entry(int64p(10), "a"),
		entry(int64p(20), "b"), // duplicate
		entry(nil, "loose"),
		entry(int64p(10), "a2"),
	}

	tasks := BuildSourceTasks(entries)
	require.Len(t, tasks, 4)

	// ungrouped sorts first, then by project id; display ids are dense
	assert.Nil(t, tasks[0].ProjectID)
	assert.Equal(t, "loose", tasks[0].Description)
	assert.Equal(t, int64(10), *tasks[1].ProjectID)
	assert.Equal(t, int64(10), *tasks[2].ProjectID)
	assert.Equal(t, int64(20), *tasks[3].ProjectID)
	for i, task := range tasks {
		assert.Equal(t, i, task.DisplayID)
	}
}

func TestBuildSourceTasksNilGroupDistinctFromZero(t *testing.T) {
	entries := []toggl.ReportEntry{
		entry(nil, "same desc"),
		entry(int64p(0), "same desc"),
	}

	tasks := BuildSourceTasks(entries)
	assert.Len(t, tasks, 2, "no-group must not merge with a real group id of 0")
}

func TestBuildDestinationTasksDedupesAndSorts(t *testing.T) {
	assigned := []harvest.AssignedTask{
		{
			Client:  harvest.ClientRef{ID: 2, Name: "Beta"},
			Project: harvest.ProjectRef{ID: 100, Name: "P"},
			Task:    harvest.TaskRef{ID: 200, Name: "T"},
		},
		{
			Client:  harvest.ClientRef{ID: 1, Name: "Alpha"},
			Project: harvest.ProjectRef{ID: 101, Name: "Q"},
			Task:    harvest.TaskRef{ID: 201, Name: "U"},
		},
		{
			// duplicate triple
			Client:  harvest.ClientRef{ID: 2, Name: "Beta"},
			Project: harvest.ProjectRef{ID: 100, Name: "P"},
			Task:    harvest.TaskRef{ID: 200, Name: "T"},
		},
	}

	tasks := BuildDestinationTasks(assigned)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Alpha", tasks[0].ClientName)
	assert.Equal(t, 0, tasks[0].DisplayID)
	assert.Equal(t, "Beta", tasks[1].ClientName)
	assert.Equal(t, 1, tasks[1].DisplayID)
}

func TestSourceTaskKey(t *testing.T) {
	grouped := SourceTask{ProjectID: int64p(5), Description: "d"}
	assert.Equal(t, TaskKey{HasGroup: true, GroupID: 5, Description: "d"}, grouped.Key())

	loose := SourceTask{Description: "d"}
	assert.Equal(t, TaskKey{Description: "d"}, loose.Key())
}
