package assoc

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

const nameWidth = 20

// RenderTaskTables prints the two task lists side by side in one grid table,
// display ids first so the operator can reference rows in rules. The two
// sides are zipped row by row; the shorter side gets blank cells.
func RenderTaskTables(w io.Writer, sourceTasks []SourceTask, destTasks []DestinationTask) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"Toggl #", "Toggl Project", "Toggl Task Desc.",
		"Harvest #", "Harvest Client", "Harvest Project", "Harvest Task",
	})
	table.SetRowLine(true)

	rows := len(sourceTasks)
	if len(destTasks) > rows {
		rows = len(destTasks)
	}
	for i := 0; i < rows; i++ {
		row := []string{"", "", "", "", "", "", ""}
		if i < len(sourceTasks) {
			t := sourceTasks[i]
			row[0] = strconv.Itoa(t.DisplayID)
			row[1] = shorten(t.Project, nameWidth)
			row[2] = t.Description
		}
		if i < len(destTasks) {
			t := destTasks[i]
			row[3] = strconv.Itoa(t.DisplayID)
			row[4] = shorten(t.ClientName, nameWidth)
			row[5] = t.ProjectName
			row[6] = t.TaskName
		}
		table.Append(row)
	}
	table.Render()
}

// shorten truncates a name to width runes with a trailing ellipsis.
func shorten(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
