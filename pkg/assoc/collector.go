package assoc

import (
	"errors"
	"fmt"
	"io"

	"github.com/a3ng7n/timesheet-sync/pkg/prompt"
)

// CollectorState is the phase of the interactive rule-entry loop.
type CollectorState int

const (
	// CollectingRules waits for the operator to enter a rule line.
	CollectingRules CollectorState = iota
	// Reviewing shows the still-unreferenced tasks and asks whether to
	// continue entering rules.
	Reviewing
	// Done means the operator declined to enter more rules.
	Done
)

const helpText = `You'll need to enter which Toggl tasks you'd like to associate with which Harvest tasks.
You'll be asked to enter an association formula - the formula should take the following form:

    <task config>|<task config>|..., where each <task config> is formatted as follows:
    (toggl ids)>(harvest ids), where ids can be comma separated and include :'s to denote ranges.

For example:
User enters: 1:3,5,7>2,3|4,6>1
Result: Toggl entries in task #s 1,2,3,5 and 7 will be added as Harvest entries in task #s 2 and 3, and
        Toggl entries in task #s 4 and 6 will be added as Harvest entries in task #1

NOTE: Any task #s not appearing in a task config will be ignored.`

// Collector runs the interactive association step as an explicit state
// machine, keeping the rule parsing itself free of any I/O.
type Collector struct {
	sourceTasks []SourceTask
	destTasks   []DestinationTask

	state  CollectorState
	groups []ConfigGroup
}

// NewCollector creates a Collector over the two aligned task lists.
func NewCollector(sourceTasks []SourceTask, destTasks []DestinationTask) *Collector {
	return &Collector{sourceTasks: sourceTasks, destTasks: destTasks, state: CollectingRules}
}

// State returns the collector's current phase.
func (c *Collector) State() CollectorState { return c.state }

// Groups returns the config groups collected so far, in entry order.
func (c *Collector) Groups() []ConfigGroup { return c.groups }

// Collect shows both task tables and loops: read a rule line, resolve it,
// review what is still unreferenced, ask whether to continue. It returns the
// accumulated groups once the operator declines. Unknown display ids abort
// immediately; an unreadable line is reported and re-prompted.
func (c *Collector) Collect(p prompt.Prompter, out io.Writer) ([]ConfigGroup, error) {
	fmt.Fprintln(out, "The following are two tables, one showing the tasks across your Toggl account, and the other showing")
	fmt.Fprintln(out, "tasks across your Harvest account.")
	RenderTaskTables(out, c.sourceTasks, c.destTasks)
	fmt.Fprintln(out, helpText)

	for c.state != Done {
		switch c.state {
		case CollectingRules:
			line, err := p.Line("Enter one or more task configs: ")
			if err != nil {
				return nil, err
			}
			groups, err := ParseConfigs(line, c.sourceTasks, c.destTasks)
			if errors.Is(err, ErrRuleSyntax) {
				fmt.Fprintf(out, "could not read that: %v\n", err)
				continue
			}
			if err != nil {
				return nil, err
			}
			c.groups = append(c.groups, groups...)
			c.state = Reviewing

		case Reviewing:
			srcLeft, dstLeft := c.unreferenced()
			fmt.Fprintln(out, "The following are the tasks that will be ignored - ")
			RenderTaskTables(out, srcLeft, dstLeft)

			again, err := p.YesNo("add another task config? (y/n) ")
			if err != nil {
				return nil, err
			}
			if again {
				c.state = CollectingRules
			} else {
				c.state = Done
			}
		}
	}

	return c.groups, nil
}

// unreferenced returns the tasks on each side that appear in no collected
// group.
func (c *Collector) unreferenced() ([]SourceTask, []DestinationTask) {
	srcUsed := make(map[int]bool)
	dstUsed := make(map[int]bool)
	for _, g := range c.groups {
		for _, t := range g.Sources {
			srcUsed[t.DisplayID] = true
		}
		for _, t := range g.Destinations {
			dstUsed[t.DisplayID] = true
		}
	}

	var src []SourceTask
	for _, t := range c.sourceTasks {
		if !srcUsed[t.DisplayID] {
			src = append(src, t)
		}
	}
	var dst []DestinationTask
	for _, t := range c.destTasks {
		if !dstUsed[t.DisplayID] {
			dst = append(dst, t)
		}
	}
	return src, dst
}
