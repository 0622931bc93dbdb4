package assoc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrRuleSyntax is returned when a non-blank input line matches no
	// config at all. Fragments the matcher cannot read are skipped, but a
	// whole line of them is almost certainly a typo and must not silently
	// turn into "ignore everything".
	ErrRuleSyntax = errors.New("no valid task configs in input")

	// ErrUnknownTaskID is returned when a rule references a display id with
	// no task behind it. Fatal: a partial mapping could be submitted as a
	// wrong charge.
	ErrUnknownTaskID = errors.New("no task with display id")
)

// The grammar: a |-separated list of configs, each config
// <source-ids>><destination-ids>, each id list a comma-separated mix of
// single ids and a:b inclusive ranges.
var (
	configPat = regexp.MustCompile(`(?P<config>(?P<srcids>(((\d+:\d+)|(\d+)),?)+)>(?P<dstids>(((\d+:\d+)|(\d+)),?)+))\|?`)
	idPat     = regexp.MustCompile(`(?P<id>((?P<first>\d+):(?P<second>\d+))|(?P<single>\d+)),?`)
)

// ConfigGroup is one resolved config: the source tasks on the left of the
// '>' and the destination tasks on the right, in entry order. Duplicates
// across groups are preserved.
type ConfigGroup struct {
	Sources      []SourceTask
	Destinations []DestinationTask
}

// ParseConfigs resolves one input line against the two task lists.
func ParseConfigs(line string, sourceTasks []SourceTask, destTasks []DestinationTask) ([]ConfigGroup, error) {
	matches := configPat.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrRuleSyntax, line)
	}

	srcIdx := configPat.SubexpIndex("srcids")
	dstIdx := configPat.SubexpIndex("dstids")

	var groups []ConfigGroup
	for _, m := range matches {
		srcIDs, err := expandIDs(m[srcIdx], len(sourceTasks))
		if err != nil {
			return nil, err
		}
		dstIDs, err := expandIDs(m[dstIdx], len(destTasks))
		if err != nil {
			return nil, err
		}

		g := ConfigGroup{}
		for _, id := range srcIDs {
			g.Sources = append(g.Sources, sourceTasks[id])
		}
		for _, id := range dstIDs {
			g.Destinations = append(g.Destinations, destTasks[id])
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// expandIDs resolves an id list segment into concrete display ids. Ranges
// expand ascending and inclusive; a reversed range is empty. Every id named
// must exist.
func expandIDs(segment string, limit int) ([]int, error) {
	firstIdx := idPat.SubexpIndex("first")
	secondIdx := idPat.SubexpIndex("second")
	singleIdx := idPat.SubexpIndex("single")

	var ids []int
	for _, m := range idPat.FindAllStringSubmatch(segment, -1) {
		if m[singleIdx] != "" {
			id, err := checkID(m[singleIdx], limit)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
			continue
		}

		first, err := checkID(m[firstIdx], limit)
		if err != nil {
			return nil, err
		}
		second, err := checkID(m[secondIdx], limit)
		if err != nil {
			return nil, err
		}
		for id := first; id <= second; id++ {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func checkID(s string, limit int) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTaskID, s)
	}
	if id < 0 || id >= limit {
		return 0, fmt.Errorf("%w: %d", ErrUnknownTaskID, id)
	}
	return id, nil
}
