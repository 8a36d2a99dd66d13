package scheduler

import (
	"strings"

	"github.com/me/patrol/pkg/model"
)

// ResolveChain computes the transitive closure of enabled assignments
// reachable from start via "feeds into" edges: assignment X feeds
// assignment Y when Y's source instance is X's target instance. It
// returns the distinct instance names of the closure in insertion order
// (not topological order).
//
// The walk is a fixed-point BFS: a pass that adds nothing new to the
// result terminates the loop, so a cyclic dependency graph cannot spin
// forever.
func ResolveChain(start *model.Assignment, all []*model.Assignment) []string {
	toVisit := []*model.Assignment{start}
	inToVisit := map[uint64]bool{start.ID: true}

	var result []*model.Assignment
	inResult := make(map[uint64]bool)

	for len(toVisit) > 0 {
		progressed := false

		// Iterate a snapshot; the live list shrinks and grows underneath.
		snapshot := append([]*model.Assignment(nil), toVisit...)
		for _, source := range snapshot {
			for _, target := range all {
				if !target.Enabled || target.SourceInstanceName == "" {
					continue
				}
				if !strings.EqualFold(target.SourceInstanceName, source.InstanceName) {
					continue
				}
				if !inToVisit[target.ID] && !inResult[target.ID] {
					toVisit = append(toVisit, target)
					inToVisit[target.ID] = true
				}
			}

			if !inResult[source.ID] {
				inResult[source.ID] = true
				result = append(result, source)
				for i, a := range toVisit {
					if a.ID == source.ID {
						toVisit = append(toVisit[:i], toVisit[i+1:]...)
						break
					}
				}
				delete(inToVisit, source.ID)
				progressed = true
			}
		}

		if !progressed {
			break
		}
	}

	seen := make(map[string]bool)
	var names []string
	for _, a := range result {
		key := strings.ToLower(a.InstanceName)
		if !seen[key] {
			seen[key] = true
			names = append(names, a.InstanceName)
		}
	}
	return names
}
