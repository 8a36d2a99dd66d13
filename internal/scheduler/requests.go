package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/me/patrol/pkg/model"
)

// ReQuest resets a pipeline of quest work: it resolves the dependency
// chain of every named assignment, clears accumulated quest state for
// each affected instance, notifies the instance's job controller to
// reload, and finally force-triggers the named assignments.
//
// Disabled or missing ids are ignored; an error is returned only when
// nothing at all could be resolved. A failure on one instance (unknown
// instance, empty geofence set, clear error) skips that instance and
// never aborts the rest, nor the final trigger.
func (s *Scheduler) ReQuest(ctx context.Context, ids []uint64) error {
	var targets []*model.Assignment
	for _, a := range s.cache.GetByIDs(ids) {
		if a.Enabled {
			targets = append(targets, a)
		}
	}
	if len(targets) == 0 {
		return fmt.Errorf("no enabled assignments among ids %v", ids)
	}

	// One store call maps instance names to quest-bearing instances.
	questInstances, err := s.store.ListInstancesByType(ctx, model.InstanceTypeQuest)
	if err != nil {
		return fmt.Errorf("list quest instances: %w", err)
	}
	// Instance names match case-insensitively everywhere else (trigger
	// gates, chain edges), so key the lookup and the union the same way.
	byName := make(map[string]*model.Instance, len(questInstances))
	for _, inst := range questInstances {
		byName[strings.ToLower(inst.Name)] = inst
	}

	all := s.cache.All()
	seen := make(map[string]bool)
	var instancesToClear []string
	for _, t := range targets {
		for _, name := range ResolveChain(t, all) {
			if key := strings.ToLower(name); !seen[key] {
				seen[key] = true
				instancesToClear = append(instancesToClear, name)
			}
		}
	}
	s.logger.Info("re-quest", "targets", len(targets), "instances", instancesToClear)

	for _, name := range instancesToClear {
		inst, ok := byName[strings.ToLower(name)]
		if !ok {
			s.logger.Warn("chain instance is not a quest instance, skipping", "instance", name)
			continue
		}
		fences, err := s.fences.GetGeofencesByNames(ctx, inst.Geofences)
		if err != nil {
			s.logger.Error("geofence lookup failed", "instance", name, "error", err)
			continue
		}
		if len(fences) == 0 {
			s.logger.Warn("instance has no resolvable geofences, skipping", "instance", name)
			continue
		}
		if err := s.quests.ClearQuests(ctx, fences); err != nil {
			s.logger.Error("quest clear failed", "instance", name, "error", err)
			continue
		}
		s.logger.Info("quest state cleared", "instance", name, "geofences", len(fences))
		s.bus.PublishInstanceReload(inst)
	}

	for _, t := range targets {
		if err := s.Trigger(ctx, t, "", true); err != nil {
			s.logger.Error("re-quest trigger failed", "assignment_id", t.ID, "error", err)
		}
	}
	return nil
}
