package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/me/patrol/pkg/model"
)

// Cache is the scheduler's in-memory mirror of assignment rules, keyed
// by id. It is the single source of truth during the evaluation loop and
// is safe for concurrent administrative mutation while the loop scans.
// Anomalies (duplicate add, delete of a missing id) are logged, never
// fatal.
type Cache struct {
	mu     sync.RWMutex
	byID   map[uint64]*model.Assignment
	store  AssignmentStore
	logger *slog.Logger
}

// NewCache creates an empty cache backed by st for reloads.
func NewCache(st AssignmentStore, logger *slog.Logger) *Cache {
	return &Cache{
		byID:   make(map[uint64]*model.Assignment),
		store:  st,
		logger: logger.With("component", "assignment-cache"),
	}
}

// Reload replaces the entire contents with a fresh full fetch from the
// store. Used at startup and for bulk re-syncs.
func (c *Cache) Reload(ctx context.Context) error {
	assignments, err := c.store.ListAssignments(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[uint64]*model.Assignment, len(assignments))
	for _, a := range assignments {
		cp := *a
		fresh[a.ID] = &cp
	}

	c.mu.Lock()
	c.byID = fresh
	c.mu.Unlock()

	c.logger.Debug("cache reloaded", "assignments", len(fresh))
	return nil
}

// Add inserts a rule. A duplicate id is logged and left untouched.
func (c *Cache) Add(a *model.Assignment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[a.ID]; exists {
		c.logger.Warn("add skipped, assignment already cached", "assignment_id", a.ID)
		return
	}
	cp := *a
	c.byID[a.ID] = &cp
}

// Edit replaces the rule with id oldID by newA. The replace happens
// under one lock, so the evaluation loop never observes the rule half
// removed.
func (c *Cache) Edit(newA *model.Assignment, oldID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[oldID]; !exists {
		c.logger.Warn("edit of uncached assignment", "assignment_id", oldID)
	}
	delete(c.byID, oldID)
	cp := *newA
	c.byID[newA.ID] = &cp
}

// Delete removes a rule by id. A missing id is logged.
func (c *Cache) Delete(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; !exists {
		c.logger.Warn("delete of uncached assignment", "assignment_id", id)
		return
	}
	delete(c.byID, id)
}

// GetByID returns the rule with the given id.
func (c *Cache) GetByID(id uint64) (*model.Assignment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.byID[id]
	return a, ok
}

// GetByIDs returns the rules for the given ids, missing entries
// silently omitted, in the order requested.
func (c *Cache) GetByIDs(ids []uint64) []*model.Assignment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*model.Assignment
	for _, id := range ids {
		if a, ok := c.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// All returns a snapshot of every cached rule, ordered by id.
func (c *Cache) All() []*model.Assignment {
	c.mu.RLock()
	out := make([]*model.Assignment, 0, len(c.byID))
	for _, a := range c.byID {
		out = append(out, a)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of cached rules.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
