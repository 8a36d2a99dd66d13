package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/me/patrol/pkg/model"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	sched, _, _ := testSetup(t)
	return sched.Cache()
}

func TestCache_AddDuplicateKeepsOriginal(t *testing.T) {
	c := newTestCache(t)

	c.Add(&model.Assignment{ID: 1, InstanceName: "Quest-AM"})
	c.Add(&model.Assignment{ID: 1, InstanceName: "Quest-PM"})

	a, ok := c.GetByID(1)
	if !ok {
		t.Fatal("assignment 1 missing")
	}
	if a.InstanceName != "Quest-AM" {
		t.Errorf("InstanceName = %q, want Quest-AM (duplicate add must be a no-op)", a.InstanceName)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_AddStoresCopy(t *testing.T) {
	c := newTestCache(t)

	a := &model.Assignment{ID: 1, InstanceName: "Quest-AM"}
	c.Add(a)
	a.InstanceName = "mutated"

	got, _ := c.GetByID(1)
	if got.InstanceName != "Quest-AM" {
		t.Errorf("caller mutation leaked into cache: %q", got.InstanceName)
	}
}

func TestCache_EditReplacesUnderNewID(t *testing.T) {
	c := newTestCache(t)

	c.Add(&model.Assignment{ID: 1, InstanceName: "Quest-AM"})
	c.Edit(&model.Assignment{ID: 2, InstanceName: "Quest-PM"}, 1)

	if _, ok := c.GetByID(1); ok {
		t.Error("old id still present after edit")
	}
	a, ok := c.GetByID(2)
	if !ok {
		t.Fatal("new id missing after edit")
	}
	if a.InstanceName != "Quest-PM" {
		t.Errorf("InstanceName = %q, want Quest-PM", a.InstanceName)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	// Editing an id that was never cached still lands the new value.
	c.Edit(&model.Assignment{ID: 7, InstanceName: "Leveling"}, 99)
	if _, ok := c.GetByID(7); !ok {
		t.Error("edit of uncached id did not insert the replacement")
	}
}

func TestCache_DeleteMissingIsNoOp(t *testing.T) {
	c := newTestCache(t)

	c.Add(&model.Assignment{ID: 1})
	c.Delete(99)
	c.Delete(1)
	c.Delete(1)

	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCache_GetByIDsOmitsMissing(t *testing.T) {
	c := newTestCache(t)

	c.Add(&model.Assignment{ID: 1, InstanceName: "A"})
	c.Add(&model.Assignment{ID: 3, InstanceName: "C"})

	got := c.GetByIDs([]uint64{3, 2, 1})
	if len(got) != 2 {
		t.Fatalf("got %d assignments, want 2", len(got))
	}
	if got[0].InstanceName != "C" || got[1].InstanceName != "A" {
		t.Errorf("order = [%s %s], want [C A]", got[0].InstanceName, got[1].InstanceName)
	}
}

func TestCache_AllSortedByID(t *testing.T) {
	c := newTestCache(t)

	for _, id := range []uint64{5, 1, 3} {
		c.Add(&model.Assignment{ID: id})
	}

	all := c.All()
	if len(all) != 3 {
		t.Fatalf("got %d assignments, want 3", len(all))
	}
	for i, want := range []uint64{1, 3, 5} {
		if all[i].ID != want {
			t.Errorf("All()[%d].ID = %d, want %d", i, all[i].ID, want)
		}
	}
}

func TestCache_ReloadReplacesContents(t *testing.T) {
	sched, st, _ := testSetup(t)
	c := sched.Cache()
	ctx := context.Background()

	c.Add(&model.Assignment{ID: 99, InstanceName: "stale"})

	a := &model.Assignment{InstanceName: "Quest-AM", DeviceUUID: "dev1", Enabled: true, Time: 100}
	if err := st.CreateAssignment(ctx, a); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	if err := c.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if _, ok := c.GetByID(99); ok {
		t.Error("stale entry survived reload")
	}
	if _, ok := c.GetByID(a.ID); !ok {
		t.Error("stored assignment missing after reload")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

// TestCache_ConcurrentAccess is a race-detector smoke test: mutations
// and scans interleave without panics or corruption.
func TestCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(t)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(base uint64) {
			defer wg.Done()
			for i := uint64(0); i < 100; i++ {
				id := base*1000 + i
				c.Add(&model.Assignment{ID: id})
				c.GetByID(id)
				c.All()
				c.Delete(id)
			}
		}(uint64(g))
	}
	wg.Wait()

	if c.Len() != 0 {
		t.Errorf("Len = %d after balanced add/delete, want 0", c.Len())
	}
}
