package store

import (
	"context"
	"testing"

	"github.com/me/patrol/internal/logging"
	"github.com/me/patrol/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleAssignment() *model.Assignment {
	return &model.Assignment{
		InstanceName:       "Quest-AM",
		SourceInstanceName: "Idle",
		DeviceGroupName:    "fleet-1",
		Time:               21600,
		Enabled:            true,
	}
}

// --- Migration tests ---

func TestMigrate_Idempotent(t *testing.T) {
	st := testStore(t)
	// Migrate a second time — should not error.
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

// --- Assignment CRUD ---

func TestAssignment_CRUD(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	a := sampleAssignment()
	if err := st.CreateAssignment(ctx, a); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	if a.ID == 0 {
		t.Fatal("CreateAssignment did not set the id")
	}

	got, err := st.GetAssignment(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAssignment: %v", err)
	}
	if got == nil {
		t.Fatal("GetAssignment returned nil")
	}
	if got.InstanceName != "Quest-AM" || got.Time != 21600 || !got.Enabled {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	got.Enabled = false
	got.Time = 0
	if err := st.UpdateAssignment(ctx, got); err != nil {
		t.Fatalf("UpdateAssignment: %v", err)
	}
	got, err = st.GetAssignment(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAssignment after update: %v", err)
	}
	if got.Enabled || got.Time != 0 {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := st.DeleteAssignment(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAssignment: %v", err)
	}
	got, err = st.GetAssignment(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAssignment after delete: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestUpdateAssignment_Missing(t *testing.T) {
	st := testStore(t)
	a := sampleAssignment()
	a.ID = 9999
	if err := st.UpdateAssignment(context.Background(), a); err == nil {
		t.Fatal("expected error updating a missing assignment")
	}
}

func TestListAssignments_Order(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		a := sampleAssignment()
		a.InstanceName = name
		if err := st.CreateAssignment(ctx, a); err != nil {
			t.Fatalf("CreateAssignment(%s): %v", name, err)
		}
	}

	all, err := st.ListAssignments(ctx)
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d assignments, want 3", len(all))
	}
	for i, want := range []string{"A", "B", "C"} {
		if all[i].InstanceName != want {
			t.Errorf("assignment %d = %q, want %q", i, all[i].InstanceName, want)
		}
	}
}

// --- Devices ---

func TestBatchUpdateDevices(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for _, uuid := range []string{"dev1", "dev2"} {
		if err := st.CreateDevice(ctx, &model.Device{UUID: uuid, InstanceName: "Idle"}); err != nil {
			t.Fatalf("CreateDevice(%s): %v", uuid, err)
		}
	}

	batch := []*model.Device{
		{UUID: "dev1", InstanceName: "Quest-AM"},
		{UUID: "dev2", InstanceName: "Quest-AM"},
	}
	if err := st.BatchUpdateDevices(ctx, batch); err != nil {
		t.Fatalf("BatchUpdateDevices: %v", err)
	}

	for _, uuid := range []string{"dev1", "dev2"} {
		d, err := st.GetDevice(ctx, uuid)
		if err != nil {
			t.Fatalf("GetDevice(%s): %v", uuid, err)
		}
		if d.InstanceName != "Quest-AM" {
			t.Errorf("%s on %q, want Quest-AM", uuid, d.InstanceName)
		}
	}
}

func TestBatchUpdateDevices_Empty(t *testing.T) {
	st := testStore(t)
	if err := st.BatchUpdateDevices(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
}

func TestGetDevice_Missing(t *testing.T) {
	st := testStore(t)
	d, err := st.GetDevice(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if d != nil {
		t.Errorf("expected nil for missing device, got %+v", d)
	}
}

// --- Device groups ---

func TestDeviceGroup_RoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	g := &model.DeviceGroup{Name: "fleet-1", DeviceUUIDs: []string{"dev1", "dev2"}}
	if err := st.CreateDeviceGroup(ctx, g); err != nil {
		t.Fatalf("CreateDeviceGroup: %v", err)
	}

	got, err := st.GetDeviceGroup(ctx, "fleet-1")
	if err != nil {
		t.Fatalf("GetDeviceGroup: %v", err)
	}
	if got == nil || len(got.DeviceUUIDs) != 2 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateDeviceGroup_RejectsEmpty(t *testing.T) {
	st := testStore(t)
	g := &model.DeviceGroup{Name: "empty"}
	if err := st.CreateDeviceGroup(context.Background(), g); err == nil {
		t.Fatal("expected error for empty device group")
	}
}

// --- Instances and geofences ---

func TestListInstancesByType(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	instances := []*model.Instance{
		{Name: "Quest-AM", Type: model.InstanceTypeQuest, Geofences: []string{"downtown"}},
		{Name: "Quest-PM", Type: model.InstanceTypeQuest, Geofences: []string{"harbor"}},
		{Name: "Raids", Type: model.InstanceTypeCircle},
	}
	for _, inst := range instances {
		if err := st.CreateInstance(ctx, inst); err != nil {
			t.Fatalf("CreateInstance(%s): %v", inst.Name, err)
		}
	}

	quests, err := st.ListInstancesByType(ctx, model.InstanceTypeQuest)
	if err != nil {
		t.Fatalf("ListInstancesByType: %v", err)
	}
	if len(quests) != 2 {
		t.Fatalf("got %d quest instances, want 2", len(quests))
	}
}

func TestGetGeofencesByNames_OmitsMissing(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for _, name := range []string{"downtown", "harbor"} {
		if err := st.CreateGeofence(ctx, &model.Geofence{Name: name, Type: "geofence"}); err != nil {
			t.Fatalf("CreateGeofence(%s): %v", name, err)
		}
	}

	got, err := st.GetGeofencesByNames(ctx, []string{"harbor", "missing", "downtown"})
	if err != nil {
		t.Fatalf("GetGeofencesByNames: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d geofences, want 2", len(got))
	}
	// Input order preserved.
	if got[0].Name != "harbor" || got[1].Name != "downtown" {
		t.Errorf("order mismatch: %q, %q", got[0].Name, got[1].Name)
	}
}

// --- Quest state ---

func TestClearQuests(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := st.AddQuest(ctx, &model.Quest{GeofenceName: "downtown", StopID: "stop"}); err != nil {
			t.Fatalf("AddQuest: %v", err)
		}
	}
	if err := st.AddQuest(ctx, &model.Quest{GeofenceName: "harbor", StopID: "stop"}); err != nil {
		t.Fatalf("AddQuest: %v", err)
	}

	if err := st.ClearQuests(ctx, []*model.Geofence{{Name: "downtown"}}); err != nil {
		t.Fatalf("ClearQuests: %v", err)
	}

	n, err := st.CountQuests(ctx, "downtown")
	if err != nil {
		t.Fatalf("CountQuests: %v", err)
	}
	if n != 0 {
		t.Errorf("downtown quests = %d, want 0", n)
	}
	n, err = st.CountQuests(ctx, "harbor")
	if err != nil {
		t.Fatalf("CountQuests: %v", err)
	}
	if n != 1 {
		t.Errorf("harbor quests = %d, want 1 (must be untouched)", n)
	}
}
