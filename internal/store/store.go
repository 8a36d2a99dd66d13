package store

import (
	"context"

	"github.com/me/patrol/pkg/model"
)

// Store defines the persistence layer for Patrol entities.
//
// Get* methods return (nil, nil) when the record does not exist;
// list methods return empty slices.
type Store interface {
	// Assignment CRUD
	CreateAssignment(ctx context.Context, a *model.Assignment) error
	GetAssignment(ctx context.Context, id uint64) (*model.Assignment, error)
	ListAssignments(ctx context.Context) ([]*model.Assignment, error)
	UpdateAssignment(ctx context.Context, a *model.Assignment) error
	DeleteAssignment(ctx context.Context, id uint64) error

	// Assignment groups
	CreateAssignmentGroup(ctx context.Context, g *model.AssignmentGroup) error
	GetAssignmentGroup(ctx context.Context, name string) (*model.AssignmentGroup, error)
	ListAssignmentGroups(ctx context.Context) ([]*model.AssignmentGroup, error)
	DeleteAssignmentGroup(ctx context.Context, name string) error

	// Devices
	CreateDevice(ctx context.Context, d *model.Device) error
	GetDevice(ctx context.Context, uuid string) (*model.Device, error)
	ListDevices(ctx context.Context) ([]*model.Device, error)
	// BatchUpdateDevices persists all updates in one transaction, so a
	// trigger costs one store round-trip regardless of fleet size.
	BatchUpdateDevices(ctx context.Context, devices []*model.Device) error

	// Device groups
	CreateDeviceGroup(ctx context.Context, g *model.DeviceGroup) error
	GetDeviceGroup(ctx context.Context, name string) (*model.DeviceGroup, error)
	ListDeviceGroups(ctx context.Context) ([]*model.DeviceGroup, error)
	DeleteDeviceGroup(ctx context.Context, name string) error

	// Instances
	CreateInstance(ctx context.Context, inst *model.Instance) error
	GetInstance(ctx context.Context, name string) (*model.Instance, error)
	ListInstances(ctx context.Context) ([]*model.Instance, error)
	ListInstancesByType(ctx context.Context, typ model.InstanceType) ([]*model.Instance, error)
	DeleteInstance(ctx context.Context, name string) error

	// Geofences. GetGeofencesByNames silently omits missing names.
	CreateGeofence(ctx context.Context, g *model.Geofence) error
	GetGeofencesByNames(ctx context.Context, names []string) ([]*model.Geofence, error)
	ListGeofences(ctx context.Context) ([]*model.Geofence, error)
	DeleteGeofence(ctx context.Context, name string) error

	// Quest state
	AddQuest(ctx context.Context, q *model.Quest) error
	ClearQuests(ctx context.Context, geofences []*model.Geofence) error
	CountQuests(ctx context.Context, geofenceName string) (int, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
