package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/me/patrol/internal/events"
	"github.com/me/patrol/pkg/model"
)

// AssignmentStore is the slice of the persistence layer the scheduler
// reads and writes. Devices and groups are fetched fresh on every
// trigger; their current instance must be authoritative at decision time.
type AssignmentStore interface {
	ListAssignments(ctx context.Context) ([]*model.Assignment, error)
	GetAssignmentGroup(ctx context.Context, name string) (*model.AssignmentGroup, error)
	ListInstancesByType(ctx context.Context, typ model.InstanceType) ([]*model.Instance, error)
	GetDevice(ctx context.Context, uuid string) (*model.Device, error)
	GetDeviceGroup(ctx context.Context, name string) (*model.DeviceGroup, error)
	BatchUpdateDevices(ctx context.Context, devices []*model.Device) error
}

// GeofenceResolver maps geofence names to geometry. Missing names are
// silently omitted from the result.
type GeofenceResolver interface {
	GetGeofencesByNames(ctx context.Context, names []string) ([]*model.Geofence, error)
}

// QuestStore clears accumulated quest state for a set of geofences.
type QuestStore interface {
	ClearQuests(ctx context.Context, geofences []*model.Geofence) error
}

// Config holds scheduler configuration.
type Config struct {
	TickInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{TickInterval: 5 * time.Second}
}

// Watermark sentinels. See Tick.
const (
	// watermarkUninitialized marks the very first tick, which seeds the
	// watermark without firing anything.
	watermarkUninitialized = -2
	// watermarkRollover is the forced-low watermark used right after a
	// day rollover, so rules scheduled near midnight still fire.
	watermarkRollover = -1
)

// Scheduler owns the assignment cache and the periodic evaluation loop,
// moves devices between instances, and emits events for the
// job-controller subsystem. Construct with New; there is no shared
// global instance.
type Scheduler struct {
	store  AssignmentStore
	fences GeofenceResolver
	quests QuestStore
	bus    *events.Bus
	cache  *Cache
	config Config
	logger *slog.Logger

	// now is the clock; tests replace it to simulate day rollovers.
	now func() time.Time

	// watermark is the previous tick's second-of-day. Only Tick touches
	// it, and ticks are serialized by tickBusy.
	watermark int64
	tickBusy  atomic.Bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a scheduler. The cache is empty until Start or Reload.
func New(st AssignmentStore, fences GeofenceResolver, quests QuestStore, bus *events.Bus, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	return &Scheduler{
		store:     st,
		fences:    fences,
		quests:    quests,
		bus:       bus,
		cache:     NewCache(st, logger),
		config:    cfg,
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
		watermark: watermarkUninitialized,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Cache exposes the assignment cache for administrative CRUD.
func (s *Scheduler) Cache() *Cache {
	return s.cache
}

// Reload discards and re-fetches the assignment cache in full.
func (s *Scheduler) Reload(ctx context.Context) error {
	return s.cache.Reload(ctx)
}

// Start reloads the cache and runs the evaluation loop. Blocks until
// ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	defer close(s.doneCh)

	if err := s.cache.Reload(ctx); err != nil {
		return err
	}
	s.logger.Info("scheduler started", "tick_interval", s.config.TickInterval, "assignments", s.cache.Len())

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping (context cancelled)")
			return ctx.Err()
		case <-s.stopCh:
			s.logger.Info("scheduler stopping (stop called)")
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Error("tick error", "error", err)
			}
		}
	}
}

// Stop gracefully shuts down the scheduler and waits for the loop to exit.
func (s *Scheduler) Stop() error {
	close(s.stopCh)
	<-s.doneCh
	return nil
}
