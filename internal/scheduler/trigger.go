package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/me/patrol/pkg/model"
)

// Trigger moves the devices an assignment names onto its target
// instance.
//
// fromInstance, when non-empty, restricts the move to devices currently
// on that instance. force bypasses the enabled/date eligibility gate and
// the fromInstance restriction (used by explicit "start now" and
// re-quest operations).
//
// All moved devices are persisted in one batch call before any
// device-reload event is emitted, so event consumers can rely on the new
// assignment being durable.
func (s *Scheduler) Trigger(ctx context.Context, a *model.Assignment, fromInstance string, force bool) error {
	if !force {
		if !a.Enabled {
			return nil
		}
		if a.Date != "" && a.Date != s.now().Format(model.DateLayout) {
			return nil
		}
	}

	if !a.Actionable() {
		s.logger.Warn("assignment names no device or group", "assignment_id", a.ID)
		return nil
	}

	devices := s.resolveDevices(ctx, a)
	if len(devices) == 0 {
		s.logger.Warn("assignment resolved zero devices",
			"assignment_id", a.ID, "device_uuid", a.DeviceUUID, "device_group", a.DeviceGroupName)
		return nil
	}

	var moved []*model.Device
	for _, d := range devices {
		if !force && fromInstance != "" && !strings.EqualFold(d.InstanceName, fromInstance) {
			continue
		}
		// Never a no-op move.
		if strings.EqualFold(d.InstanceName, a.InstanceName) {
			continue
		}
		if a.SourceInstanceName != "" && !strings.EqualFold(d.InstanceName, a.SourceInstanceName) {
			continue
		}
		d.InstanceName = a.InstanceName
		moved = append(moved, d)
	}

	if len(moved) == 0 {
		s.logger.Debug("no devices eligible to move", "assignment_id", a.ID)
		return nil
	}

	if err := s.store.BatchUpdateDevices(ctx, moved); err != nil {
		s.logger.Error("batch device update failed",
			"assignment_id", a.ID, "devices", len(moved), "error", err)
		return fmt.Errorf("persist %d device moves for assignment %d: %w", len(moved), a.ID, err)
	}

	for _, d := range moved {
		s.logger.Info("device reassigned",
			"device", d.UUID, "instance", d.InstanceName, "assignment_id", a.ID)
		s.bus.PublishDeviceReassigned(d)
	}
	return nil
}

// resolveDevices fetches the concrete devices an assignment names,
// fresh from the store. A failed or dangling lookup is logged and the
// rest of the group is still resolved.
func (s *Scheduler) resolveDevices(ctx context.Context, a *model.Assignment) []*model.Device {
	var out []*model.Device

	if a.DeviceUUID != "" {
		d, err := s.store.GetDevice(ctx, a.DeviceUUID)
		switch {
		case err != nil:
			s.logger.Error("device lookup failed",
				"assignment_id", a.ID, "device", a.DeviceUUID, "error", err)
		case d == nil:
			s.logger.Warn("assignment references unknown device",
				"assignment_id", a.ID, "device", a.DeviceUUID)
		default:
			out = append(out, d)
		}
	}

	if a.DeviceGroupName != "" {
		g, err := s.store.GetDeviceGroup(ctx, a.DeviceGroupName)
		switch {
		case err != nil:
			s.logger.Error("device group lookup failed",
				"assignment_id", a.ID, "device_group", a.DeviceGroupName, "error", err)
		case g == nil:
			s.logger.Warn("assignment references unknown device group",
				"assignment_id", a.ID, "device_group", a.DeviceGroupName)
		case len(g.DeviceUUIDs) == 0:
			s.logger.Warn("device group is empty",
				"assignment_id", a.ID, "device_group", a.DeviceGroupName)
		default:
			for _, uuid := range g.DeviceUUIDs {
				d, err := s.store.GetDevice(ctx, uuid)
				if err != nil {
					s.logger.Error("group member lookup failed",
						"assignment_id", a.ID, "device", uuid, "error", err)
					continue
				}
				if d == nil {
					s.logger.Warn("group references unknown device",
						"device_group", a.DeviceGroupName, "device", uuid)
					continue
				}
				out = append(out, d)
			}
		}
	}

	return out
}

// OnInstanceComplete is invoked by a job controller when an instance
// finishes its current cycle. Every enabled completion-driven rule
// (time == 0) is offered to Trigger; its own source-instance check
// decides whether any device actually moves.
func (s *Scheduler) OnInstanceComplete(ctx context.Context, instanceName string) {
	s.logger.Info("instance completed", "instance", instanceName)

	for _, a := range s.cache.All() {
		if !a.Enabled || !a.OnCompleteOnly() {
			continue
		}
		if err := s.Trigger(ctx, a, "", false); err != nil {
			s.logger.Error("completion trigger failed", "assignment_id", a.ID, "error", err)
		}
	}
}

// StartAssignment force-triggers a single rule now, bypassing its
// enabled/date gating.
func (s *Scheduler) StartAssignment(ctx context.Context, id uint64) error {
	a, ok := s.cache.GetByID(id)
	if !ok {
		return fmt.Errorf("assignment %d not found", id)
	}
	return s.Trigger(ctx, a, "", true)
}

// StartAssignmentGroup force-triggers every rule in a named group, in
// group order. A failing member is logged and the rest still run.
func (s *Scheduler) StartAssignmentGroup(ctx context.Context, name string) error {
	g, err := s.store.GetAssignmentGroup(ctx, name)
	if err != nil {
		return fmt.Errorf("load assignment group %s: %w", name, err)
	}
	if g == nil {
		return fmt.Errorf("assignment group %s not found", name)
	}

	for _, a := range s.cache.GetByIDs(g.AssignmentIDs) {
		if err := s.Trigger(ctx, a, "", true); err != nil {
			s.logger.Error("group trigger failed",
				"group", name, "assignment_id", a.ID, "error", err)
		}
	}
	return nil
}
