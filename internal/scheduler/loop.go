package scheduler

import (
	"context"
	"time"
)

// Tick runs a single evaluation pass over the cached rules.
//
// The watermark is the previous tick's second-of-day. A rule with
// time T fires when now has reached T while the watermark has not,
// which makes each rule fire exactly once per day:
//
//   - watermark == -2: first tick ever; seed the watermark with now and
//     fire nothing, so rules already past for today don't all fire at
//     startup.
//   - watermark > now: the clock rolled past midnight since the last
//     tick; force the watermark to -1 for this pass so rules scheduled
//     near midnight still fire.
//
// A tick arriving while the previous one is still running is skipped
// rather than queued.
func (s *Scheduler) Tick(ctx context.Context) error {
	if !s.tickBusy.CompareAndSwap(false, true) {
		s.logger.Debug("previous tick still running, skipping")
		return nil
	}
	defer s.tickBusy.Store(false)

	now := secondOfDay(s.now())

	if s.watermark == watermarkUninitialized {
		s.watermark = now
		return nil
	}
	if s.watermark > now {
		s.logger.Info("day rollover detected", "watermark", s.watermark, "now", now)
		s.watermark = watermarkRollover
	}

	for _, a := range s.cache.All() {
		if !a.Enabled || a.OnCompleteOnly() {
			continue
		}
		if now >= int64(a.Time) && s.watermark < int64(a.Time) {
			s.logger.Info("assignment due",
				"assignment_id", a.ID, "instance", a.InstanceName, "time", a.Time)
			if err := s.Trigger(ctx, a, "", false); err != nil {
				s.logger.Error("trigger failed", "assignment_id", a.ID, "error", err)
			}
		}
	}

	s.watermark = now
	return nil
}

func secondOfDay(t time.Time) int64 {
	return int64(t.Hour()*3600 + t.Minute()*60 + t.Second())
}
