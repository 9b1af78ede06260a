package reconcile

import (
	"context"
	"log"
	"time"
)

// Scheduler runs the pipeline once a day at a fixed UTC hour.
type Scheduler struct {
	pipeline *Pipeline
	hourUTC  int
}

func NewScheduler(pipeline *Pipeline, hourUTC int) *Scheduler {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 0
	}
	return &Scheduler{pipeline: pipeline, hourUTC: hourUTC}
}

// Start blocks until the context is canceled, firing a cycle at the
// scheduled hour. An overlapping manual run just skips the tick.
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("Reconciliation scheduled daily at %02d:00 UTC", s.hourUTC)

	for {
		wait := time.Until(s.nextRun(time.Now().UTC()))
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.pipeline.Run(ctx); err != nil {
			if err == ErrCycleRunning {
				log.Println("Scheduled reconciliation skipped: cycle already running")
			} else {
				log.Printf("Scheduled reconciliation failed: %v", err)
			}
		}
	}
}

func (s *Scheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
