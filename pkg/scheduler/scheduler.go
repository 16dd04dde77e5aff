package scheduler

import (
	"context"
	"sync/atomic"
	"time"
)

type ScheduledTask func(ctx context.Context)

type Scheduler struct{}

// Run executes task immediately and then on every tick of duration until ctx
// is cancelled. A tick is skipped while a previous run is still executing, so
// a cycle that outlives the interval never overlaps the next one.
func (scheduler *Scheduler) Run(ctx context.Context, duration time.Duration, task ScheduledTask) {
	ticker := time.NewTicker(duration)
	defer ticker.Stop()
	var running atomic.Bool
	scheduler.launch(ctx, &running, task)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scheduler.launch(ctx, &running, task)
		}
	}
}

func (scheduler *Scheduler) launch(ctx context.Context, running *atomic.Bool, task ScheduledTask) {
	if !running.CompareAndSwap(false, true) {
		return
	}
	go func() {
		localCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		defer running.Store(false)
		task(localCtx)
	}()
}
