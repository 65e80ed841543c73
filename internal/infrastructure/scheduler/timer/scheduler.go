package timer_scheduler

import (
	"time"

	"github.com/vulpemventures/softwallet/internal/core/ports"
)

type scheduler struct{}

// NewScheduler returns a scheduler backed by runtime timers.
func NewScheduler() ports.Scheduler {
	return scheduler{}
}

func (scheduler) Schedule(d time.Duration, fn func()) ports.Task {
	return task{time.AfterFunc(d, fn)}
}

type task struct {
	timer *time.Timer
}

func (t task) Cancel() bool {
	return t.timer.Stop()
}
