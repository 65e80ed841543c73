package ports

import "time"

// Task is a function scheduled for later execution.
type Task interface {
	// Cancel prevents the task from running. It returns false if the task
	// already ran or was already cancelled.
	Cancel() bool
}

// Scheduler is the abstraction for any kind of service able to run a
// function once after a delay.
type Scheduler interface {
	// Schedule runs fn once after d, in its own goroutine.
	Schedule(d time.Duration, fn func()) Task
}
