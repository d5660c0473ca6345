package sched

import (
	"time"

	timer "github.com/xiaonanln/goTimer"
)

// Timer is an armed timer, cancellable until it fires
type Timer = timer.Timer

// ScheduleCallback runs cb once after d, on the main loop Tick
func ScheduleCallback(d time.Duration, cb func()) *Timer {
	return timer.AddCallback(d, cb)
}

// ScheduleRepeating runs cb every d until the returned timer is cancelled
func ScheduleRepeating(d time.Duration, cb func()) *Timer {
	return timer.AddTimer(d, cb)
}

// Tick fires all due timers. Called by the main loop on its own goroutine,
// so timer callbacks run single-writer with the kernel.
func Tick() {
	timer.Tick()
}
