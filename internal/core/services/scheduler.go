package services

import (
	"time"

	"github.com/JeanGrijp/ddos-shield/internal/core/ports"
)

// TimerScheduler runs each task on its own runtime timer.
type TimerScheduler struct{}

var _ ports.Scheduler = TimerScheduler{}

func (TimerScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
