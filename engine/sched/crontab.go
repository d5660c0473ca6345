package sched

import (
	"time"

	"github.com/noahframe/noahframe/engine/nflog"
	"github.com/noahframe/noahframe/engine/nfutils"
)

const cronTimeOffset = time.Second * 2

var (
	cronCancelled  = []CronHandle{}
	cronEntries    = map[CronHandle]*cronEntry{}
	nextCronHandle = CronHandle(1)
)

// CronHandle is returned by RegisterCron and cancels the registration
type CronHandle int

type cronEntry struct {
	minute, hour, day, month, dayofweek int
	cb                                  func()
}

func (e *cronEntry) match(minute int, hour int, day int, month time.Month, weekday time.Weekday) bool {
	if e.minute >= 0 {
		if e.minute != minute {
			return false
		}
	} else { // negative means every -minute
		if minute%-e.minute != 0 {
			return false
		}
	}

	if e.hour >= 0 {
		if e.hour != hour {
			return false
		}
	} else {
		if hour%-e.hour != 0 {
			return false
		}
	}

	if e.day >= 0 {
		if e.day != day {
			return false
		}
	} else {
		if day%-e.day != 0 {
			return false
		}
	}

	if e.month >= 0 {
		if e.month != int(month) {
			return false
		}
	} else {
		if int(month)%-e.month != 0 {
			return false
		}
	}

	if e.dayofweek >= 0 {
		if e.dayofweek >= 1 && e.dayofweek <= 6 {
			if e.dayofweek != int(weekday) {
				return false
			}
		} else if e.dayofweek == 0 || e.dayofweek == 7 {
			if weekday != time.Sunday {
				return false
			}
		} else {
			return false
		}
	} // else dayofweek == -1

	return true
}

// RegisterCron registers a callback executed whenever the wall clock matches.
//
// Each of minute, hour, day, month, dayofweek matches the given value, or
// every -value when negative; dayofweek -1 matches any week day. 0 and 7 both
// mean Sunday.
func RegisterCron(minute, hour, day, month, dayofweek int, cb func()) CronHandle {
	validateCronTime(minute, hour, day, month, dayofweek)

	h := genNextCronHandle()
	cronEntries[h] = &cronEntry{
		minute:    minute,
		hour:      hour,
		day:       day,
		month:     month,
		dayofweek: dayofweek,
		cb:        cb,
	}
	return h
}

func validateCronTime(minute, hour, day, month, dayofweek int) {
	if minute > 59 || minute < -60 {
		nflog.Panicf("invalid minute = %d", minute)
	}
	if hour > 23 || hour < -24 {
		nflog.Panicf("invalid hour = %d", hour)
	}
	if day > 31 || day < -31 || day == 0 {
		nflog.Panicf("invalid day = %d", day)
	}
	if month > 12 || month < -12 || month == 0 {
		nflog.Panicf("invalid month = %d", month)
	}
	if dayofweek > 7 || dayofweek < -1 {
		nflog.Panicf("invalid dayofweek = %d", dayofweek)
	}
}

// Unregister cancels the crontab registration
func (h CronHandle) Unregister() {
	cronCancelled = append(cronCancelled, h)
}

func unregisterCancelledCronHandles() {
	for _, h := range cronCancelled {
		delete(cronEntries, h)
	}
	cronCancelled = nil
}

// StartCron arms the per-minute crontab check, aligned a bit past the minute
// boundary so wall-clock matching is stable
func StartCron() {
	now := time.Now()
	sec := now.Second()
	var d time.Duration
	if time.Second*time.Duration(sec) < cronTimeOffset {
		d = cronTimeOffset - time.Second*time.Duration(sec)
	} else {
		d = time.Second*time.Duration(60-sec) + cronTimeOffset
	}

	d -= time.Nanosecond * time.Duration(now.Nanosecond())
	nflog.Debugf("sched: crontab first check after %s", d)
	ScheduleCallback(d, func() {
		ScheduleRepeating(time.Minute, checkCron)
		checkCron()
	})
}

func checkCron() {
	unregisterCancelledCronHandles()

	now := time.Now()
	dayofweek, month, day, hour, minute := now.Weekday(), now.Month(), now.Day(), now.Hour(), now.Minute()

	for _, e := range cronEntries {
		if e.match(minute, hour, day, month, dayofweek) {
			nfutils.RunPanicless(e.cb)
		}
	}

	unregisterCancelledCronHandles()
}

func genNextCronHandle() (h CronHandle) {
	h, nextCronHandle = nextCronHandle, nextCronHandle+1
	return
}
