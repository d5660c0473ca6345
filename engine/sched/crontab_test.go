package sched

import (
	"testing"
	"time"
)

func TestCronEntryMatch(t *testing.T) {
	e := &cronEntry{minute: 30, hour: 12, day: -1, month: -1, dayofweek: -1}
	if !e.match(30, 12, 15, time.March, time.Monday) {
		t.Errorf("should match 12:30")
	}
	if e.match(31, 12, 15, time.March, time.Monday) {
		t.Errorf("should not match 12:31")
	}

	every5 := &cronEntry{minute: -5, hour: -1, day: -1, month: -1, dayofweek: -1}
	if !every5.match(0, 3, 1, time.January, time.Sunday) || !every5.match(25, 3, 1, time.January, time.Sunday) {
		t.Errorf("every 5 minutes should match :00 and :25")
	}
	if every5.match(7, 3, 1, time.January, time.Sunday) {
		t.Errorf("every 5 minutes should not match :07")
	}

	sunday := &cronEntry{minute: -1, hour: -1, day: -1, month: -1, dayofweek: 0}
	if !sunday.match(0, 0, 1, time.January, time.Sunday) {
		t.Errorf("dayofweek 0 should match Sunday")
	}
	if sunday.match(0, 0, 1, time.January, time.Wednesday) {
		t.Errorf("dayofweek 0 should not match Wednesday")
	}
}

func TestCronRegisterAndUnregister(t *testing.T) {
	fired := 0
	h := RegisterCron(-1, -1, -1, -1, -1, func() {
		fired++
	})
	checkCron()
	if fired != 1 {
		t.Fatalf("every-minute entry should fire on check, fired=%d", fired)
	}
	h.Unregister()
	checkCron()
	if fired != 1 {
		t.Errorf("unregistered entry should not fire, fired=%d", fired)
	}
}

func TestCronPanicContained(t *testing.T) {
	fired := false
	h1 := RegisterCron(-1, -1, -1, -1, -1, func() {
		panic("cron boom")
	})
	h2 := RegisterCron(-1, -1, -1, -1, -1, func() {
		fired = true
	})
	checkCron()
	h1.Unregister()
	h2.Unregister()
	if !fired {
		t.Errorf("panicking entry should not keep later entries from firing")
	}
}

func TestCronValidate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("invalid minute should panic")
		}
	}()
	RegisterCron(60, -1, -1, -1, -1, func() {})
}
