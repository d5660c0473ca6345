package event

import (
	"errors"
	"testing"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/data"
)

func propOcc(eid common.EntityID, name string, old, new_ data.Value) *Occurrence {
	return &Occurrence{
		Kind:   PropertyChanged,
		Entity: eid,
		Name:   name,
		Old:    old,
		New:    new_,
	}
}

func TestDispatchOrder(t *testing.T) {
	d := NewDispatcher()
	eid := common.GenEntityID()
	subject := PropertySubject(eid, "HP")

	var order []string
	d.Subscribe(subject, func(occ *Occurrence) {
		order = append(order, "A")
	})
	d.Subscribe(subject, func(occ *Occurrence) {
		order = append(order, "B")
	})

	d.Dispatch(subject, propOcc(eid, "HP", data.Int(50), data.Int(40)))
	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Fatalf("wrong dispatch order: %v", order)
	}
}

func TestOccurrenceCarriesOldAndNew(t *testing.T) {
	d := NewDispatcher()
	eid := common.GenEntityID()
	subject := PropertySubject(eid, "HP")

	var got *Occurrence
	d.Subscribe(subject, func(occ *Occurrence) {
		got = occ
	})
	d.Dispatch(subject, propOcc(eid, "HP", data.Int(50), data.Int(40)))

	if got == nil {
		t.Fatalf("callback not invoked")
	}
	if got.Old.GetInt() != 50 || got.New.GetInt() != 40 {
		t.Fatalf("wrong old/new: %s %s", got.Old, got.New)
	}
}

func TestReleaseInsidePassDeliversCurrentOccurrence(t *testing.T) {
	d := NewDispatcher()
	eid := common.GenEntityID()
	subject := PropertySubject(eid, "HP")

	var aCalls, bCalls int
	var hB Handle
	d.Subscribe(subject, func(occ *Occurrence) {
		aCalls++
		d.Unsubscribe(hB) // release B mid-pass
	})
	hB = d.Subscribe(subject, func(occ *Occurrence) {
		bCalls++
	})

	occ := propOcc(eid, "HP", data.Int(1), data.Int(2))
	d.Dispatch(subject, occ)
	if bCalls != 1 {
		t.Fatalf("B must still receive the current occurrence, got %d calls", bCalls)
	}

	d.Dispatch(subject, occ)
	if aCalls != 2 || bCalls != 1 {
		t.Fatalf("B must not receive later occurrences: A=%d B=%d", aCalls, bCalls)
	}
}

func TestSubscribeInsidePassSkipsCurrentOccurrence(t *testing.T) {
	d := NewDispatcher()
	eid := common.GenEntityID()
	subject := PropertySubject(eid, "HP")

	var newCalls int
	d.Subscribe(subject, func(occ *Occurrence) {
		if newCalls == 0 {
			d.Subscribe(subject, func(occ *Occurrence) {
				newCalls++
			})
		}
	})

	occ := propOcc(eid, "HP", data.Int(1), data.Int(2))
	d.Dispatch(subject, occ)
	if newCalls != 0 {
		t.Fatalf("subscription made during the pass must not fire for the current occurrence")
	}

	d.Dispatch(subject, occ)
	if newCalls != 1 {
		t.Fatalf("subscription made during a pass must fire for later occurrences, got %d", newCalls)
	}
}

func TestNestedDispatchRunsDepthFirst(t *testing.T) {
	d := NewDispatcher()
	eid := common.GenEntityID()
	hpSubject := PropertySubject(eid, "HP")
	mpSubject := PropertySubject(eid, "MP")

	var order []string
	d.Subscribe(hpSubject, func(occ *Occurrence) {
		order = append(order, "hp-begin")
		d.Dispatch(mpSubject, propOcc(eid, "MP", data.Int(0), data.Int(1)))
		order = append(order, "hp-end")
	})
	d.Subscribe(mpSubject, func(occ *Occurrence) {
		order = append(order, "mp")
	})

	d.Dispatch(hpSubject, propOcc(eid, "HP", data.Int(1), data.Int(2)))

	want := []string{"hp-begin", "mp", "hp-end"}
	if len(order) != len(want) {
		t.Fatalf("wrong order: %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("wrong order: %v", order)
		}
	}
}

func TestFaultySubscriberContained(t *testing.T) {
	d := NewDispatcher()
	eid := common.GenEntityID()
	subject := PropertySubject(eid, "HP")

	var faults int
	d.SetFaultHandler(func(subject Subject, handle Handle, recovered interface{}) {
		faults++
	})

	var goodCalls int
	d.Subscribe(subject, func(occ *Occurrence) {
		panic("always broken")
	})
	d.Subscribe(subject, func(occ *Occurrence) {
		goodCalls++
	})

	occ := propOcc(eid, "HP", data.Int(1), data.Int(2))
	d.Dispatch(subject, occ)
	d.Dispatch(subject, occ)

	if goodCalls != 2 {
		t.Fatalf("well-behaved subscriber must keep receiving events, got %d", goodCalls)
	}
	if faults != 2 {
		t.Fatalf("fault handler should see every contained panic, got %d", faults)
	}
}

func TestUnsubscribeUnknownHandle(t *testing.T) {
	d := NewDispatcher()
	eid := common.GenEntityID()
	subject := PropertySubject(eid, "HP")

	h := d.Subscribe(subject, func(occ *Occurrence) {})
	if err := d.Unsubscribe(h); err != nil {
		t.Fatalf("unsubscribe failed: %v", err)
	}
	if err := d.Unsubscribe(h); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double unsubscribe should report ErrNotFound, got %v", err)
	}
	if d.HasSubscribers(subject) {
		t.Fatalf("subject should have no subscribers left")
	}
}

func TestSelfUnsubscribeDuringPass(t *testing.T) {
	d := NewDispatcher()
	eid := common.GenEntityID()
	subject := PropertySubject(eid, "HP")

	var calls int
	var h Handle
	h = d.Subscribe(subject, func(occ *Occurrence) {
		calls++
		d.Unsubscribe(h)
	})

	occ := propOcc(eid, "HP", data.Int(1), data.Int(2))
	d.Dispatch(subject, occ)
	d.Dispatch(subject, occ)
	if calls != 1 {
		t.Fatalf("self-released subscription fired %d times", calls)
	}
}
