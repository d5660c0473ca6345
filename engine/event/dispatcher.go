package event

import (
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/nflog"
)

// ErrNotFound is returned by Unsubscribe for an unknown or already released handle
var ErrNotFound = errors.New("subscription not found")

// Handle identifies one subscription. The dispatcher owns subscription
// liveness; subscribers hold only the handle and release it explicitly.
type Handle int64

// FaultHandler receives panics recovered from subscriber callbacks
type FaultHandler func(subject Subject, handle Handle, recovered interface{})

type subscription struct {
	handle   Handle
	subject  Subject
	cb       Callback
	released bool
}

// Dispatcher is the ordered, re-entrant-safe callback registry.
//
// Dispatch is synchronous and depth-first: a callback that mutates an entity
// re-enters Dispatch and the nested pass completes before the outer pass
// resumes. The subscription list tolerates add/remove from inside callbacks
// on the same goroutine; it is not safe for cross-goroutine mutation — scope
// one Dispatcher per kernel shard.
type Dispatcher struct {
	nextHandle   Handle
	subs         map[Subject][]*subscription
	byHandle     map[Handle]*subscription
	depth        int
	needCompact  map[Subject]struct{}
	faultHandler FaultHandler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subs:        map[Subject][]*subscription{},
		byHandle:    map[Handle]*subscription{},
		needCompact: map[Subject]struct{}{},
	}
}

// SetFaultHandler installs the sink for contained callback panics.
// Panics are always logged; the handler is for diagnostics collaborators.
func (d *Dispatcher) SetFaultHandler(h FaultHandler) {
	d.faultHandler = h
}

// Subscribe registers a callback for the subject and returns its handle.
//
// A subscription made during a dispatch pass on the same subject is not
// invoked for the current occurrence, only for future ones.
func (d *Dispatcher) Subscribe(subject Subject, cb Callback) Handle {
	if cb == nil {
		nflog.Panicf("event.Subscribe: nil callback for %v", subject)
	}

	d.nextHandle++
	sub := &subscription{
		handle:  d.nextHandle,
		subject: subject,
		cb:      cb,
	}
	d.subs[subject] = append(d.subs[subject], sub)
	d.byHandle[sub.handle] = sub
	return sub.handle
}

// Unsubscribe releases the subscription.
//
// A release during a dispatch pass takes effect for all subsequent
// occurrences immediately, but the current pass still delivers to every entry
// snapshotted at pass start.
func (d *Dispatcher) Unsubscribe(h Handle) error {
	sub, ok := d.byHandle[h]
	if !ok {
		return errors.Wrapf(ErrNotFound, "handle %d", h)
	}

	sub.released = true
	delete(d.byHandle, h)

	if d.depth == 0 {
		d.compactSubject(sub.subject)
	} else {
		d.needCompact[sub.subject] = struct{}{}
	}
	return nil
}

// HasSubscribers returns if any active subscription exists for the subject
func (d *Dispatcher) HasSubscribers(subject Subject) bool {
	for _, sub := range d.subs[subject] {
		if !sub.released {
			return true
		}
	}
	return false
}

// Dispatch delivers one occurrence to all subscriptions active at pass start,
// in registration order, on the calling goroutine.
func (d *Dispatcher) Dispatch(subject Subject, occ *Occurrence) {
	list := d.subs[subject]
	if len(list) == 0 {
		return
	}

	// Snapshot the active entries: the snapshot is immutable for the pass, so
	// releases and additions from inside callbacks only affect later passes.
	snapshot := make([]*subscription, 0, len(list))
	for _, sub := range list {
		if !sub.released {
			snapshot = append(snapshot, sub)
		}
	}

	d.depth++
	for _, sub := range snapshot {
		d.invoke(sub, occ)
	}
	d.depth--

	if d.depth == 0 && len(d.needCompact) > 0 {
		for subject := range d.needCompact {
			d.compactSubject(subject)
		}
		d.needCompact = map[Subject]struct{}{}
	}
}

// invoke runs one callback with panic containment: one faulty subscriber
// cannot block delivery to the rest of the snapshot.
func (d *Dispatcher) invoke(sub *subscription, occ *Occurrence) {
	defer func() {
		if r := recover(); r != nil {
			nflog.TraceError("event: subscriber %d for %s paniced: %v", sub.handle, sub.subject.Kind, r)
			if d.faultHandler != nil {
				d.faultHandler(sub.subject, sub.handle, r)
			}
		}
	}()

	sub.cb(occ)
}

func (d *Dispatcher) compactSubject(subject Subject) {
	list := d.subs[subject]
	live := list[:0]
	for _, sub := range list {
		if !sub.released {
			live = append(live, sub)
		}
	}
	if len(live) == 0 {
		delete(d.subs, subject)
	} else {
		d.subs[subject] = live
	}
}
