package repl

import (
	"sync"

	"github.com/noahframe/noahframe/engine/codec"
	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/config"
	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/event"
	"github.com/noahframe/noahframe/engine/kernel"
	"github.com/noahframe/noahframe/engine/module"
	"github.com/noahframe/noahframe/engine/nflog"
)

// Update is one outbound replication message describing a committed change
// to Public-flagged data, or an entity with Public-flagged data appearing or
// disappearing.
type Update struct {
	Kind   string
	Entity common.EntityID
	Class  string
	Name   string
	Row    int
	Column string
	Value  interface{}
}

// Sink receives packed replication updates, e.g. a gateway connection
type Sink interface {
	Deliver(data []byte) error
}

// Manager watches the kernel for Public-flagged changes and queues them as
// updates. Flush packs and delivers queued updates to the sink; it is called
// by the main loop after each tick, so subscribers never block on delivery.
type Manager struct {
	module.Base

	kernel      *kernel.Kernel
	queueLength int
	handles     []event.Handle

	lock    sync.Mutex
	pending []*Update
	dropped int

	sink Sink
}

// New creates a replication manager bound to the kernel. queueLength bounds
// the pending queue; further updates are dropped with a warning.
func New(k *kernel.Kernel, queueLength int) *Manager {
	return &Manager{
		kernel:      k,
		queueLength: queueLength,
	}
}

func (m *Manager) Name() string {
	return "repl"
}

// Init starts watching the kernel, unless replication is disabled in config
func (m *Manager) Init() {
	cfg := config.GetReplication()
	if !cfg.Enabled {
		nflog.Infof("repl: disabled in config")
		return
	}
	if m.queueLength <= 0 {
		m.queueLength = cfg.QueueLength
	}
	m.StartWatching()
}

// Execute flushes pending updates each tick
func (m *Manager) Execute() {
	m.Flush()
}

// BeforeShut flushes whatever is still pending
func (m *Manager) BeforeShut() {
	m.Flush()
}

// SetSink installs the delivery target. Without a sink, Flush discards.
func (m *Manager) SetSink(s Sink) {
	m.sink = s
}

// StartWatching subscribes to the kernel's event stream
func (m *Manager) StartWatching() {
	publicOnly := func(f func(occ *event.Occurrence) *Update) event.Callback {
		return func(occ *event.Occurrence) {
			if !occ.Flags.Has(data.FlagPublic) {
				return
			}
			m.enqueue(f(occ))
		}
	}
	m.handles = append(m.handles,
		m.kernel.Watch(event.ClassCreated, func(occ *event.Occurrence) {
			if !m.hasPublicData(occ.Entity) {
				return
			}
			m.enqueue(&Update{Kind: "create", Entity: occ.Entity, Class: occ.Class})
		}),
		m.kernel.Watch(event.ClassDestroyed, func(occ *event.Occurrence) {
			if !m.hasPublicData(occ.Entity) {
				return
			}
			m.enqueue(&Update{Kind: "destroy", Entity: occ.Entity, Class: occ.Class})
		}),
		m.kernel.Watch(event.PropertyChanged, publicOnly(func(occ *event.Occurrence) *Update {
			return &Update{Kind: "prop", Entity: occ.Entity, Class: occ.Class, Name: occ.Name, Value: occ.New.Interface()}
		})),
		m.kernel.Watch(event.RecordRowAdded, publicOnly(func(occ *event.Occurrence) *Update {
			return &Update{Kind: "row_add", Entity: occ.Entity, Class: occ.Class, Name: occ.Name, Row: occ.Row}
		})),
		m.kernel.Watch(event.RecordRowRemoved, publicOnly(func(occ *event.Occurrence) *Update {
			return &Update{Kind: "row_del", Entity: occ.Entity, Class: occ.Class, Name: occ.Name, Row: occ.Row}
		})),
		m.kernel.Watch(event.RecordCellChanged, publicOnly(func(occ *event.Occurrence) *Update {
			return &Update{Kind: "cell", Entity: occ.Entity, Class: occ.Class, Name: occ.Name, Row: occ.Row, Column: occ.Column, Value: occ.New.Interface()}
		})),
	)
}

// StopWatching releases the event subscriptions
func (m *Manager) StopWatching() {
	for _, h := range m.handles {
		if err := m.kernel.Unsubscribe(h); err != nil {
			nflog.Errorf("repl: unsubscribe: %v", err)
		}
	}
	m.handles = nil
}

// hasPublicData returns if the entity's schema declares any Public-flagged
// property or record. Entities without one are invisible to observers, so
// their create/destroy is not announced either.
func (m *Manager) hasPublicData(id common.EntityID) bool {
	e, err := m.kernel.Get(id)
	if err != nil {
		return false
	}
	sc := e.Schema()
	for i := range sc.Properties {
		if sc.Properties[i].Flags.Has(data.FlagPublic) {
			return true
		}
	}
	for i := range sc.Records {
		if sc.Records[i].Flags.Has(data.FlagPublic) {
			return true
		}
	}
	return false
}

func (m *Manager) enqueue(u *Update) {
	m.lock.Lock()
	if m.queueLength > 0 && len(m.pending) >= m.queueLength {
		m.dropped++
		dropped := m.dropped
		m.lock.Unlock()
		nflog.Warnf("repl: queue full, dropped %d updates", dropped)
		return
	}
	m.pending = append(m.pending, u)
	m.lock.Unlock()
}

// Pending returns the number of queued updates
func (m *Manager) Pending() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.pending)
}

// Flush packs queued updates and delivers them to the sink
func (m *Manager) Flush() {
	m.lock.Lock()
	updates := m.pending
	m.pending = nil
	m.lock.Unlock()

	if len(updates) == 0 {
		return
	}
	if m.sink == nil {
		return
	}
	b, err := codec.MSG_PACKER.PackMsg(updates, nil)
	if err != nil {
		nflog.Errorf("repl: pack %d updates failed: %v", len(updates), err)
		return
	}
	if err := m.sink.Deliver(b); err != nil {
		nflog.Errorf("repl: deliver failed: %v", err)
	}
}
