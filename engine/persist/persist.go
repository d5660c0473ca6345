package persist

import (
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/event"
	"github.com/noahframe/noahframe/engine/kernel"
	"github.com/noahframe/noahframe/engine/module"
	"github.com/noahframe/noahframe/engine/nflog"
	"github.com/noahframe/noahframe/engine/storage"
)

// Manager persists Save-flagged entity data. It watches the kernel's event
// stream to track which entities changed, flushes them to storage on an
// interval and on shutdown, and restores entities under their original ids.
type Manager struct {
	module.Base

	kernel  *kernel.Kernel
	dirty   common.EntityIDSet
	handles []event.Handle
}

// New creates a persistence manager bound to the kernel
func New(k *kernel.Kernel) *Manager {
	return &Manager{
		kernel: k,
		dirty:  common.EntityIDSet{},
	}
}

func (m *Manager) Name() string {
	return "persist"
}

// Init connects storage and starts watching the kernel
func (m *Manager) Init() {
	storage.Initialize()
	m.StartWatching()
}

// StartWatching subscribes to the kernel's event stream. Split from Init so
// tests can watch without touching real storage.
func (m *Manager) StartWatching() {
	mark := func(occ *event.Occurrence) {
		if !occ.Flags.Has(data.FlagSave) {
			return
		}
		m.dirty.Add(occ.Entity)
	}
	m.handles = append(m.handles,
		m.kernel.Watch(event.PropertyChanged, mark),
		m.kernel.Watch(event.RecordRowAdded, mark),
		m.kernel.Watch(event.RecordRowRemoved, mark),
		m.kernel.Watch(event.RecordCellChanged, mark),
		m.kernel.Watch(event.ClassCreated, func(occ *event.Occurrence) {
			m.dirty.Add(occ.Entity)
		}),
		m.kernel.Watch(event.ClassDestroyed, func(occ *event.Occurrence) {
			// final save while the entity is still queryable
			if err := m.SaveEntity(occ.Entity); err != nil {
				nflog.Errorf("persist: final save of %s failed: %v", occ.Entity, err)
			}
			m.dirty.Del(occ.Entity)
		}),
	)
}

// StopWatching releases the event subscriptions
func (m *Manager) StopWatching() {
	for _, h := range m.handles {
		if err := m.kernel.Unsubscribe(h); err != nil {
			nflog.Errorf("persist: unsubscribe: %v", err)
		}
	}
	m.handles = nil
}

// Execute flushes dirty entities; driven by the main loop save timer
func (m *Manager) Execute() {
	m.SaveAll()
}

// BeforeShut flushes everything still dirty
func (m *Manager) BeforeShut() {
	m.SaveAll()
}

// Shut drains and closes the storage routine
func (m *Manager) Shut() {
	storage.Shutdown()
}

// DirtyCount returns the number of entities waiting to be saved
func (m *Manager) DirtyCount() int {
	return len(m.dirty)
}

// SaveAll queues a save for every dirty entity and clears the dirty set.
// Entities destroyed since they were marked are skipped; their final save
// already happened on ClassDestroyed.
func (m *Manager) SaveAll() {
	if len(m.dirty) == 0 {
		return
	}
	nflog.Debugf("persist: saving %d dirty entities ...", len(m.dirty))
	for _, id := range m.dirty.ToList() {
		if !m.kernel.Exists(id) {
			m.dirty.Del(id)
			continue
		}
		if err := m.SaveEntity(id); err != nil {
			nflog.Errorf("persist: save %s failed: %v", id, err)
			continue
		}
		m.dirty.Del(id)
	}
}

// SaveEntity snapshots the entity now and queues the write. The entity's
// dirty marks are cleared at snapshot time; the snapshot is consistent even
// if the entity changes before the write lands.
func (m *Manager) SaveEntity(id common.EntityID) error {
	e, err := m.kernel.Get(id)
	if err != nil {
		return err
	}
	snap := TakeSnapshot(e)
	e.MarkClean()
	storage.Save(e.Class, id, snap.Marshal(), func() {
		nflog.Debugf("persist: saved %s", e)
	})
	return nil
}

// LoadEntity restores a stored entity under its original id. The callback
// runs on the main loop with the restored id, or the error. Restoring an id
// that is already live fails with kernel.ErrEntityExists.
func (m *Manager) LoadEntity(className string, id common.EntityID, callback func(common.EntityID, error)) {
	storage.Load(className, id, func(rawData interface{}, err error) {
		if err == nil && rawData == nil {
			err = errors.Wrapf(kernel.ErrEntityNotFound, "no stored snapshot of %s %s", className, id)
		}
		if err != nil {
			callback("", err)
			return
		}
		restoredID, err := m.restore(className, id, rawData)
		callback(restoredID, err)
	})
}

// ListSaved lists stored entity ids of the class
func (m *Manager) ListSaved(className string, callback storage.ListCallbackFunc) {
	storage.ListEntityIDs(className, callback)
}

// ExistsSaved checks if the entity has a stored snapshot
func (m *Manager) ExistsSaved(className string, id common.EntityID, callback storage.ExistsCallbackFunc) {
	storage.Exists(className, id, callback)
}

func (m *Manager) restore(className string, id common.EntityID, rawData interface{}) (common.EntityID, error) {
	sc, err := m.kernel.Provider().Resolve(className)
	if err != nil {
		return "", err
	}
	props, records, err := UnmarshalSnapshot(sc, rawData)
	if err != nil {
		return "", err
	}
	restoredID, err := m.kernel.CreateWithID(className, id, props)
	if err != nil {
		return "", err
	}
	for recName, rows := range records {
		for _, cells := range rows {
			if _, err := m.kernel.AddRow(restoredID, recName, cells...); err != nil {
				return restoredID, errors.Wrapf(err, "restore record %s of %s", recName, restoredID)
			}
		}
	}
	// a freshly restored entity is not dirty
	if e, err := m.kernel.Get(restoredID); err == nil {
		e.MarkClean()
	}
	m.dirty.Del(restoredID)
	return restoredID, nil
}
