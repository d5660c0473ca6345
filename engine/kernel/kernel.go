package kernel

import (
	"time"

	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/event"
	"github.com/noahframe/noahframe/engine/module"
	"github.com/noahframe/noahframe/engine/nflog"
	"github.com/noahframe/noahframe/engine/opmon"
	"github.com/noahframe/noahframe/engine/property"
	"github.com/noahframe/noahframe/engine/record"
	"github.com/noahframe/noahframe/engine/schema"
)

var (
	// ErrEntityNotFound is returned when the entity id resolves to no live
	// entity, including an entity whose pre-destroy pass already started
	ErrEntityNotFound = errors.New("entity not found")
	// ErrEntityExists is returned by CreateWithID when the id is taken
	ErrEntityExists = errors.New("entity already exists")
)

const slowOpThreshold = 100 * time.Millisecond

// Kernel owns all live entities and is the single gateway for mutating them.
//
// The kernel is single-writer: all operations and all event callbacks run on
// the one goroutine driving it, so no internal locking is done. Every
// committed write raises exactly one occurrence, first to its exact subject,
// then to the kind's wildcard subject.
type Kernel struct {
	module.Base

	provider   schema.Provider
	dispatcher *event.Dispatcher
	entities   map[common.EntityID]*Entity
}

// New creates a kernel resolving classes through the given provider
func New(provider schema.Provider) *Kernel {
	return &Kernel{
		provider:   provider,
		dispatcher: event.NewDispatcher(),
		entities:   map[common.EntityID]*Entity{},
	}
}

func (k *Kernel) Name() string {
	return "kernel"
}

// Provider returns the schema provider the kernel resolves classes through
func (k *Kernel) Provider() schema.Provider {
	return k.provider
}

// Shut destroys all remaining entities, firing their pre-destroy events
func (k *Kernel) Shut() {
	for id := range k.entities {
		if err := k.Destroy(id); err != nil {
			nflog.Errorf("kernel: destroy %s on shutdown: %v", id, err)
		}
	}
}

// Create creates an entity of the class with a fresh id.
//
// Overrides replace schema defaults before the entity becomes visible; they
// are type-checked like any write but raise no property events. ClassCreated
// fires after the entity is queryable.
func (k *Kernel) Create(className string, overrides map[string]data.Value) (common.EntityID, error) {
	return k.CreateWithID(className, common.GenEntityID(), overrides)
}

// CreateWithID creates an entity under a caller-chosen id. Used when
// restoring persisted entities that must keep their identity.
func (k *Kernel) CreateWithID(className string, id common.EntityID, overrides map[string]data.Value) (common.EntityID, error) {
	op := opmon.StartOperation("kernel.create")
	defer op.Finish(slowOpThreshold)

	if id.IsNil() || id == event.AnyEntity {
		return "", errors.Errorf("invalid entity id %q", id)
	}
	if _, ok := k.entities[id]; ok {
		return "", errors.Wrapf(ErrEntityExists, "entity %s", id)
	}
	sc, err := k.provider.Resolve(className)
	if err != nil {
		return "", err
	}
	e := &Entity{
		ID:      id,
		Class:   className,
		sc:      sc,
		props:   property.NewStore(sc),
		records: record.NewStore(sc),
	}
	for name, v := range overrides {
		if _, err := e.props.Set(name, v); err != nil {
			return "", errors.Wrapf(err, "override %s.%s", className, name)
		}
	}
	k.entities[id] = e
	k.raise(&event.Occurrence{
		Kind:   event.ClassCreated,
		Entity: id,
		Class:  className,
	})
	return id, nil
}

// Destroy tears the entity down. ClassDestroyed fires while the entity is
// still queryable; a nested Destroy for the same entity during that pass
// observes ErrEntityNotFound. The entity leaves the kernel when the pass
// returns.
func (k *Kernel) Destroy(id common.EntityID) error {
	op := opmon.StartOperation("kernel.destroy")
	defer op.Finish(slowOpThreshold)

	e := k.entities[id]
	if e == nil || e.destroying {
		return errors.Wrapf(ErrEntityNotFound, "entity %s", id)
	}
	e.destroying = true
	k.raise(&event.Occurrence{
		Kind:   event.ClassDestroyed,
		Entity: id,
		Class:  e.Class,
	})
	delete(k.entities, id)
	return nil
}

// Get returns the live entity, or ErrEntityNotFound
func (k *Kernel) Get(id common.EntityID) (*Entity, error) {
	e := k.entities[id]
	if e == nil {
		return nil, errors.Wrapf(ErrEntityNotFound, "entity %s", id)
	}
	return e, nil
}

// Exists returns if the id resolves to a live entity
func (k *Kernel) Exists(id common.EntityID) bool {
	return k.entities[id] != nil
}

// Count returns the number of live entities
func (k *Kernel) Count() int {
	return len(k.entities)
}

// ForEach calls f for every live entity
func (k *Kernel) ForEach(f func(e *Entity)) {
	for _, e := range k.entities {
		f(e)
	}
}

// GetProperty returns the current value and flags of the entity's property
func (k *Kernel) GetProperty(id common.EntityID, name string) (data.Value, data.Flag, error) {
	e, err := k.Get(id)
	if err != nil {
		return data.Value{}, 0, err
	}
	return e.props.Get(name)
}

// SetProperty writes the property and returns its previous value.
//
// The write commits first, then PropertyChanged fires carrying both values.
// Writing the value a property already holds still fires the event.
func (k *Kernel) SetProperty(id common.EntityID, name string, v data.Value) (data.Value, error) {
	e, err := k.Get(id)
	if err != nil {
		return data.Value{}, err
	}
	old, err := e.props.Set(name, v)
	if err != nil {
		return data.Value{}, errors.Wrapf(err, "set %s.%s", e, name)
	}
	flags, _ := e.props.Flags(name)
	k.raise(&event.Occurrence{
		Kind:   event.PropertyChanged,
		Entity: id,
		Class:  e.Class,
		Name:   name,
		Old:    old,
		New:    v,
		Flags:  flags,
	})
	return old, nil
}

// AddRow appends a full row to the entity's record and returns its index.
// Row indices are monotonic per record and never reused.
func (k *Kernel) AddRow(id common.EntityID, recName string, vals ...data.Value) (int, error) {
	e, rec, err := k.getRecord(id, recName)
	if err != nil {
		return -1, err
	}
	idx, err := rec.AddRow(vals...)
	if err != nil {
		return -1, errors.Wrapf(err, "add row %s.%s", e, recName)
	}
	k.raise(&event.Occurrence{
		Kind:   event.RecordRowAdded,
		Entity: id,
		Class:  e.Class,
		Name:   recName,
		Row:    idx,
		Flags:  rec.Flags(),
	})
	return idx, nil
}

// RemoveRow tombstones the row. Its index stays retired forever.
func (k *Kernel) RemoveRow(id common.EntityID, recName string, idx int) error {
	e, rec, err := k.getRecord(id, recName)
	if err != nil {
		return err
	}
	if err := rec.RemoveRow(idx); err != nil {
		return errors.Wrapf(err, "remove row %s.%s[%d]", e, recName, idx)
	}
	k.raise(&event.Occurrence{
		Kind:   event.RecordRowRemoved,
		Entity: id,
		Class:  e.Class,
		Name:   recName,
		Row:    idx,
		Flags:  rec.Flags(),
	})
	return nil
}

// SetRecordCell writes one cell of a live row and returns its previous value
func (k *Kernel) SetRecordCell(id common.EntityID, recName string, idx int, column string, v data.Value) (data.Value, error) {
	e, rec, err := k.getRecord(id, recName)
	if err != nil {
		return data.Value{}, err
	}
	old, err := rec.SetCell(idx, column, v)
	if err != nil {
		return data.Value{}, errors.Wrapf(err, "set cell %s.%s[%d].%s", e, recName, idx, column)
	}
	k.raise(&event.Occurrence{
		Kind:   event.RecordCellChanged,
		Entity: id,
		Class:  e.Class,
		Name:   recName,
		Row:    idx,
		Column: column,
		Old:    old,
		New:    v,
		Flags:  rec.Flags(),
	})
	return old, nil
}

// GetRecordCell reads one cell of a live row
func (k *Kernel) GetRecordCell(id common.EntityID, recName string, idx int, column string) (data.Value, error) {
	_, rec, err := k.getRecord(id, recName)
	if err != nil {
		return data.Value{}, err
	}
	return rec.GetCell(idx, column)
}

// Rows returns a snapshot of the record's live rows
func (k *Kernel) Rows(id common.EntityID, recName string) ([]record.RowView, error) {
	_, rec, err := k.getRecord(id, recName)
	if err != nil {
		return nil, err
	}
	return rec.Rows(), nil
}

func (k *Kernel) getRecord(id common.EntityID, recName string) (*Entity, *record.Record, error) {
	e, err := k.Get(id)
	if err != nil {
		return nil, nil, err
	}
	rec, err := e.records.Get(recName)
	if err != nil {
		return nil, nil, err
	}
	return e, rec, nil
}

// Subscribe registers a callback for the exact subject and returns its handle
func (k *Kernel) Subscribe(subject event.Subject, cb event.Callback) event.Handle {
	return k.dispatcher.Subscribe(subject, cb)
}

// Watch registers a callback for every occurrence of the kind, regardless of
// class, entity or name. Collaborators that filter by flags use this.
func (k *Kernel) Watch(kind event.Kind, cb event.Callback) event.Handle {
	return k.dispatcher.Subscribe(wildcardSubject(kind), cb)
}

// Unsubscribe releases a subscription by handle
func (k *Kernel) Unsubscribe(h event.Handle) error {
	return k.dispatcher.Unsubscribe(h)
}

// SetFaultHandler installs the handler notified when a subscriber panics
func (k *Kernel) SetFaultHandler(h event.FaultHandler) {
	k.dispatcher.SetFaultHandler(h)
}

func (k *Kernel) raise(occ *event.Occurrence) {
	k.dispatcher.Dispatch(exactSubject(occ), occ)
	k.dispatcher.Dispatch(wildcardSubject(occ.Kind), occ)
}

func exactSubject(occ *event.Occurrence) event.Subject {
	switch occ.Kind {
	case event.ClassCreated, event.ClassDestroyed:
		return event.ClassSubject(occ.Kind, occ.Class)
	case event.PropertyChanged:
		return event.PropertySubject(occ.Entity, occ.Name)
	default:
		return event.RecordSubject(occ.Kind, occ.Entity, occ.Name)
	}
}

func wildcardSubject(kind event.Kind) event.Subject {
	switch kind {
	case event.ClassCreated, event.ClassDestroyed:
		return event.Subject{Kind: kind, Class: event.AnyClass}
	default:
		return event.Subject{Kind: kind, Entity: event.AnyEntity}
	}
}
