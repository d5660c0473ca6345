package kernel

import (
	"fmt"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/property"
	"github.com/noahframe/noahframe/engine/record"
	"github.com/noahframe/noahframe/engine/schema"
)

// Entity is one live object managed by the kernel. All mutation goes through
// the kernel operations so every committed write raises its event; the entity
// itself is a read-only surface.
type Entity struct {
	ID    common.EntityID
	Class string

	sc      *schema.Schema
	props   *property.Store
	records *record.Store

	destroying bool
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s<%s>", e.Class, e.ID)
}

// Schema returns the resolved schema the entity was created from
func (e *Entity) Schema() *schema.Schema {
	return e.sc
}

// Destroying returns true while the entity's pre-destroy pass is running
func (e *Entity) Destroying() bool {
	return e.destroying
}

// Property returns the current value and flags of the named property
func (e *Entity) Property(name string) (data.Value, data.Flag, error) {
	return e.props.Get(name)
}

// Properties returns all properties in schema order
func (e *Entity) Properties() []property.Entry {
	return e.props.Snapshot()
}

// PropertiesWith returns the properties whose flags contain filter
func (e *Entity) PropertiesWith(filter data.Flag) []property.Entry {
	return e.props.SnapshotWithFilter(filter)
}

// RecordNames returns the entity's record names in schema order
func (e *Entity) RecordNames() []string {
	return e.records.Names()
}

// RecordRows returns a snapshot of the named record's live rows
func (e *Entity) RecordRows(name string) ([]record.RowView, error) {
	rec, err := e.records.Get(name)
	if err != nil {
		return nil, err
	}
	return rec.Rows(), nil
}

// RecordFlags returns the flags of the named record
func (e *Entity) RecordFlags(name string) (data.Flag, error) {
	rec, err := e.records.Get(name)
	if err != nil {
		return 0, err
	}
	return rec.Flags(), nil
}

// IsDirty returns if any property or record row matching the flag filter was
// written since the last MarkClean
func (e *Entity) IsDirty(filter data.Flag) bool {
	if e.props.HasDirty(filter) {
		return true
	}
	dirty := false
	e.records.ForEach(func(r *record.Record) {
		if r.Flags().Has(filter) && len(r.DirtyRows()) > 0 {
			dirty = true
		}
	})
	return dirty
}

// MarkClean clears all dirty marks on properties and records
func (e *Entity) MarkClean() {
	e.props.MarkClean()
	e.records.ForEach(func(r *record.Record) {
		r.MarkClean()
	})
}
