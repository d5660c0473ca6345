package record

import (
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/schema"
)

var (
	// ErrNotFound is returned for unknown records, columns or row indices
	ErrNotFound = errors.New("record not found")
	// ErrRowRemoved is returned for operations on a tombstoned row
	ErrRowRemoved = errors.New("row removed")
)

// Record is one named table on an entity: schema-fixed typed columns and an
// ordered sequence of rows.
//
// Row indices are monotonic per record. Removing a row tombstones its slot
// instead of shifting subsequent indices, so row references held by event
// subscribers stay valid through a dispatch pass and indices are never
// reused while the record lives.
type Record struct {
	def  *schema.RecordDef
	rows []row
}

type row struct {
	cells   []data.Value
	removed bool
	dirty   bool
}

// RowView is a snapshot of one live row
type RowView struct {
	Index int
	Cells []data.Value
}

func newRecord(def *schema.RecordDef) *Record {
	return &Record{def: def}
}

// Name returns the record name
func (r *Record) Name() string {
	return r.def.Name
}

// Flags returns the schema-declared record flags
func (r *Record) Flags() data.Flag {
	return r.def.Flags
}

// Columns returns the schema-declared column definitions
func (r *Record) Columns() []schema.ColumnDef {
	return r.def.Columns
}

// AddRow appends a row and returns its index.
//
// vals must supply every column in schema order; all cells are type-checked
// before anything mutates, so a failed add leaves the record unchanged.
func (r *Record) AddRow(vals ...data.Value) (int, error) {
	if len(vals) != len(r.def.Columns) {
		return -1, errors.Wrapf(data.ErrTypeMismatch, "record %s has %d columns, got %d values",
			r.def.Name, len(r.def.Columns), len(vals))
	}
	for i := range vals {
		if vals[i].Type() != r.def.Columns[i].Type {
			return -1, errors.Wrapf(data.ErrTypeMismatch, "record %s column %s is %s, not %s",
				r.def.Name, r.def.Columns[i].Name, r.def.Columns[i].Type, vals[i].Type())
		}
	}

	cells := make([]data.Value, len(vals))
	copy(cells, vals)
	idx := len(r.rows)
	r.rows = append(r.rows, row{cells: cells, dirty: true})
	return idx, nil
}

// RemoveRow tombstones the row at the index
func (r *Record) RemoveRow(idx int) error {
	if idx < 0 || idx >= len(r.rows) {
		return errors.Wrapf(ErrNotFound, "record %s row %d", r.def.Name, idx)
	}
	if r.rows[idx].removed {
		return errors.Wrapf(ErrNotFound, "record %s row %d", r.def.Name, idx)
	}
	r.rows[idx].removed = true
	r.rows[idx].cells = nil
	return nil
}

// SetCell writes one cell and returns the prior value
func (r *Record) SetCell(idx int, column string, v data.Value) (data.Value, error) {
	if idx < 0 || idx >= len(r.rows) {
		return data.Value{}, errors.Wrapf(ErrNotFound, "record %s row %d", r.def.Name, idx)
	}
	if r.rows[idx].removed {
		return data.Value{}, errors.Wrapf(ErrRowRemoved, "record %s row %d", r.def.Name, idx)
	}
	ci := r.def.ColumnIndex(column)
	if ci < 0 {
		return data.Value{}, errors.Wrapf(ErrNotFound, "record %s column %s", r.def.Name, column)
	}
	if v.Type() != r.def.Columns[ci].Type {
		return data.Value{}, errors.Wrapf(data.ErrTypeMismatch, "record %s column %s is %s, not %s",
			r.def.Name, column, r.def.Columns[ci].Type, v.Type())
	}

	old := r.rows[idx].cells[ci]
	r.rows[idx].cells[ci] = v
	r.rows[idx].dirty = true
	return old, nil
}

// GetCell reads one cell
func (r *Record) GetCell(idx int, column string) (data.Value, error) {
	if idx < 0 || idx >= len(r.rows) {
		return data.Value{}, errors.Wrapf(ErrNotFound, "record %s row %d", r.def.Name, idx)
	}
	if r.rows[idx].removed {
		return data.Value{}, errors.Wrapf(ErrRowRemoved, "record %s row %d", r.def.Name, idx)
	}
	ci := r.def.ColumnIndex(column)
	if ci < 0 {
		return data.Value{}, errors.Wrapf(ErrNotFound, "record %s column %s", r.def.Name, column)
	}
	return r.rows[idx].cells[ci], nil
}

// Rows returns a snapshot of all live rows in index order.
//
// The snapshot reflects state at call time: later mutation does not show
// through, and tombstoned rows are skipped.
func (r *Record) Rows() []RowView {
	views := make([]RowView, 0, len(r.rows))
	for i := range r.rows {
		if r.rows[i].removed {
			continue
		}
		cells := make([]data.Value, len(r.rows[i].cells))
		copy(cells, r.rows[i].cells)
		views = append(views, RowView{Index: i, Cells: cells})
	}
	return views
}

// RowCount returns the number of live rows
func (r *Record) RowCount() int {
	n := 0
	for i := range r.rows {
		if !r.rows[i].removed {
			n++
		}
	}
	return n
}

// DirtyRows returns the indices of live rows written since the last MarkClean
func (r *Record) DirtyRows() []int {
	var idxs []int
	for i := range r.rows {
		if r.rows[i].dirty && !r.rows[i].removed {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// MarkClean clears all row dirty marks
func (r *Record) MarkClean() {
	for i := range r.rows {
		r.rows[i].dirty = false
	}
}
