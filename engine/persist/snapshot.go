package persist

import (
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/kernel"
	"github.com/noahframe/noahframe/engine/schema"
)

// Snapshot is the stored form of one entity: Save-flagged properties by name
// and Save-flagged records as live rows in column order. Row indices are not
// stored; a restored record renumbers from zero.
type Snapshot struct {
	Props   map[string]interface{}
	Records map[string][][]interface{}
}

// TakeSnapshot captures the entity's Save-flagged data at call time
func TakeSnapshot(e *kernel.Entity) *Snapshot {
	snap := &Snapshot{
		Props:   map[string]interface{}{},
		Records: map[string][][]interface{}{},
	}
	for _, entry := range e.PropertiesWith(data.FlagSave) {
		snap.Props[entry.Name] = entry.Value.Interface()
	}
	for _, recName := range e.RecordNames() {
		flags, err := e.RecordFlags(recName)
		if err != nil || !flags.Has(data.FlagSave) {
			continue
		}
		rows, err := e.RecordRows(recName)
		if err != nil {
			continue
		}
		outRows := make([][]interface{}, 0, len(rows))
		for _, rv := range rows {
			cells := make([]interface{}, len(rv.Cells))
			for i, c := range rv.Cells {
				cells[i] = c.Interface()
			}
			outRows = append(outRows, cells)
		}
		snap.Records[recName] = outRows
	}
	return snap
}

// Marshal converts the snapshot to the generic map form stored by backends
func (s *Snapshot) Marshal() map[string]interface{} {
	records := map[string]interface{}{}
	for name, rows := range s.Records {
		genericRows := make([]interface{}, len(rows))
		for i, row := range rows {
			genericRows[i] = row
		}
		records[name] = genericRows
	}
	return map[string]interface{}{
		"props":   s.Props,
		"records": records,
	}
}

// UnmarshalSnapshot decodes a stored snapshot against the class schema,
// normalizing values that lost their exact type in the backend encoding.
func UnmarshalSnapshot(sc *schema.Schema, raw interface{}) (map[string]data.Value, map[string][][]data.Value, error) {
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil, errors.Errorf("malformed snapshot: %T", raw)
	}

	props := map[string]data.Value{}
	if rawProps, ok := doc["props"].(map[string]interface{}); ok {
		for name, rv := range rawProps {
			def, ok := sc.Property(name)
			if !ok {
				// property dropped from the schema, ignore
				continue
			}
			v, err := data.FromInterface(def.Type, rv)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "property %s.%s", sc.Class, name)
			}
			props[name] = v
		}
	}

	records := map[string][][]data.Value{}
	if rawRecords, ok := doc["records"].(map[string]interface{}); ok {
		for recName, rawRows := range rawRecords {
			def, ok := sc.Record(recName)
			if !ok {
				continue
			}
			rowList, ok := rawRows.([]interface{})
			if !ok {
				return nil, nil, errors.Errorf("malformed record %s.%s: %T", sc.Class, recName, rawRows)
			}
			rows := make([][]data.Value, 0, len(rowList))
			for _, rawRow := range rowList {
				cellList, ok := rawRow.([]interface{})
				if !ok {
					return nil, nil, errors.Errorf("malformed row in %s.%s: %T", sc.Class, recName, rawRow)
				}
				if len(cellList) != len(def.Columns) {
					return nil, nil, errors.Errorf("row in %s.%s has %d cells, want %d", sc.Class, recName, len(cellList), len(def.Columns))
				}
				cells := make([]data.Value, len(cellList))
				for i, rawCell := range cellList {
					v, err := data.FromInterface(def.Columns[i].Type, rawCell)
					if err != nil {
						return nil, nil, errors.Wrapf(err, "cell %s.%s.%s", sc.Class, recName, def.Columns[i].Name)
					}
					cells[i] = v
				}
				rows = append(rows, cells)
			}
			records[recName] = rows
		}
	}

	return props, records, nil
}
