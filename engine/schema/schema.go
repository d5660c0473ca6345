package schema

import (
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/nflog"
)

// ErrClassNotFound is returned by Resolve for an unknown class name
var ErrClassNotFound = errors.New("class not found")

// Provider resolves a class name to its flattened schema.
//
// The kernel consumes this interface; Registry is the in-process
// implementation, external schema loaders can provide their own.
type Provider interface {
	Resolve(className string) (*Schema, error)
}

// PropertyDef declares one property: name, type, default value and flags.
type PropertyDef struct {
	Name    string
	Type    data.Type
	Default data.Value
	Flags   data.Flag
}

// ColumnDef declares one typed record column.
type ColumnDef struct {
	Name string
	Type data.Type
}

// RecordDef declares one record: a named table of typed columns plus flags.
type RecordDef struct {
	Name    string
	Flags   data.Flag
	Columns []ColumnDef
}

// ColumnIndex returns the index of the named column, or -1
func (rd *RecordDef) ColumnIndex(name string) int {
	for i := range rd.Columns {
		if rd.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// ClassDef is the raw, unflattened definition of one class.
//
// Definitions are built fluently:
//
//	reg.Define("Goblin", "").
//		Property("HP", data.TInt, int64(50), "save", "public").
//		Record("Items", []string{"save"}, Column("ItemID", data.TInt))
type ClassDef struct {
	name       string
	parent     string
	properties []PropertyDef
	records    []RecordDef
}

// Column makes a ColumnDef for Record definitions
func Column(name string, t data.Type) ColumnDef {
	return ColumnDef{Name: name, Type: t}
}

// Property declares a property on the class.
//
// defaultVal is normalized against the declared type; flag definitions use
// the same strings the schema files use. Invalid definitions are programming
// errors and panic at definition time.
func (cd *ClassDef) Property(name string, t data.Type, defaultVal interface{}, flagDefs ...string) *ClassDef {
	for i := range cd.properties {
		if cd.properties[i].Name == name {
			nflog.Panicf("class %s: property %s defined twice", cd.name, name)
		}
	}

	dv, err := data.FromInterface(t, defaultVal)
	if err != nil {
		nflog.Panicf("class %s: property %s: bad default: %v", cd.name, name, err)
	}

	flags, err := data.ParseFlags(flagDefs...)
	if err != nil {
		nflog.Panicf("class %s: property %s: %v", cd.name, name, err)
	}

	cd.properties = append(cd.properties, PropertyDef{
		Name:    name,
		Type:    t,
		Default: dv,
		Flags:   flags,
	})
	return cd
}

// Record declares a record on the class.
func (cd *ClassDef) Record(name string, flagDefs []string, columns ...ColumnDef) *ClassDef {
	for i := range cd.records {
		if cd.records[i].Name == name {
			nflog.Panicf("class %s: record %s defined twice", cd.name, name)
		}
	}
	if len(columns) == 0 {
		nflog.Panicf("class %s: record %s has no columns", cd.name, name)
	}
	for i := range columns {
		for j := i + 1; j < len(columns); j++ {
			if columns[i].Name == columns[j].Name {
				nflog.Panicf("class %s: record %s: column %s defined twice", cd.name, name, columns[i].Name)
			}
		}
	}

	flags, err := data.ParseFlags(flagDefs...)
	if err != nil {
		nflog.Panicf("class %s: record %s: %v", cd.name, name, err)
	}

	cd.records = append(cd.records, RecordDef{
		Name:    name,
		Flags:   flags,
		Columns: columns,
	})
	return cd
}

// Schema is a flattened class definition: the parent chain collapsed into one
// ordered property list and one ordered record list.
//
// A Schema is immutable once resolved; entities bind to the Schema instance
// they were instantiated from.
type Schema struct {
	Class      string
	Properties []PropertyDef
	Records    []RecordDef

	propIdx map[string]int
	recIdx  map[string]int
}

// Property returns the definition of the named property
func (s *Schema) Property(name string) (*PropertyDef, bool) {
	i, ok := s.propIdx[name]
	if !ok {
		return nil, false
	}
	return &s.Properties[i], true
}

// PropertyIndex returns the slot index of the named property, or -1
func (s *Schema) PropertyIndex(name string) int {
	i, ok := s.propIdx[name]
	if !ok {
		return -1
	}
	return i
}

// Record returns the definition of the named record
func (s *Schema) Record(name string) (*RecordDef, bool) {
	i, ok := s.recIdx[name]
	if !ok {
		return nil, false
	}
	return &s.Records[i], true
}

func (s *Schema) buildIndex() {
	s.propIdx = make(map[string]int, len(s.Properties))
	for i := range s.Properties {
		s.propIdx[s.Properties[i].Name] = i
	}
	s.recIdx = make(map[string]int, len(s.Records))
	for i := range s.Records {
		s.recIdx[s.Records[i].Name] = i
	}
}
