package schema

import (
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/nflog"
)

// Registry holds class definitions and serves flattened schemas.
//
// Flattening runs once per class; subsequent Resolve calls return the cached
// Schema. Redefining a class after it has been resolved does not touch the
// cached Schema, so entities already bound keep the schema they were created
// with.
type Registry struct {
	classes  map[string]*ClassDef
	resolved map[string]*Schema
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		classes:  map[string]*ClassDef{},
		resolved: map[string]*Schema{},
	}
}

// Define registers a class and returns its definition for fluent building.
// parent may be empty for root classes. Registering the same class twice is a
// programming error.
func (r *Registry) Define(name string, parent string) *ClassDef {
	if name == "" {
		nflog.Panicf("schema: class name must not be empty")
	}
	if _, ok := r.classes[name]; ok {
		nflog.Panicf("schema: class %s already defined", name)
	}

	cd := &ClassDef{name: name, parent: parent}
	r.classes[name] = cd
	return cd
}

// Resolve returns the flattened schema of the class.
//
// Schema errors (unknown class, unknown or cyclic parent, a type change
// across inheritance) surface here, before any entity of the class can be
// created.
func (r *Registry) Resolve(className string) (*Schema, error) {
	return r.resolve(className, map[string]struct{}{})
}

func (r *Registry) resolve(className string, resolving map[string]struct{}) (*Schema, error) {
	if s, ok := r.resolved[className]; ok {
		return s, nil
	}

	cd, ok := r.classes[className]
	if !ok {
		return nil, errors.Wrapf(ErrClassNotFound, "class %s", className)
	}

	if _, ok := resolving[className]; ok {
		return nil, errors.Errorf("class %s: inheritance cycle", className)
	}
	resolving[className] = struct{}{}

	var base *Schema
	if cd.parent != "" {
		var err error
		base, err = r.resolve(cd.parent, resolving)
		if err != nil {
			// a class whose parent is unresolved is itself unresolved
			return nil, errors.Wrapf(err, "class %s: parent %s", className, cd.parent)
		}
	}

	s, err := flatten(className, base, cd)
	if err != nil {
		return nil, err
	}

	r.resolved[className] = s
	return s, nil
}

// flatten merges the parent's flattened schema with the child definition:
// parent order first, child overrides a same-named property's default/flags
// but never its type, new definitions append.
func flatten(className string, base *Schema, cd *ClassDef) (*Schema, error) {
	s := &Schema{Class: className}

	if base != nil {
		s.Properties = append(s.Properties, base.Properties...)
		s.Records = append(s.Records, base.Records...)
	}
	s.buildIndex()

	for _, pd := range cd.properties {
		if i, ok := s.propIdx[pd.Name]; ok {
			if s.Properties[i].Type != pd.Type {
				return nil, errors.Errorf("class %s: property %s: type changed from %s to %s across inheritance",
					className, pd.Name, s.Properties[i].Type, pd.Type)
			}
			s.Properties[i].Default = pd.Default
			s.Properties[i].Flags = pd.Flags
		} else {
			s.propIdx[pd.Name] = len(s.Properties)
			s.Properties = append(s.Properties, pd)
		}
	}

	for _, rd := range cd.records {
		if i, ok := s.recIdx[rd.Name]; ok {
			if err := sameColumns(s.Records[i].Columns, rd.Columns); err != nil {
				return nil, errors.Wrapf(err, "class %s: record %s", className, rd.Name)
			}
			s.Records[i].Flags = rd.Flags
		} else {
			s.recIdx[rd.Name] = len(s.Records)
			s.Records = append(s.Records, rd)
		}
	}

	return s, nil
}

func sameColumns(base, override []ColumnDef) error {
	if len(base) != len(override) {
		return errors.Errorf("column count changed from %d to %d across inheritance", len(base), len(override))
	}
	for i := range base {
		if base[i].Name != override[i].Name {
			return errors.Errorf("column %d renamed from %s to %s across inheritance", i, base[i].Name, override[i].Name)
		}
		if base[i].Type != override[i].Type {
			return errors.Errorf("column %s: type changed from %s to %s across inheritance", base[i].Name, base[i].Type, override[i].Type)
		}
	}
	return nil
}
