package property

import (
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/schema"
)

// ErrNotFound is returned for a property name the schema does not declare
var ErrNotFound = errors.New("property not found")

// Store holds the property values of one entity.
//
// The set of names and their types is fixed by the flattened schema at
// construction; only values change afterwards. The store itself performs no
// locking: the kernel's single-writer-per-entity contract applies.
type Store struct {
	sc     *schema.Schema
	values []data.Value
	dirty  []bool
}

// Entry is one (name, value, flags) triple from a snapshot
type Entry struct {
	Name  string
	Value data.Value
	Flags data.Flag
}

// NewStore builds a store populated with the schema defaults
func NewStore(sc *schema.Schema) *Store {
	s := &Store{
		sc:     sc,
		values: make([]data.Value, len(sc.Properties)),
		dirty:  make([]bool, len(sc.Properties)),
	}
	for i := range sc.Properties {
		s.values[i] = sc.Properties[i].Default
	}
	return s
}

// Get returns the value and flags of the named property.
//
// Value and flags come back from one call so callers observe them atomically.
func (s *Store) Get(name string) (data.Value, data.Flag, error) {
	i := s.sc.PropertyIndex(name)
	if i < 0 {
		return data.Value{}, 0, errors.Wrapf(ErrNotFound, "property %s", name)
	}
	return s.values[i], s.sc.Properties[i].Flags, nil
}

// Set writes the named property and returns the prior value.
//
// A value whose type disagrees with the schema is rejected and the store is
// left unchanged. Writing a value equal to the current one still counts as a
// write: the dirty mark is set and the old value returned, so the kernel
// raises the change event either way.
func (s *Store) Set(name string, v data.Value) (data.Value, error) {
	i := s.sc.PropertyIndex(name)
	if i < 0 {
		return data.Value{}, errors.Wrapf(ErrNotFound, "property %s", name)
	}
	if v.Type() != s.sc.Properties[i].Type {
		return data.Value{}, errors.Wrapf(data.ErrTypeMismatch, "property %s is %s, not %s",
			name, s.sc.Properties[i].Type, v.Type())
	}

	old := s.values[i]
	s.values[i] = v
	s.dirty[i] = true
	return old, nil
}

// Flags returns the schema-declared flags of the named property
func (s *Store) Flags(name string) (data.Flag, error) {
	i := s.sc.PropertyIndex(name)
	if i < 0 {
		return 0, errors.Wrapf(ErrNotFound, "property %s", name)
	}
	return s.sc.Properties[i].Flags, nil
}

// Dirty returns if the named property was written since the last MarkClean
func (s *Store) Dirty(name string) bool {
	i := s.sc.PropertyIndex(name)
	if i < 0 {
		return false
	}
	return s.dirty[i]
}

// HasDirty returns if any property matching the flag filter is dirty.
// A zero filter matches every property.
func (s *Store) HasDirty(filter data.Flag) bool {
	for i := range s.dirty {
		if s.dirty[i] && s.sc.Properties[i].Flags.Has(filter) {
			return true
		}
	}
	return false
}

// MarkClean clears all dirty marks
func (s *Store) MarkClean() {
	for i := range s.dirty {
		s.dirty[i] = false
	}
}

// Snapshot returns all properties in schema order.
//
// The returned slice is a copy reflecting state at call time.
func (s *Store) Snapshot() []Entry {
	entries := make([]Entry, len(s.values))
	for i := range s.values {
		entries[i] = Entry{
			Name:  s.sc.Properties[i].Name,
			Value: s.values[i],
			Flags: s.sc.Properties[i].Flags,
		}
	}
	return entries
}

// SnapshotWithFilter returns the properties whose flags contain filter
func (s *Store) SnapshotWithFilter(filter data.Flag) []Entry {
	entries := make([]Entry, 0, len(s.values))
	for i := range s.values {
		if !s.sc.Properties[i].Flags.Has(filter) {
			continue
		}
		entries = append(entries, Entry{
			Name:  s.sc.Properties[i].Name,
			Value: s.values[i],
			Flags: s.sc.Properties[i].Flags,
		})
	}
	return entries
}
