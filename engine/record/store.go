package record

import (
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/schema"
)

// Store holds the records of one entity, built from the flattened schema.
type Store struct {
	records map[string]*Record
	order   []string
}

// NewStore builds empty records for every record the schema declares
func NewStore(sc *schema.Schema) *Store {
	s := &Store{
		records: make(map[string]*Record, len(sc.Records)),
		order:   make([]string, 0, len(sc.Records)),
	}
	for i := range sc.Records {
		s.records[sc.Records[i].Name] = newRecord(&sc.Records[i])
		s.order = append(s.order, sc.Records[i].Name)
	}
	return s
}

// Get returns the named record
func (s *Store) Get(name string) (*Record, error) {
	r, ok := s.records[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "record %s", name)
	}
	return r, nil
}

// Names returns all record names in schema order
func (s *Store) Names() []string {
	return s.order
}

// ForEach visits all records in schema order
func (s *Store) ForEach(f func(r *Record)) {
	for _, name := range s.order {
		f(s.records[name])
	}
}
