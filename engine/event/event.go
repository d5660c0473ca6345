package event

import (
	"fmt"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/data"
)

// Kind enumerates the event kinds the kernel raises
type Kind int

const (
	// ClassCreated fires after an entity of the class is fully constructed
	ClassCreated Kind = 1 + iota
	// ClassDestroyed fires before an entity of the class is torn down
	ClassDestroyed
	// PropertyChanged fires after a property write commits
	PropertyChanged
	// RecordRowAdded fires after a row is appended to a record
	RecordRowAdded
	// RecordRowRemoved fires after a row is tombstoned
	RecordRowRemoved
	// RecordCellChanged fires after a record cell write commits
	RecordCellChanged
)

func (k Kind) String() string {
	switch k {
	case ClassCreated:
		return "ClassCreated"
	case ClassDestroyed:
		return "ClassDestroyed"
	case PropertyChanged:
		return "PropertyChanged"
	case RecordRowAdded:
		return "RecordRowAdded"
	case RecordRowRemoved:
		return "RecordRowRemoved"
	case RecordCellChanged:
		return "RecordCellChanged"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Subject identifies what a subscription listens to.
//
// Class events are keyed by class name; property and record events are keyed
// by entity and property/record name. Subjects are comparable and used as map
// keys directly.
type Subject struct {
	Kind   Kind
	Class  string
	Entity common.EntityID
	Name   string
}

// AnyClass is the wildcard for subscriptions observing a class event kind
// across all classes
const AnyClass = "*"

// AnyEntity is the wildcard for subscriptions observing a data event kind
// across all entities. The kernel raises every occurrence to its exact
// subject first, then to the wildcard subject, so flag-filtering
// collaborators (persistence, replication) need one subscription per kind.
const AnyEntity = common.EntityID("*")

// ClassSubject keys a class-level event
func ClassSubject(kind Kind, class string) Subject {
	return Subject{Kind: kind, Class: class}
}

// PropertySubject keys a property-changed event
func PropertySubject(entity common.EntityID, property string) Subject {
	return Subject{Kind: PropertyChanged, Entity: entity, Name: property}
}

// RecordSubject keys a record event of the given kind
func RecordSubject(kind Kind, entity common.EntityID, record string) Subject {
	return Subject{Kind: kind, Entity: entity, Name: record}
}

// Occurrence is one event instance delivered to subscribers.
//
// Old/New carry the pre- and post-write values for property and cell changes;
// Row and Column are set for record events.
type Occurrence struct {
	Kind   Kind
	Entity common.EntityID
	Class  string
	Name   string
	Row    int
	Column string
	Old    data.Value
	New    data.Value
	Flags  data.Flag
}

// Callback is the subscriber function type. Callbacks run synchronously on
// the dispatching goroutine; a panicking callback is contained and reported,
// it never aborts the pass.
type Callback func(occ *Occurrence)
