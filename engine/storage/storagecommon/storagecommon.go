package storagecommon

import "github.com/noahframe/noahframe/engine/common"

// EntityStorage defines the interface of entity storage backends.
// Snapshots are keyed by class name and entity id.
type EntityStorage interface {
	List(className string) ([]common.EntityID, error)
	Write(className string, entityID common.EntityID, data interface{}) error
	Read(className string, entityID common.EntityID) (interface{}, error)
	Exists(className string, entityID common.EntityID) (bool, error)
	Close()
	IsEOF(err error) bool
}
