package common

import (
	"github.com/noahframe/noahframe/engine/nflog"
	"github.com/noahframe/noahframe/engine/uuid"
)

// ENTITYID_LENGTH is the length of Entity IDs
const ENTITYID_LENGTH = uuid.UUID_LENGTH

// EntityID is the id of an entity, unique for the process lifetime.
//
// EntityID is a fixed-length string so it can be used directly as a map key
// and as part of persistence keys.
type EntityID string

// IsNil returns if EntityID is nil
func (id EntityID) IsNil() bool {
	return id == ""
}

// GenEntityID generates a new EntityID
func GenEntityID() EntityID {
	return EntityID(uuid.GenUUID())
}

// MustEntityID assures a string to be EntityID
func MustEntityID(id string) EntityID {
	if len(id) != ENTITYID_LENGTH {
		nflog.Panicf("%s of len %d is not a valid entity ID (len=%d)", id, len(id), ENTITYID_LENGTH)
	}
	return EntityID(id)
}
