package entitystoragerediscluster

import (
	"testing"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/storage/storagecommon"
)

var _ storagecommon.EntityStorage = (*redisClusterEntityStorage)(nil)

func TestEntityKey(t *testing.T) {
	id := common.GenEntityID()
	key := entityKey("Avatar", id)
	if key != "Avatar$"+string(id) {
		t.Fatalf("wrong entity key: %s", key)
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	es := &redisClusterEntityStorage{}
	es.Close() // the client has nothing to release, must not panic
	if es.IsEOF(nil) {
		t.Fatalf("nil error is not EOF")
	}
}
