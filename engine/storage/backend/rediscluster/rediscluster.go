package entitystoragerediscluster

import (
	"io"
	"time"

	rediscluster "github.com/chasex/redis-go-cluster"
	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/codec"
	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/storage/storagecommon"
)

var (
	dataPacker = codec.MessagePackPacker{}
)

type redisClusterEntityStorage struct {
	c rediscluster.Cluster
}

// OpenRedisCluster opens a redis cluster as entity storage
func OpenRedisCluster(startNodes []string) (storagecommon.EntityStorage, error) {
	c, err := rediscluster.NewCluster(&rediscluster.Options{
		StartNodes:   startNodes,
		ConnTimeout:  10 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		KeepAlive:    1,
		AliveTime:    10 * time.Minute,
	})

	if err != nil {
		return nil, errors.Wrap(err, "connect redis cluster failed")
	}

	return &redisClusterEntityStorage{
		c: c,
	}, nil
}

func entityKey(className string, eid common.EntityID) string {
	return className + "$" + string(eid)
}

// List scans keys of the class. Cluster.Do cannot route SCAN across nodes,
// so only keys on the node answering the cursor are returned.
func (es *redisClusterEntityStorage) List(className string) ([]common.EntityID, error) {
	keyMatch := className + "$*"
	r, err := redis.Values(es.c.Do("SCAN", "0", "MATCH", keyMatch, "COUNT", 10000))
	if err != nil {
		return nil, err
	}
	var eids []common.EntityID
	prefixLen := len(className) + 1
	for {
		nextCursor := r[0]
		keys, err := redis.Strings(r[1], nil)
		if err != nil {
			return nil, err
		}

		for _, key := range keys {
			eids = append(eids, common.EntityID(key[prefixLen:]))
		}

		if isZeroCursor(nextCursor) {
			break
		}
		r, err = redis.Values(es.c.Do("SCAN", nextCursor, "MATCH", keyMatch, "COUNT", 10000))
		if err != nil {
			return nil, err
		}
	}
	return eids, nil
}

func isZeroCursor(c interface{}) bool {
	return string(c.([]byte)) == "0"
}

func (es *redisClusterEntityStorage) Write(className string, entityID common.EntityID, data interface{}) error {
	b, err := dataPacker.PackMsg(data, nil)
	if err != nil {
		return err
	}

	_, err = es.c.Do("SET", entityKey(className, entityID), b)
	return err
}

func (es *redisClusterEntityStorage) Read(className string, entityID common.EntityID) (interface{}, error) {
	b, err := redis.Bytes(es.c.Do("GET", entityKey(className, entityID)))
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err = dataPacker.UnpackMsg(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (es *redisClusterEntityStorage) Exists(className string, entityID common.EntityID) (bool, error) {
	key := entityKey(className, entityID)
	exists, err := redis.Bool(es.c.Do("EXISTS", key))
	return exists, err
}

func (es *redisClusterEntityStorage) Close() {
	// the cluster client exposes no close
}

func (es *redisClusterEntityStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
