package entitystorageredis

import (
	"io"

	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/codec"
	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/storage/storagecommon"
)

var (
	dataPacker = codec.MessagePackPacker{}
)

type redisEntityStorage struct {
	c redis.Conn
}

// OpenRedis opens redis as entity storage
func OpenRedis(host string, dbindex int) (storagecommon.EntityStorage, error) {
	c, err := redis.Dial("tcp", host)
	if err != nil {
		return nil, errors.Wrap(err, "redis dial failed")
	}

	if _, err := c.Do("SELECT", dbindex); err != nil {
		return nil, errors.Wrap(err, "redis select db failed")
	}

	return &redisEntityStorage{
		c: c,
	}, nil
}

func entityKey(className string, eid common.EntityID) string {
	return className + "$" + string(eid)
}

func packData(data interface{}) (b []byte, err error) {
	return dataPacker.PackMsg(data, nil)
}

func (es *redisEntityStorage) List(className string) ([]common.EntityID, error) {
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

func (es *redisEntityStorage) Write(className string, entityID common.EntityID, data interface{}) error {
	b, err := packData(data)
	if err != nil {
		return err
	}

	_, err = es.c.Do("SET", entityKey(className, entityID), b)
	return err
}

func (es *redisEntityStorage) Read(className string, entityID common.EntityID) (interface{}, error) {
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

func (es *redisEntityStorage) Exists(className string, entityID common.EntityID) (bool, error) {
	key := entityKey(className, entityID)
	exists, err := redis.Bool(es.c.Do("EXISTS", key))
	return exists, err
}

func (es *redisEntityStorage) Close() {
	es.c.Close()
}

func (es *redisEntityStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
