package entitystoragemongodb

import (
	"io"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/nflog"
	"github.com/noahframe/noahframe/engine/storage/storagecommon"
)

const (
	_DEFAULT_DB_NAME = "noahframe"
)

type mongoDBEntityStorage struct {
	db *mgo.Database
}

// OpenMongoDB opens mongodb as entity storage
func OpenMongoDB(url string, dbname string) (storagecommon.EntityStorage, error) {
	nflog.Debugf("Connecting MongoDB ...")
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, err
	}

	session.SetMode(mgo.Monotonic, true)
	if dbname == "" {
		dbname = _DEFAULT_DB_NAME
	}
	return &mongoDBEntityStorage{
		db: session.DB(dbname),
	}, nil
}

func (es *mongoDBEntityStorage) Write(className string, entityID common.EntityID, data interface{}) error {
	col := es.getCollection(className)
	_, err := col.UpsertId(entityID, bson.M{
		"data": data,
	})
	return err
}

func (es *mongoDBEntityStorage) Read(className string, entityID common.EntityID) (interface{}, error) {
	col := es.getCollection(className)
	q := col.FindId(entityID)
	var doc bson.M
	err := q.One(&doc)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return es.convertM2Map(doc["data"].(bson.M)), nil
}

func (es *mongoDBEntityStorage) convertM2Map(m bson.M) map[string]interface{} {
	ma := map[string]interface{}(m)
	es.convertM2MapInMap(ma)
	return ma
}

func (es *mongoDBEntityStorage) convertM2MapInMap(m map[string]interface{}) {
	for k, v := range m {
		switch im := v.(type) {
		case bson.M:
			m[k] = es.convertM2Map(im)
		case map[string]interface{}:
			es.convertM2MapInMap(im)
		case []interface{}:
			es.convertM2MapInList(im)
		}
	}
}

func (es *mongoDBEntityStorage) convertM2MapInList(l []interface{}) {
	for i, v := range l {
		switch im := v.(type) {
		case bson.M:
			l[i] = es.convertM2Map(im)
		case map[string]interface{}:
			es.convertM2MapInMap(im)
		case []interface{}:
			es.convertM2MapInList(im)
		}
	}
}

func (es *mongoDBEntityStorage) getCollection(className string) *mgo.Collection {
	return es.db.C(className)
}

func (es *mongoDBEntityStorage) List(className string) ([]common.EntityID, error) {
	col := es.getCollection(className)
	var docs []bson.M
	err := col.Find(nil).Select(bson.M{"_id": 1}).All(&docs)
	if err != nil {
		return nil, err
	}

	entityIDs := make([]common.EntityID, len(docs))
	for i, doc := range docs {
		entityIDs[i] = common.EntityID(doc["_id"].(string))
	}
	return entityIDs, nil
}

func (es *mongoDBEntityStorage) Exists(className string, entityID common.EntityID) (bool, error) {
	col := es.getCollection(className)
	query := col.FindId(entityID)
	var doc bson.M
	err := query.One(&doc)
	if err == nil {
		return true, nil
	} else if err == mgo.ErrNotFound {
		return false, nil
	}
	return false, err
}

func (es *mongoDBEntityStorage) Close() {
	es.db.Session.Close()
}

func (es *mongoDBEntityStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
