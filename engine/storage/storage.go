package storage

import (
	"strconv"
	"time"

	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/config"
	"github.com/noahframe/noahframe/engine/nflog"
	"github.com/noahframe/noahframe/engine/opmon"
	"github.com/noahframe/noahframe/engine/post"
	entitystoragefilesystem "github.com/noahframe/noahframe/engine/storage/backend/filesystem"
	entitystoragemongodb "github.com/noahframe/noahframe/engine/storage/backend/mongodb"
	entitystorageredis "github.com/noahframe/noahframe/engine/storage/backend/redis"
	entitystoragerediscluster "github.com/noahframe/noahframe/engine/storage/backend/rediscluster"
	"github.com/noahframe/noahframe/engine/storage/storagecommon"
)

var (
	storageEngine            storagecommon.EntityStorage
	operationQueue           = xnsyncutil.NewSyncQueue()
	storageRoutineTerminated = xnsyncutil.NewOneTimeCond()
)

type saveRequest struct {
	ClassName string
	EntityID  common.EntityID
	Data      interface{}
	Callback  SaveCallbackFunc
}

type loadRequest struct {
	ClassName string
	EntityID  common.EntityID
	Callback  LoadCallbackFunc
}

type existsRequest struct {
	ClassName string
	EntityID  common.EntityID
	Callback  ExistsCallbackFunc
}

type listEntityIDsRequest struct {
	ClassName string
	Callback  ListCallbackFunc
}

// SaveCallbackFunc is the callback type of storage Save
type SaveCallbackFunc func()

// LoadCallbackFunc is the callback type of storage Load
type LoadCallbackFunc func(data interface{}, err error)

// ExistsCallbackFunc is the callback type of storage Exists
type ExistsCallbackFunc func(exists bool, err error)

// ListCallbackFunc is the callback type of storage ListEntityIDs
type ListCallbackFunc func([]common.EntityID, error)

// Save queues an entity snapshot write. The callback runs on the main loop
// through the post queue once the write succeeded.
func Save(className string, entityID common.EntityID, data interface{}, callback SaveCallbackFunc) {
	operationQueue.Push(saveRequest{
		ClassName: className,
		EntityID:  entityID,
		Data:      data,
		Callback:  callback,
	})
	checkOperationQueueLen()
}

// Load queues an entity snapshot read
func Load(className string, entityID common.EntityID, callback LoadCallbackFunc) {
	operationQueue.Push(loadRequest{
		ClassName: className,
		EntityID:  entityID,
		Callback:  callback,
	})
	checkOperationQueueLen()
}

// Exists checks if a snapshot of the entity exists in storage
func Exists(className string, entityID common.EntityID, callback ExistsCallbackFunc) {
	operationQueue.Push(existsRequest{
		ClassName: className,
		EntityID:  entityID,
		Callback:  callback,
	})
	checkOperationQueueLen()
}

// ListEntityIDs returns all entity IDs of the class in storage
//
// Return values can be large for common classes
func ListEntityIDs(className string, callback ListCallbackFunc) {
	operationQueue.Push(listEntityIDsRequest{
		ClassName: className,
		Callback:  callback,
	})
	checkOperationQueueLen()
}

var recentWarnedQueueLen = 0

func checkOperationQueueLen() {
	qlen := operationQueue.Len()
	if qlen > 100 && qlen%100 == 0 && recentWarnedQueueLen != qlen {
		nflog.Warnf("storage: operation queue length = %d", qlen)
		recentWarnedQueueLen = qlen
	}
}

// Shutdown closes the operation queue and waits for the storage routine to
// finish its remaining work
func Shutdown() {
	operationQueue.Close()
	storageRoutineTerminated.Wait()
}

// Initialize connects the configured backend and starts the storage routine
func Initialize() {
	err := assureStorageEngineReady()
	if err != nil {
		nflog.Fatalf("storage engine is not ready: %s", err)
	}
	go storageRoutine()
}

func assureStorageEngineReady() (err error) {
	if storageEngine != nil {
		return
	}

	cfg := config.GetStorage()
	if cfg.Type == "filesystem" {
		storageEngine, err = entitystoragefilesystem.OpenDirectory(cfg.Directory)
	} else if cfg.Type == "mongodb" {
		storageEngine, err = entitystoragemongodb.OpenMongoDB(cfg.Url, cfg.DB)
	} else if cfg.Type == "redis" {
		var dbindex int
		if dbindex, err = strconv.Atoi(cfg.DB); err == nil {
			storageEngine, err = entitystorageredis.OpenRedis(cfg.Url, dbindex)
		}
	} else if cfg.Type == "redis_cluster" {
		storageEngine, err = entitystoragerediscluster.OpenRedisCluster(cfg.StartNodes.ToList())
	} else {
		nflog.Panicf("unknown storage type: %s", cfg.Type)
	}

	return
}

func storageRoutine() {
	defer func() {
		err := recover()
		if err != nil {
			nflog.TraceError("storage routine paniced: %s, restarting ...", err)
			go storageRoutine() // restart the storage routine
		} else {
			// normal quit
			storageEngine.Close()
			storageRoutineTerminated.Signal()
		}
	}()

	for {
		err := assureStorageEngineReady()
		if err != nil {
			nflog.Errorf("storage engine is not ready: %s", err)
			time.Sleep(time.Second)
			continue
		}

		op := operationQueue.Pop()
		if op == nil { // entity storage closed
			break
		}

		var monop *opmon.Operation
		if saveReq, ok := op.(saveRequest); ok {
			monop = opmon.StartOperation("storage.save")
			for {
				err := assureStorageEngineReady()
				if err != nil {
					nflog.Errorf("storage engine is not ready: %s", err)
					time.Sleep(time.Second) // wait for 1 second to retry
					continue
				}

				err = storageEngine.Write(saveReq.ClassName, saveReq.EntityID, saveReq.Data)
				if err != nil {
					nflog.Errorf("storage: save failed: %s", err)

					if storageEngine.IsEOF(err) {
						storageEngine.Close()
						storageEngine = nil
					}

					continue // always retry if fail
				}

				monop.Finish(time.Millisecond * 100)
				if saveReq.Callback != nil {
					post.Post(func() {
						saveReq.Callback()
					})
				}
				break
			}
		} else if loadReq, ok := op.(loadRequest); ok {
			monop = opmon.StartOperation("storage.load")
			data, err := storageEngine.Read(loadReq.ClassName, loadReq.EntityID)
			if err != nil {
				nflog.TraceError("storage: load %s %s failed: %s", loadReq.ClassName, loadReq.EntityID, err)
				data = nil
			}

			monop.Finish(time.Millisecond * 100)
			if loadReq.Callback != nil {
				post.Post(func() {
					loadReq.Callback(data, err)
				})
			}

			if err != nil && storageEngine.IsEOF(err) {
				storageEngine.Close()
				storageEngine = nil
			}
		} else if existsReq, ok := op.(existsRequest); ok {
			monop = opmon.StartOperation("storage.exists")
			exists, err := storageEngine.Exists(existsReq.ClassName, existsReq.EntityID)
			monop.Finish(time.Millisecond * 100)
			if existsReq.Callback != nil {
				post.Post(func() {
					existsReq.Callback(exists, err)
				})
			}
			if err != nil && storageEngine.IsEOF(err) {
				storageEngine.Close()
				storageEngine = nil
			}
		} else if listReq, ok := op.(listEntityIDsRequest); ok {
			monop = opmon.StartOperation("storage.list")
			eids, err := storageEngine.List(listReq.ClassName)
			if err != nil {
				nflog.TraceError("storage: list %s failed: %s", listReq.ClassName, err)
			}
			monop.Finish(time.Millisecond * 1000)
			if listReq.Callback != nil {
				post.Post(func() {
					listReq.Callback(eids, err)
				})
			}
			if err != nil && storageEngine.IsEOF(err) {
				storageEngine.Close()
				storageEngine = nil
			}
		} else {
			nflog.Panicf("storage: unknown operation: %v", op)
		}
	}
}
