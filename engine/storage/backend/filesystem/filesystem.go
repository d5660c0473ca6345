package entitystoragefilesystem

import (
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/nflog"
	"github.com/noahframe/noahframe/engine/storage/storagecommon"
)

// FileSystemEntityStorage stores one JSON file per entity. Meant for
// development and tests, not production loads.
type FileSystemEntityStorage struct {
	directory string
}

// OpenDirectory opens a directory as entity storage
func OpenDirectory(directory string) (storagecommon.EntityStorage, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}

	return &FileSystemEntityStorage{
		directory: directory,
	}, nil
}

func getFileName(className string, entityID common.EntityID) string {
	return className + "$" + base64.URLEncoding.EncodeToString([]byte(entityID))
}

func (es *FileSystemEntityStorage) getFilePath(className string, entityID common.EntityID) string {
	return filepath.Join(es.directory, getFileName(className, entityID))
}

func (es *FileSystemEntityStorage) Write(className string, entityID common.EntityID, data interface{}) error {
	saveFile := es.getFilePath(className, entityID)
	dataBytes, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	return ioutil.WriteFile(saveFile, dataBytes, 0644)
}

func (es *FileSystemEntityStorage) Read(className string, entityID common.EntityID) (interface{}, error) {
	saveFile := es.getFilePath(className, entityID)
	dataBytes, err := ioutil.ReadFile(saveFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var data interface{}
	err = json.Unmarshal(dataBytes, &data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (es *FileSystemEntityStorage) Exists(className string, entityID common.EntityID) (exists bool, err error) {
	saveFile := es.getFilePath(className, entityID)
	_, err = os.Stat(saveFile)
	exists = err == nil || os.IsExist(err)
	if !exists && os.IsNotExist(err) {
		err = nil
	}
	return
}

func (es *FileSystemEntityStorage) List(className string) ([]common.EntityID, error) {
	prefix := className + "$"
	pat := filepath.Join(es.directory, prefix+"*")
	files, err := filepath.Glob(pat)
	if err != nil {
		return nil, err
	}
	res := make([]common.EntityID, 0, len(files))
	prefixLen := len(prefix)
	for _, fpath := range files {
		_, fn := filepath.Split(fpath)
		if !strings.HasPrefix(fn, prefix) {
			nflog.Errorf("invalid file: %s", fpath)
			continue
		}
		idbytes, err := base64.URLEncoding.DecodeString(fn[prefixLen:])
		if err != nil {
			nflog.TraceError("fail to parse file %s", fpath)
			continue
		}

		res = append(res, common.MustEntityID(string(idbytes)))
	}
	return res, nil
}

func (es *FileSystemEntityStorage) Close() {
	// nothing to release
}

func (es *FileSystemEntityStorage) IsEOF(err error) bool {
	return false
}
