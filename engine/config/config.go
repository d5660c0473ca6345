package config

import (
	"encoding/json"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/common"
	"github.com/noahframe/noahframe/engine/nflog"
)

const (
	_DEFAULT_CONFIG_FILE  = "noahframe.ini"
	_DEFAULT_LOG_LEVEL    = "debug"
	_DEFAULT_SAVE_ITERVAL = time.Minute * 5
	_DEFAULT_STORAGE_DB   = "noahframe"
)

var (
	configFilePath = _DEFAULT_CONFIG_FILE
	frameConfig    *FrameConfig
	configLock     sync.Mutex
)

// KernelConfig defines fields of the kernel config section
type KernelConfig struct {
	LogFile           string
	LogStderr         bool
	LogLevel          string
	GoMaxProcs        int
	TickIntervalMS    int
	SaveInterval      time.Duration
	OpMonDumpInterval time.Duration
}

// StorageConfig defines fields of the entity storage config section
type StorageConfig struct {
	Type       string // Type of storage (filesystem, mongodb, redis, redis_cluster)
	Directory  string // Directory of filesystem storage (filesystem)
	Url        string // Connection URL (mongodb, redis)
	DB         string // Database name (mongodb, redis)
	StartNodes common.StringSet
}

// ReplicationConfig defines fields of the replication config section
type ReplicationConfig struct {
	Enabled     bool
	QueueLength int
}

// FrameConfig defines the total config file structure
type FrameConfig struct {
	Kernel      KernelConfig
	Storage     StorageConfig
	Replication ReplicationConfig
}

// SetConfigFile sets the config file path (noahframe.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigDir returns the directory of the config file
func GetConfigDir() string {
	dir, _ := path.Split(configFilePath)
	return dir
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the total config
func Get() *FrameConfig {
	configLock.Lock()
	defer configLock.Unlock()
	if frameConfig == nil {
		frameConfig = readFrameConfig()
	}
	return frameConfig
}

// Reload forces reloading of the whole config
func Reload() *FrameConfig {
	configLock.Lock()
	frameConfig = nil
	configLock.Unlock()

	return Get()
}

// GetKernel returns the kernel config section
func GetKernel() *KernelConfig {
	return &Get().Kernel
}

// GetStorage returns the storage config section
func GetStorage() *StorageConfig {
	return &Get().Storage
}

// GetReplication returns the replication config section
func GetReplication() *ReplicationConfig {
	return &Get().Replication
}

// DumpPretty formats config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

func readFrameConfig() *FrameConfig {
	config := FrameConfig{}
	nflog.Infof("Using config file: %s", configFilePath)
	iniFile, err := ini.Load(configFilePath)
	checkConfigError(err, "")

	readKernelConfig(iniFile.Section("kernel"), &config.Kernel)
	readStorageConfig(iniFile.Section("storage"), &config.Storage)
	readReplicationConfig(iniFile.Section("replication"), &config.Replication)

	for _, sec := range iniFile.Sections() {
		secName := strings.ToLower(sec.Name())
		if secName == "default" || secName == "kernel" || secName == "storage" || secName == "replication" {
			continue
		}
		nflog.Errorf("unknown section: %s", sec.Name())
	}

	return &config
}

func readKernelConfig(sec *ini.Section, kc *KernelConfig) {
	kc.LogFile = "noahframe.log"
	kc.LogStderr = true
	kc.LogLevel = _DEFAULT_LOG_LEVEL
	kc.GoMaxProcs = 0
	kc.TickIntervalMS = 100
	kc.SaveInterval = _DEFAULT_SAVE_ITERVAL
	kc.OpMonDumpInterval = 0 // op dump not enabled by default

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "log_file" {
			kc.LogFile = key.MustString(kc.LogFile)
		} else if name == "log_stderr" {
			kc.LogStderr = key.MustBool(kc.LogStderr)
		} else if name == "log_level" {
			kc.LogLevel = key.MustString(kc.LogLevel)
		} else if name == "gomaxprocs" {
			kc.GoMaxProcs = key.MustInt(kc.GoMaxProcs)
		} else if name == "tick_interval_ms" {
			kc.TickIntervalMS = key.MustInt(kc.TickIntervalMS)
		} else if name == "save_interval" {
			kc.SaveInterval = time.Second * time.Duration(key.MustInt(int(_DEFAULT_SAVE_ITERVAL/time.Second)))
		} else if name == "opmon_dump_interval" {
			kc.OpMonDumpInterval = time.Second * time.Duration(key.MustInt(0))
		} else {
			nflog.Fatalf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if kc.TickIntervalMS <= 0 {
		nflog.Panicf("tick_interval_ms must be positive, got %d", kc.TickIntervalMS)
	}
	if kc.SaveInterval <= 0 {
		nflog.Panicf("save_interval must be positive, got %s", kc.SaveInterval)
	}
}

func readStorageConfig(sec *ini.Section, config *StorageConfig) {
	// setup default values
	config.Type = "filesystem"
	config.Directory = "_entity_storage"
	config.DB = _DEFAULT_STORAGE_DB
	config.Url = ""
	config.StartNodes = common.StringSet{}

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "directory" {
			config.Directory = key.MustString(config.Directory)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if strings.HasPrefix(name, "start_nodes_") {
			config.StartNodes.Add(key.MustString(""))
		} else {
			nflog.Fatalf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if config.Type == "redis" {
		if config.DB == "" {
			config.DB = "0"
		}
	}

	validateStorageConfig(config)
}

func readReplicationConfig(sec *ini.Section, config *ReplicationConfig) {
	config.Enabled = true
	config.QueueLength = 10000

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "enabled" {
			config.Enabled = key.MustBool(config.Enabled)
		} else if name == "queue_length" {
			config.QueueLength = key.MustInt(config.QueueLength)
		} else {
			nflog.Fatalf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if config.QueueLength <= 0 {
		nflog.Panicf("queue_length must be positive, got %d", config.QueueLength)
	}
}

func checkConfigError(err error, msg string) {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		nflog.Panicf("read config error: %s", msg)
	}
}

func validateStorageConfig(config *StorageConfig) {
	if config.Type == "filesystem" {
		if config.Directory == "" {
			nflog.Panicf("directory is not set in %s storage config", config.Type)
		}
	} else if config.Type == "mongodb" {
		if config.Url == "" {
			nflog.Panicf("url is not set in %s storage config", config.Type)
		}
		if config.DB == "" {
			nflog.Panicf("db is not set in %s storage config", config.Type)
		}
	} else if config.Type == "redis" {
		if config.Url == "" {
			nflog.Panicf("redis host is not set")
		}
		if _, err := strconv.Atoi(config.DB); err != nil {
			nflog.Panic(errors.Wrap(err, "redis db must be integer"))
		}
	} else if config.Type == "redis_cluster" {
		if len(config.StartNodes) == 0 {
			nflog.Panicf("must have at least 1 start_nodes for [storage].redis_cluster")
		}
		for s := range config.StartNodes {
			if s == "" {
				nflog.Panicf("start_nodes must not be empty")
			}
		}
	} else {
		nflog.Panicf("unknown storage type: %s", config.Type)
	}
}
