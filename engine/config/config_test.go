package config

import (
	"fmt"
	"os"
	"testing"

	"github.com/bmizerany/assert"

	"github.com/noahframe/noahframe/engine/nflog"
)

func init() {
	SetConfigFile("../../noahframe.ini.sample")
}

func TestLoad(t *testing.T) {
	config := Get()
	if config == nil {
		t.FailNow()
	}
	if config.Kernel.LogLevel == "" {
		t.Errorf("kernel log level not found")
	}
	if config.Kernel.TickIntervalMS <= 0 {
		t.Errorf("kernel tick interval not found")
	}
	nflog.Infof("read config: %v", config)
}

func TestReload(t *testing.T) {
	Get()
	config := Reload()
	if config == nil {
		t.FailNow()
	}
}

func TestGetKernel(t *testing.T) {
	assert.T(t, GetKernel() != nil, "kernel config is nil")
}

func TestGetStorage(t *testing.T) {
	cfg := GetStorage()
	if cfg == nil {
		t.Errorf("storage config not found")
	}
	if cfg.Type == "filesystem" && cfg.Directory == "" {
		t.Errorf("filesystem storage needs a directory")
	}
	fmt.Fprintf(os.Stderr, "%s\n", DumpPretty(cfg))
}

func TestGetReplication(t *testing.T) {
	cfg := GetReplication()
	assert.T(t, cfg != nil, "replication config is nil")
	assert.T(t, cfg.QueueLength > 0, "replication queue length must be positive")
}
