//go:build !windows
// +build !windows

package binutil

import (
	"os"

	"github.com/sevlyar/go-daemon"

	"github.com/noahframe/noahframe/engine/nflog"
)

// Daemonize forks the process into the background
func Daemonize() *daemon.Context {
	context := new(daemon.Context)
	child, err := context.Reborn()

	if err != nil {
		// daemonize failed
		nflog.Panicf("daemonize failed: %v", err)
	}

	if child != nil {
		nflog.Infof("run in daemon mode")
		os.Exit(0)
		return nil
	}
	return context
}
