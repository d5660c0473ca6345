//go:build windows
// +build windows

package binutil

import "github.com/noahframe/noahframe/engine/nflog"

type nopRelease int

func (nopRelease) Release() {
}

// Daemonize is a no-op on windows
func Daemonize() nopRelease {
	nflog.Warnf("can not run in daemon mode in windows, -d ignored")
	return nopRelease(0)
}
