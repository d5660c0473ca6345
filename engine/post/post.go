package post

import (
	"sync"

	"github.com/noahframe/noahframe/engine/nfutils"
)

// PostCallback is the type of functions to be posted
type PostCallback func()

var (
	callbacks []PostCallback
	lock      sync.Mutex
)

// Post a callback to be executed on the next main loop tick, after the
// current dispatch pass finished. Event subscribers use this to defer work
// that must not run while the kernel is mid-mutation.
//
// Post might be called from other goroutines, so the queue is locked.
func Post(f PostCallback) {
	lock.Lock()
	callbacks = append(callbacks, f)
	lock.Unlock()
}

// Tick is called by the main loop to run all posted functions
func Tick() {
	for { // loop until there is no callbacks posted anymore
		lock.Lock()
		if len(callbacks) == 0 {
			lock.Unlock()
			break
		}
		// switch callbacks in locked section
		callbacksCopy := callbacks
		callbacks = make([]PostCallback, 0, len(callbacks))
		lock.Unlock()

		for _, f := range callbacksCopy {
			nfutils.RunPanicless(f)
		}
	}
}
