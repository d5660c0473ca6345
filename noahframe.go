package noahframe

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"

	"github.com/noahframe/noahframe/engine/binutil"
	"github.com/noahframe/noahframe/engine/config"
	"github.com/noahframe/noahframe/engine/kernel"
	"github.com/noahframe/noahframe/engine/module"
	"github.com/noahframe/noahframe/engine/nflog"
	"github.com/noahframe/noahframe/engine/opmon"
	"github.com/noahframe/noahframe/engine/persist"
	"github.com/noahframe/noahframe/engine/post"
	"github.com/noahframe/noahframe/engine/repl"
	"github.com/noahframe/noahframe/engine/sched"
	"github.com/noahframe/noahframe/engine/schema"
)

const (
	rsRunning = iota + 1
	rsTerminating
	rsTerminated
)

// Delegate receives framework lifecycle notifications
type Delegate interface {
	// OnReady is called once all modules finished starting up
	OnReady(f *Frame)
}

// Frame ties the kernel and its collaborator modules together and drives
// the main loop. All entity operations and all event callbacks run on the
// goroutine calling Run.
type Frame struct {
	registry *schema.Registry
	kernel   *kernel.Kernel
	persist  *persist.Manager
	repl     *repl.Manager
	orch     *module.Orchestrator

	delegate Delegate
	runState xnsyncutil.AtomicInt
	stopped  *xnsyncutil.OneTimeCond
}

// New creates a frame with the standard modules registered: kernel, persist
// and repl. Register additional modules before calling Run.
func New() *Frame {
	reg := schema.NewRegistry()
	k := kernel.New(reg)
	f := &Frame{
		registry: reg,
		kernel:   k,
		persist:  persist.New(k),
		repl:     repl.New(k, 0),
		orch:     module.NewOrchestrator(),
		stopped:  xnsyncutil.NewOneTimeCond(),
	}
	f.orch.Register(k)
	f.orch.Register(f.persist)
	f.orch.Register(f.repl)
	return f
}

// Registry returns the schema registry for defining classes
func (f *Frame) Registry() *schema.Registry {
	return f.registry
}

// Kernel returns the entity kernel
func (f *Frame) Kernel() *kernel.Kernel {
	return f.kernel
}

// Persist returns the persistence manager
func (f *Frame) Persist() *persist.Manager {
	return f.persist
}

// Repl returns the replication manager
func (f *Frame) Repl() *repl.Manager {
	return f.repl
}

// Register adds a user module to the frame. Must be called before Run.
func (f *Frame) Register(m module.Module) {
	f.orch.Register(m)
}

// Run starts all modules and drives the main loop until Terminate is called
// or SIGINT/SIGTERM arrives. It does not return until shutdown completed.
func (f *Frame) Run(delegate Delegate) {
	f.delegate = delegate

	kcfg := config.GetKernel()
	binutil.SetupNFLog("noahframe", kcfg.LogLevel, kcfg.LogFile, kcfg.LogStderr)
	if kcfg.GoMaxProcs > 0 {
		nflog.Infof("SetGoMaxProcs: %d", kcfg.GoMaxProcs)
		runtime.GOMAXPROCS(kcfg.GoMaxProcs)
	}
	opmon.StartDump(kcfg.OpMonDumpInterval)

	if err := f.orch.Startup(); err != nil {
		nflog.Fatalf("startup failed: %v", err)
	}

	f.runState.Store(rsRunning)
	f.setupSignals()

	sched.StartCron()
	if kcfg.SaveInterval > 0 {
		sched.ScheduleRepeating(kcfg.SaveInterval, func() {
			f.persist.SaveAll()
		})
	}
	sched.ScheduleCallback(0, func() {
		if f.delegate != nil {
			f.delegate.OnReady(f)
		}
	})

	tickInterval := time.Millisecond * time.Duration(kcfg.TickIntervalMS)
	for f.runState.Load() == rsRunning {
		sched.Tick()
		f.orch.Tick()
		// after firing timers and module ticks, run the posted functions
		post.Tick()
		time.Sleep(tickInterval)
	}

	f.doTerminate()
}

// Terminate asks the main loop to shut down. Safe to call from any
// goroutine; shutdown itself happens on the main loop.
func (f *Frame) Terminate() {
	if f.runState.Load() == rsRunning {
		f.runState.Store(rsTerminating)
	}
}

// WaitTerminated blocks until shutdown completed
func (f *Frame) WaitTerminated() {
	f.stopped.Wait()
}

func (f *Frame) doTerminate() {
	// consume whatever was posted before shutting modules down
	post.Tick()
	f.orch.Shutdown()
	nflog.Infof("all entities saved & destroyed, frame terminated")
	f.runState.Store(rsTerminated)
	f.stopped.Signal()
}

func (f *Frame) setupSignals() {
	nflog.Infof("Setup signals ...")
	signalChan := make(chan os.Signal, 1)
	signal.Ignore(syscall.SIGPIPE, syscall.SIGHUP)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				nflog.Infof("Terminating frame ...")
				f.Terminate()
			} else {
				nflog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
