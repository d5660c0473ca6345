package module

import (
	"github.com/pkg/errors"

	"github.com/noahframe/noahframe/engine/nflog"
	"github.com/noahframe/noahframe/engine/nfutils"
)

// Stage enumerates the lifecycle stages the orchestrator drives
type Stage int

const (
	// StageNone is the initial stage before Startup
	StageNone Stage = iota
	// StageAwake through StageReadyExecute are the startup stages
	StageAwake
	StageInit
	StageAfterInit
	StageCheckConfig
	StageReadyExecute
	// StageExecuting is the steady state between Startup and Shutdown
	StageExecuting
	// StageBeforeShut through StageFinalize are the shutdown stages
	StageBeforeShut
	StageShut
	StageFinalize
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "None"
	case StageAwake:
		return "Awake"
	case StageInit:
		return "Init"
	case StageAfterInit:
		return "AfterInit"
	case StageCheckConfig:
		return "CheckConfig"
	case StageReadyExecute:
		return "ReadyExecute"
	case StageExecuting:
		return "Executing"
	case StageBeforeShut:
		return "BeforeShut"
	case StageShut:
		return "Shut"
	case StageFinalize:
		return "Finalize"
	}
	return "Stage(?)"
}

// Orchestrator owns the registered modules and drives them through the
// lifecycle stages in registration order.
//
// There are no process-wide module singletons: every component that needs a
// module reaches it through the orchestrator or holds the reference it was
// constructed with.
type Orchestrator struct {
	modules []Module
	byName  map[string]Module
	stage   Stage
}

// NewOrchestrator creates an empty orchestrator
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		byName: map[string]Module{},
	}
}

// Register adds a module. Modules must be registered before Startup;
// registration order is lifecycle order.
func (o *Orchestrator) Register(m Module) {
	if o.stage != StageNone {
		nflog.Panicf("module: can not register %s in stage %s", m.Name(), o.stage)
	}
	if _, ok := o.byName[m.Name()]; ok {
		nflog.Panicf("module: %s already registered", m.Name())
	}
	o.modules = append(o.modules, m)
	o.byName[m.Name()] = m
}

// Get returns the registered module by name, or nil
func (o *Orchestrator) Get(name string) Module {
	return o.byName[name]
}

// Stage returns the current lifecycle stage
func (o *Orchestrator) Stage() Stage {
	return o.stage
}

// Startup drives all modules through Awake, Init, AfterInit, CheckConfig and
// ReadyExecute. A failed CheckConfig aborts startup.
func (o *Orchestrator) Startup() error {
	if o.stage != StageNone {
		return errors.Errorf("module: Startup called in stage %s", o.stage)
	}

	o.stage = StageAwake
	for _, m := range o.modules {
		m.Awake()
	}
	o.stage = StageInit
	for _, m := range o.modules {
		nflog.Infof("module: init %s", m.Name())
		m.Init()
	}
	o.stage = StageAfterInit
	for _, m := range o.modules {
		m.AfterInit()
	}
	o.stage = StageCheckConfig
	for _, m := range o.modules {
		if err := m.CheckConfig(); err != nil {
			return errors.Wrapf(err, "module %s: config check failed", m.Name())
		}
	}
	o.stage = StageReadyExecute
	for _, m := range o.modules {
		m.ReadyExecute()
	}

	o.stage = StageExecuting
	return nil
}

// Tick calls Execute on every module, containing per-module panics so one
// faulty module cannot starve the rest.
func (o *Orchestrator) Tick() {
	if o.stage != StageExecuting {
		nflog.Panicf("module: Tick called in stage %s", o.stage)
	}
	for _, m := range o.modules {
		nfutils.RunPanicless(m.Execute)
	}
}

// Shutdown drives all modules through BeforeShut, Shut and Finalize.
// Shutdown stages run even for modules whose earlier stage paniced.
func (o *Orchestrator) Shutdown() {
	if o.stage != StageExecuting {
		nflog.Warnf("module: Shutdown called in stage %s", o.stage)
	}

	o.stage = StageBeforeShut
	for _, m := range o.modules {
		nfutils.RunPanicless(m.BeforeShut)
	}
	o.stage = StageShut
	for _, m := range o.modules {
		nfutils.RunPanicless(m.Shut)
	}
	o.stage = StageFinalize
	for _, m := range o.modules {
		nfutils.RunPanicless(m.Finalize)
	}
}
