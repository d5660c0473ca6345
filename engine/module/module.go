package module

// Module is one pluggable component hosted by the Orchestrator.
//
// The lifecycle methods are called in stage order; Base provides no-op
// implementations so modules override only what they need.
type Module interface {
	Name() string

	Awake()
	Init()
	AfterInit()
	CheckConfig() error
	ReadyExecute()
	Execute()
	BeforeShut()
	Shut()
	Finalize()
}

// Base is the default no-op implementation of the Module lifecycle.
// Embed it and override the stages the module cares about.
type Base struct{}

// Awake is called first, before any module is initialized
func (Base) Awake() {}

// Init is called after all modules are awake
func (Base) Init() {}

// AfterInit is called after all modules are initialized
func (Base) AfterInit() {}

// CheckConfig validates the module configuration
func (Base) CheckConfig() error { return nil }

// ReadyExecute is called once before the first Execute
func (Base) ReadyExecute() {}

// Execute is called every tick
func (Base) Execute() {}

// BeforeShut is called when shutdown begins
func (Base) BeforeShut() {}

// Shut releases the module's resources
func (Base) Shut() {}

// Finalize is called last, after all modules are shut
func (Base) Finalize() {}
