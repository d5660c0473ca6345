package module

import (
	"testing"

	"github.com/pkg/errors"
)

type recordingModule struct {
	Base
	name  string
	trace *[]string
}

func (m *recordingModule) Name() string { return m.name }
func (m *recordingModule) Awake()       { *m.trace = append(*m.trace, m.name+".Awake") }
func (m *recordingModule) Init()        { *m.trace = append(*m.trace, m.name+".Init") }
func (m *recordingModule) Execute()     { *m.trace = append(*m.trace, m.name+".Execute") }
func (m *recordingModule) Shut()        { *m.trace = append(*m.trace, m.name+".Shut") }

func TestLifecycleOrdering(t *testing.T) {
	var trace []string
	o := NewOrchestrator()
	o.Register(&recordingModule{name: "a", trace: &trace})
	o.Register(&recordingModule{name: "b", trace: &trace})

	if err := o.Startup(); err != nil {
		t.Fatalf("startup failed: %v", err)
	}
	if o.Stage() != StageExecuting {
		t.Fatalf("wrong stage after startup: %s", o.Stage())
	}
	o.Tick()
	o.Shutdown()

	want := []string{
		"a.Awake", "b.Awake",
		"a.Init", "b.Init",
		"a.Execute", "b.Execute",
		"a.Shut", "b.Shut",
	}
	if len(trace) != len(want) {
		t.Fatalf("wrong trace: %v", trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("wrong trace: %v", trace)
		}
	}
}

type badConfigModule struct {
	Base
}

func (m *badConfigModule) Name() string       { return "bad" }
func (m *badConfigModule) CheckConfig() error { return errors.New("missing setting") }

func TestCheckConfigAbortsStartup(t *testing.T) {
	o := NewOrchestrator()
	o.Register(&badConfigModule{})
	if err := o.Startup(); err == nil {
		t.Fatalf("startup should fail on bad config")
	}
}

type panickyModule struct {
	Base
	executed int
}

func (m *panickyModule) Name() string { return "panicky" }
func (m *panickyModule) Execute()     { panic("broken tick") }

type countingModule struct {
	Base
	executed int
}

func (m *countingModule) Name() string { return "counting" }
func (m *countingModule) Execute()     { m.executed++ }

func TestTickContainsModulePanics(t *testing.T) {
	o := NewOrchestrator()
	counting := &countingModule{}
	o.Register(&panickyModule{})
	o.Register(counting)

	if err := o.Startup(); err != nil {
		t.Fatalf("startup failed: %v", err)
	}
	o.Tick()
	o.Tick()
	if counting.executed != 2 {
		t.Fatalf("well-behaved module should keep ticking, got %d", counting.executed)
	}
}
