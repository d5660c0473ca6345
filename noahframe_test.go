package noahframe

import (
	"testing"

	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/event"
)

func TestFrameWiring(t *testing.T) {
	f := New()
	f.Registry().Define("Player", "").
		Property("HP", data.TInt, 100, "save", "public")

	id, err := f.Kernel().Create("Player", nil)
	if err != nil {
		t.Fatalf("create through frame kernel: %v", err)
	}

	// repl watches only after Init; watch manually to verify the stream
	f.Repl().StartWatching()
	defer f.Repl().StopWatching()
	f.Kernel().SetProperty(id, "HP", data.Int(50))
	if f.Repl().Pending() == 0 {
		t.Errorf("public write should reach the replication manager")
	}

	seen := false
	f.Kernel().Subscribe(event.PropertySubject(id, "HP"), func(occ *event.Occurrence) {
		seen = true
	})
	f.Kernel().SetProperty(id, "HP", data.Int(25))
	if !seen {
		t.Errorf("subscription through frame kernel should fire")
	}
}
