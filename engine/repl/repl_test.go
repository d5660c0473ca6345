package repl

import (
	"testing"

	"github.com/noahframe/noahframe/engine/codec"
	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/kernel"
	"github.com/noahframe/noahframe/engine/schema"
)

type captureSink struct {
	batches [][]byte
}

func (s *captureSink) Deliver(data []byte) error {
	s.batches = append(s.batches, data)
	return nil
}

func newTestKernel() *kernel.Kernel {
	reg := schema.NewRegistry()
	reg.Define("Avatar", "").
		Property("HP", data.TInt, 100, "save", "public").
		Property("Secret", data.TString, "", "private").
		Record("Bag", []string{"public"},
			schema.Column("ItemID", data.TInt))
	reg.Define("ServerChest", "").
		Property("Gold", data.TInt, 0, "save").
		Record("Loot", []string{"save"},
			schema.Column("ItemID", data.TInt))
	return kernel.New(reg)
}

func TestPublicChangesQueued(t *testing.T) {
	k := newTestKernel()
	m := New(k, 100)
	m.StartWatching()
	defer m.StopWatching()

	id, _ := k.Create("Avatar", nil)
	if m.Pending() != 1 {
		t.Fatalf("create should queue one update, got %d", m.Pending())
	}
	k.SetProperty(id, "HP", data.Int(55))
	k.SetProperty(id, "Secret", data.Str("hush"))
	if m.Pending() != 2 {
		t.Errorf("private write must not replicate, pending=%d", m.Pending())
	}
	k.AddRow(id, "Bag", data.Int(1001))
	k.Destroy(id)
	if m.Pending() != 4 {
		t.Errorf("expected create+prop+row+destroy, pending=%d", m.Pending())
	}
}

func TestClassWithoutPublicDataNotAnnounced(t *testing.T) {
	k := newTestKernel()
	m := New(k, 100)
	m.StartWatching()
	defer m.StopWatching()

	id, _ := k.Create("ServerChest", nil)
	k.SetProperty(id, "Gold", data.Int(500))
	k.Destroy(id)
	if m.Pending() != 0 {
		t.Errorf("entity without Public data must not replicate, pending=%d", m.Pending())
	}

	id2, _ := k.Create("Avatar", nil)
	k.Destroy(id2)
	if m.Pending() != 2 {
		t.Errorf("expected create+destroy for public class, pending=%d", m.Pending())
	}
}

func TestFlushDeliversPackedUpdates(t *testing.T) {
	k := newTestKernel()
	m := New(k, 100)
	m.StartWatching()
	defer m.StopWatching()
	sink := &captureSink{}
	m.SetSink(sink)

	id, _ := k.Create("Avatar", nil)
	k.SetProperty(id, "HP", data.Int(55))
	m.Flush()

	if len(sink.batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(sink.batches))
	}
	var updates []map[string]interface{}
	if err := codec.MSG_PACKER.UnpackMsg(sink.batches[0], &updates); err != nil {
		t.Fatal(err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0]["Kind"] != "create" || updates[1]["Kind"] != "prop" {
		t.Errorf("unexpected updates: %v", updates)
	}
	if m.Pending() != 0 {
		t.Errorf("flush should drain the queue")
	}
}

func TestQueueBounded(t *testing.T) {
	k := newTestKernel()
	m := New(k, 2)
	m.StartWatching()
	defer m.StopWatching()

	id, _ := k.Create("Avatar", nil)
	k.SetProperty(id, "HP", data.Int(1))
	k.SetProperty(id, "HP", data.Int(2)) // over the bound, dropped
	if m.Pending() != 2 {
		t.Errorf("queue should stay bounded at 2, got %d", m.Pending())
	}
}
