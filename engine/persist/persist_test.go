package persist

import (
	"testing"

	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/kernel"
	"github.com/noahframe/noahframe/engine/schema"
	entitystoragefilesystem "github.com/noahframe/noahframe/engine/storage/backend/filesystem"
)

func newTestKernel() *kernel.Kernel {
	reg := schema.NewRegistry()
	reg.Define("Avatar", "").
		Property("HP", data.TInt, 100, "save", "public").
		Property("Title", data.TString, "novice", "public").
		Record("Bag", []string{"save"},
			schema.Column("ItemID", data.TInt),
			schema.Column("Count", data.TInt)).
		Record("Buffs", []string{"public"},
			schema.Column("BuffID", data.TInt))
	return kernel.New(reg)
}

func TestSnapshotOnlySaveFlagged(t *testing.T) {
	k := newTestKernel()
	id, _ := k.Create("Avatar", nil)
	k.SetProperty(id, "Title", data.Str("veteran"))
	k.AddRow(id, "Bag", data.Int(1001), data.Int(2))
	k.AddRow(id, "Buffs", data.Int(7))

	e, _ := k.Get(id)
	snap := TakeSnapshot(e)
	if _, ok := snap.Props["Title"]; ok {
		t.Errorf("Title is not save-flagged, should not be snapshotted")
	}
	if snap.Props["HP"] != int64(100) {
		t.Errorf("HP missing from snapshot: %v", snap.Props)
	}
	if _, ok := snap.Records["Buffs"]; ok {
		t.Errorf("Buffs is not save-flagged, should not be snapshotted")
	}
	if rows := snap.Records["Bag"]; len(rows) != 1 || rows[0][0] != int64(1001) {
		t.Errorf("Bag rows wrong: %v", snap.Records)
	}
}

func TestSnapshotRoundTripThroughStorage(t *testing.T) {
	k := newTestKernel()
	id, _ := k.Create("Avatar", map[string]data.Value{
		"HP": data.Int(250),
	})
	k.AddRow(id, "Bag", data.Int(1001), data.Int(2))
	k.AddRow(id, "Bag", data.Int(1002), data.Int(5))
	k.RemoveRow(id, "Bag", 0)

	e, _ := k.Get(id)
	snap := TakeSnapshot(e)

	es, err := entitystoragefilesystem.OpenDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := es.Write("Avatar", id, snap.Marshal()); err != nil {
		t.Fatal(err)
	}
	raw, err := es.Read("Avatar", id)
	if err != nil {
		t.Fatal(err)
	}

	sc, _ := k.Provider().Resolve("Avatar")
	props, records, err := UnmarshalSnapshot(sc, raw)
	if err != nil {
		t.Fatal(err)
	}
	if props["HP"].GetInt() != 250 {
		t.Errorf("HP lost in round trip: %v", props)
	}
	rows := records["Bag"]
	if len(rows) != 1 {
		t.Fatalf("tombstoned row should not be stored, got %d rows", len(rows))
	}
	if rows[0][0].GetInt() != 1002 || rows[0][1].GetInt() != 5 {
		t.Errorf("Bag row lost in round trip: %v", rows)
	}

	// restore into a fresh kernel under the same id
	k2 := newTestKernel()
	restoredID, err := k2.CreateWithID("Avatar", id, props)
	if err != nil {
		t.Fatal(err)
	}
	for recName, recRows := range records {
		for _, cells := range recRows {
			if _, err := k2.AddRow(restoredID, recName, cells...); err != nil {
				t.Fatal(err)
			}
		}
	}
	hp, _, _ := k2.GetProperty(restoredID, "HP")
	if hp.GetInt() != 250 {
		t.Errorf("restored HP wrong: %v", hp)
	}
	restoredRows, _ := k2.Rows(restoredID, "Bag")
	if len(restoredRows) != 1 || restoredRows[0].Cells[0].GetInt() != 1002 {
		t.Errorf("restored Bag wrong: %v", restoredRows)
	}
}

func TestDirtyTracking(t *testing.T) {
	k := newTestKernel()
	m := New(k)
	m.StartWatching()
	defer m.StopWatching()

	id, _ := k.Create("Avatar", nil)
	if m.DirtyCount() != 1 {
		t.Fatalf("created entity should be dirty, count=%d", m.DirtyCount())
	}
	m.dirty.Del(id)

	k.SetProperty(id, "Title", data.Str("veteran")) // public only
	if m.DirtyCount() != 0 {
		t.Errorf("write to non-save property should not mark dirty")
	}
	k.SetProperty(id, "HP", data.Int(1))
	if m.DirtyCount() != 1 {
		t.Errorf("write to save property should mark dirty")
	}

	k.AddRow(id, "Buffs", data.Int(7)) // public record
	m.dirty.Del(id)
	k.AddRow(id, "Bag", data.Int(1001), data.Int(1)) // save record
	if m.DirtyCount() != 1 {
		t.Errorf("save-flagged record write should mark dirty")
	}

	k.Destroy(id)
	if m.DirtyCount() != 0 {
		t.Errorf("destroyed entity should leave the dirty set")
	}
}
