package record

import (
	"errors"
	"testing"

	"github.com/noahframe/noahframe/engine/data"
	"github.com/noahframe/noahframe/engine/schema"
)

func itemsStore(t *testing.T) *Store {
	reg := schema.NewRegistry()
	reg.Define("Goblin", "").
		Record("Items", []string{"save"},
			schema.Column("ItemID", data.TInt),
			schema.Column("Count", data.TInt)).
		Record("Buffs", []string{"public"},
			schema.Column("BuffID", data.TInt),
			schema.Column("Expire", data.TFloat))
	sc, err := reg.Resolve("Goblin")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	return NewStore(sc)
}

func TestAddRow(t *testing.T) {
	s := itemsStore(t)
	items, err := s.Get("Items")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	idx, err := items.AddRow(data.Int(1001), data.Int(3))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if idx != 0 {
		t.Fatalf("first row should get index 0, got %d", idx)
	}
	idx, _ = items.AddRow(data.Int(1002), data.Int(1))
	if idx != 1 {
		t.Fatalf("second row should get index 1, got %d", idx)
	}
	if items.RowCount() != 2 {
		t.Fatalf("wrong row count: %d", items.RowCount())
	}
}

func TestAddRowTypeChecked(t *testing.T) {
	s := itemsStore(t)
	items, _ := s.Get("Items")

	if _, err := items.AddRow(data.Int(1001)); !errors.Is(err, data.ErrTypeMismatch) {
		t.Fatalf("short row should be rejected, got %v", err)
	}
	if _, err := items.AddRow(data.Int(1001), data.Str("three")); !errors.Is(err, data.ErrTypeMismatch) {
		t.Fatalf("wrong column type should be rejected, got %v", err)
	}
	if items.RowCount() != 0 {
		t.Fatalf("failed add must leave record unchanged")
	}
}

func TestTombstoneKeepsIndicesMonotonic(t *testing.T) {
	s := itemsStore(t)
	items, _ := s.Get("Items")

	i0, _ := items.AddRow(data.Int(1), data.Int(1))
	i1, _ := items.AddRow(data.Int(2), data.Int(1))
	if i0 != 0 || i1 != 1 {
		t.Fatalf("wrong indices: %d %d", i0, i1)
	}

	if err := items.RemoveRow(0); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	i2, _ := items.AddRow(data.Int(3), data.Int(1))
	if i2 == 0 {
		t.Fatalf("index 0 must not be reused")
	}
	if i2 != 2 {
		t.Fatalf("indices must stay monotonic, got %d", i2)
	}

	// removed row is gone for reads
	if _, err := items.GetCell(0, "ItemID"); !errors.Is(err, ErrRowRemoved) {
		t.Fatalf("expected ErrRowRemoved, got %v", err)
	}
	if _, err := items.SetCell(0, "ItemID", data.Int(9)); !errors.Is(err, ErrRowRemoved) {
		t.Fatalf("expected ErrRowRemoved, got %v", err)
	}
	// removing twice reports not found
	if err := items.RemoveRow(0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetCell(t *testing.T) {
	s := itemsStore(t)
	items, _ := s.Get("Items")
	items.AddRow(data.Int(1001), data.Int(3))

	old, err := items.SetCell(0, "Count", data.Int(5))
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if old.GetInt() != 3 {
		t.Fatalf("wrong old value: %s", old)
	}
	v, _ := items.GetCell(0, "Count")
	if v.GetInt() != 5 {
		t.Fatalf("wrong new value: %s", v)
	}

	if _, err := items.SetCell(0, "Count", data.Bool(true)); !errors.Is(err, data.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	if _, err := items.SetCell(0, "NoSuchColumn", data.Int(1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := items.SetCell(7, "Count", data.Int(1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRowsSnapshot(t *testing.T) {
	s := itemsStore(t)
	items, _ := s.Get("Items")
	items.AddRow(data.Int(1), data.Int(1))
	items.AddRow(data.Int(2), data.Int(2))
	items.RemoveRow(0)

	rows := items.Rows()
	if len(rows) != 1 {
		t.Fatalf("tombstoned rows should be skipped: %v", rows)
	}
	if rows[0].Index != 1 || rows[0].Cells[0].GetInt() != 2 {
		t.Fatalf("wrong row view: %v", rows[0])
	}

	// snapshot must not reflect later mutation
	items.SetCell(1, "Count", data.Int(99))
	if rows[0].Cells[1].GetInt() != 2 {
		t.Fatalf("snapshot should reflect call-time state")
	}
}

func TestDirtyRows(t *testing.T) {
	s := itemsStore(t)
	items, _ := s.Get("Items")
	items.AddRow(data.Int(1), data.Int(1))
	items.AddRow(data.Int(2), data.Int(2))
	items.MarkClean()

	items.SetCell(1, "Count", data.Int(3))
	dirty := items.DirtyRows()
	if len(dirty) != 1 || dirty[0] != 1 {
		t.Fatalf("wrong dirty rows: %v", dirty)
	}
}

func TestStoreUnknownRecord(t *testing.T) {
	s := itemsStore(t)
	if _, err := s.Get("NoSuchRecord"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	names := s.Names()
	if len(names) != 2 || names[0] != "Items" || names[1] != "Buffs" {
		t.Fatalf("wrong record names: %v", names)
	}
}
