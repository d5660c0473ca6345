package data

import (
	"errors"
	"math"
	"testing"

	"github.com/noahframe/noahframe/engine/common"
)

func TestValueTags(t *testing.T) {
	if Int(1).Type() != TInt {
		t.Fatalf("wrong type tag")
	}
	if Float(1.5).Type() != TFloat {
		t.Fatalf("wrong type tag")
	}
	if Str("x").Type() != TString {
		t.Fatalf("wrong type tag")
	}
	if Bool(true).Type() != TBool {
		t.Fatalf("wrong type tag")
	}
	eid := common.GenEntityID()
	if Entity(eid).Type() != TEntity {
		t.Fatalf("wrong type tag")
	}
	if Entity(eid).GetEntity() != eid {
		t.Fatalf("wrong entity id")
	}
}

func TestValueAccessorsOnWrongTag(t *testing.T) {
	v := Str("hello")
	if v.GetInt() != 0 {
		t.Fatalf("wrong value")
	}
	if v.GetFloat() != 0 {
		t.Fatalf("wrong value")
	}
	if v.GetBool() != false {
		t.Fatalf("wrong value")
	}
	if Int(7).GetStr() != "" {
		t.Fatalf("wrong value")
	}
}

func TestZeroOf(t *testing.T) {
	if ZeroOf(TInt).GetInt() != 0 {
		t.Fatalf("wrong zero")
	}
	if ZeroOf(TString).GetStr() != "" {
		t.Fatalf("wrong zero")
	}
	if !ZeroOf(TBool).IsValid() {
		t.Fatalf("zero of bool should be valid")
	}
}

func TestFromInterface(t *testing.T) {
	v, err := FromInterface(TInt, int32(42))
	if err != nil || v.GetInt() != 42 {
		t.Fatalf("int normalize failed: %v %s", err, v)
	}
	v, err = FromInterface(TFloat, 32)
	if err != nil || math.Abs(v.GetFloat()-32.0) > 1e-9 {
		t.Fatalf("float normalize failed: %v %s", err, v)
	}
	v, err = FromInterface(TBool, int64(1))
	if err != nil || !v.GetBool() {
		t.Fatalf("bool normalize failed: %v %s", err, v)
	}
	_, err = FromInterface(TInt, "not a number")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags("save", "Public")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !f.Has(FlagSave) || !f.Has(FlagPublic) {
		t.Fatalf("missing flags: %s", f)
	}
	if f.Has(FlagPrivate) {
		t.Fatalf("unexpected flag: %s", f)
	}
	if _, err = ParseFlags("bogus"); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}
