package data

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xiaonanln/typeconv"

	"github.com/noahframe/noahframe/engine/common"
)

// Type is the declared type of a property or record column.
//
// The type universe is closed: every value an entity holds is one of these.
type Type int

const (
	// TUnknown is the zero Type, never valid in a schema
	TUnknown Type = iota
	// TInt is a 64-bit signed integer
	TInt
	// TFloat is a 64-bit float
	TFloat
	// TString is a string
	TString
	// TBool is a boolean
	TBool
	// TEntity is a reference to another entity by EntityID
	TEntity
)

func (t Type) String() string {
	switch t {
	case TInt:
		return "int"
	case TFloat:
		return "float"
	case TString:
		return "string"
	case TBool:
		return "bool"
	case TEntity:
		return "entity"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ErrTypeMismatch is returned when a value disagrees with the declared type.
// The write is rejected and the store is left unchanged, never coerced.
var ErrTypeMismatch = errors.New("type mismatch")

// Value is a tagged union over the kernel type universe.
//
// The zero Value has type TUnknown and is not a valid property value; use the
// typed constructors or ZeroOf.
type Value struct {
	t Type
	i int64
	f float64
	s string // also holds TEntity ids
	b bool
}

// Int makes a TInt value
func Int(v int64) Value {
	return Value{t: TInt, i: v}
}

// Float makes a TFloat value
func Float(v float64) Value {
	return Value{t: TFloat, f: v}
}

// Str makes a TString value
func Str(v string) Value {
	return Value{t: TString, s: v}
}

// Bool makes a TBool value
func Bool(v bool) Value {
	return Value{t: TBool, b: v}
}

// Entity makes a TEntity value referencing the given entity id
func Entity(id common.EntityID) Value {
	return Value{t: TEntity, s: string(id)}
}

// ZeroOf returns the zero value of the given type
func ZeroOf(t Type) Value {
	return Value{t: t}
}

// Type returns the tag of the value
func (v Value) Type() Type {
	return v.t
}

// IsValid returns if the value carries a known type
func (v Value) IsValid() bool {
	return v.t != TUnknown
}

// GetInt returns the value as int64; zero if the tag is not TInt
func (v Value) GetInt() int64 {
	if v.t != TInt {
		return 0
	}
	return v.i
}

// GetFloat returns the value as float64; zero if the tag is not TFloat
func (v Value) GetFloat() float64 {
	if v.t != TFloat {
		return 0
	}
	return v.f
}

// GetStr returns the value as string; empty if the tag is not TString
func (v Value) GetStr() string {
	if v.t != TString {
		return ""
	}
	return v.s
}

// GetBool returns the value as bool; false if the tag is not TBool
func (v Value) GetBool() bool {
	if v.t != TBool {
		return false
	}
	return v.b
}

// GetEntity returns the value as an EntityID; nil id if the tag is not TEntity
func (v Value) GetEntity() common.EntityID {
	if v.t != TEntity {
		return ""
	}
	return common.EntityID(v.s)
}

// Equals compares two values by tag and payload
func (v Value) Equals(o Value) bool {
	return v == o
}

// Interface converts the value to a dynamically-typed representation suitable
// for codecs and storage backends
func (v Value) Interface() interface{} {
	switch v.t {
	case TInt:
		return v.i
	case TFloat:
		return v.f
	case TString:
		return v.s
	case TBool:
		return v.b
	case TEntity:
		return v.s
	}
	return nil
}

func (v Value) String() string {
	switch v.t {
	case TInt:
		return fmt.Sprintf("int(%d)", v.i)
	case TFloat:
		return fmt.Sprintf("float(%v)", v.f)
	case TString:
		return fmt.Sprintf("string(%q)", v.s)
	case TBool:
		return fmt.Sprintf("bool(%v)", v.b)
	case TEntity:
		return fmt.Sprintf("entity(%s)", v.s)
	}
	return "unknown()"
}

// FromInterface normalizes a dynamically-typed value into a Value of the
// declared type. Storage backends and codecs hand back interface{} data whose
// concrete types depend on the encoding (json floats, msgpack ints of varying
// width); this is the one place such data is reconciled with the schema.
//
// FromInterface is a load/restore facility. Kernel setters take Value directly
// and never coerce.
func FromInterface(t Type, raw interface{}) (Value, error) {
	switch t {
	case TInt:
		switch raw.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float64, float32:
			return Int(typeconv.Int(raw)), nil
		}
	case TFloat:
		switch rv := raw.(type) {
		case float64:
			return Float(rv), nil
		case float32:
			return Float(float64(rv)), nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return Float(float64(typeconv.Int(raw))), nil
		}
	case TString:
		if rv, ok := raw.(string); ok {
			return Str(rv), nil
		}
	case TBool:
		switch rv := raw.(type) {
		case bool:
			return Bool(rv), nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return Bool(typeconv.Int(raw) != 0), nil
		}
	case TEntity:
		if rv, ok := raw.(string); ok {
			return Entity(common.EntityID(rv)), nil
		}
	}
	return Value{}, errors.Wrapf(ErrTypeMismatch, "can not represent %T(%v) as %s", raw, raw, t)
}
