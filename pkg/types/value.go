// Package types defines the runtime value model shared by every stage of
// the interpreter: strings, numbers, and first-class functions, plus the
// error kinds the lexer, parser, and evaluator report.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NativeFunc is the signature of a callable supplied by the host or the
// standard library. A native receives its arguments fully evaluated, in
// order, and returns a result value or an error. Whatever error it returns
// reaches the caller unchanged.
type NativeFunc func(args []Value) (Value, error)

// ValueType represents the type of a script value.
type ValueType int

const (
	TypeString   ValueType = iota // string
	TypeNumber                    // float64
	TypeFunction                  // NativeFunc
)

// String returns the type name used in error messages.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Value represents a script runtime value. It uses a tagged union approach;
// functions are ordinary values, so a bare reference to a function's name
// yields the Value without invoking it.
type Value struct {
	typ     ValueType
	strVal  string
	numVal  float64
	funcVal NativeFunc
	name    string
}

// NewString creates a string value.
func NewString(v string) Value {
	return Value{typ: TypeString, strVal: v}
}

// NewNumber creates a number value (64-bit float).
func NewNumber(v float64) Value {
	return Value{typ: TypeNumber, numVal: v}
}

// NewFunction creates a function value wrapping a native callable. The name
// is carried for display and error messages only.
func NewFunction(name string, fn NativeFunc) Value {
	return Value{typ: TypeFunction, funcVal: fn, name: name}
}

// Type returns the value's type.
func (v Value) Type() ValueType {
	return v.typ
}

// IsFunction reports whether the value can appear at the head of a call.
func (v Value) IsFunction() bool {
	return v.typ == TypeFunction
}

// AsString returns the string value. Panics if not a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("AsString called on %s value", v.typ))
	}
	return v.strVal
}

// AsNumber returns the numeric value. Panics if not a number.
func (v Value) AsNumber() float64 {
	if v.typ != TypeNumber {
		panic(fmt.Sprintf("AsNumber called on %s value", v.typ))
	}
	return v.numVal
}

// AsFunction returns the native callable. Panics if not a function.
func (v Value) AsFunction() NativeFunc {
	if v.typ != TypeFunction {
		panic(fmt.Sprintf("AsFunction called on %s value", v.typ))
	}
	return v.funcVal
}

// FuncName returns the display name of a function value, or "" for other
// types.
func (v Value) FuncName() string {
	return v.name
}

// Equal tests equality between two values. Function values compare by name,
// since native callables themselves are not comparable.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeString:
		return v.strVal == other.strVal
	case TypeNumber:
		return v.numVal == other.numVal
	case TypeFunction:
		return v.name == other.name
	}
	return false
}

// String returns the display form of the value: the text of a string, the
// shortest decimal rendering of a number (integral numbers print without a
// decimal point), or <function NAME> for functions.
func (v Value) String() string {
	switch v.typ {
	case TypeString:
		return v.strVal
	case TypeNumber:
		return strconv.FormatFloat(v.numVal, 'f', -1, 64)
	case TypeFunction:
		return fmt.Sprintf("<function %s>", v.name)
	}
	return "<unknown>"
}

// MarshalJSON converts a Value to JSON. Strings and numbers map to their
// JSON counterparts; functions marshal as their display form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeString:
		return json.Marshal(v.strVal)
	case TypeNumber:
		return json.Marshal(v.numVal)
	case TypeFunction:
		return json.Marshal(v.String())
	}
	return nil, fmt.Errorf("cannot marshal unknown type %d", v.typ)
}
