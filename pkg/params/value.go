// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// TypeString is a free-form optional string.
	TypeString Type = "string"
	// TypeBool is an optional boolean.
	TypeBool Type = "bool"
	// TypeInt is an optional integer.
	TypeInt Type = "int"
	// TypeDir is an output directory, carried as a remote directory URI.
	TypeDir Type = "dir"
)

// ErrInvalidType is returned when a Type value is not one of the defined types.
var ErrInvalidType = errors.New("invalid parameter type")

type (
	// Type is the declared type of a parameter.
	Type string

	// InvalidTypeError is returned when a Type value is not recognized.
	// It wraps ErrInvalidType for errors.Is() compatibility.
	InvalidTypeError struct {
		Value Type
	}

	// Value is a typed optional parameter value. The zero Value is absent.
	Value struct {
		typ Type
		str string
		b   bool
		i   int64
	}
)

// Error implements the error interface for InvalidTypeError.
func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid parameter type %q (valid: string, bool, int, dir)", e.Value)
}

// Unwrap returns ErrInvalidType for errors.Is() compatibility.
func (e *InvalidTypeError) Unwrap() error { return ErrInvalidType }

// IsValid returns whether the Type is one of the defined parameter types,
// and a list of validation errors if it is not.
func (t Type) IsValid() (bool, []error) {
	switch t {
	case TypeString, TypeBool, TypeInt, TypeDir:
		return true, nil
	default:
		return false, []error{&InvalidTypeError{Value: t}}
	}
}

// String returns the type name.
func (t Type) String() string { return string(t) }

// String returns a present string value.
func String(s string) Value { return Value{typ: TypeString, str: s} }

// Bool returns a present boolean value.
func Bool(b bool) Value { return Value{typ: TypeBool, b: b} }

// Int returns a present integer value.
func Int(i int64) Value { return Value{typ: TypeInt, i: i} }

// Dir returns a present output directory value pointing at uri.
func Dir(uri string) Value { return Value{typ: TypeDir, str: uri} }

// Absent returns the absent value. It is equal to the zero Value.
func Absent() Value { return Value{} }

// IsSet reports whether the value is present.
func (v Value) IsSet() bool { return v.typ != "" }

// Type returns the value's type, or "" when absent.
func (v Value) Type() Type { return v.typ }

// AsString returns the string payload of a string or dir value.
func (v Value) AsString() string { return v.str }

// AsBool returns the payload of a bool value.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the payload of an int value.
func (v Value) AsInt() int64 { return v.i }

// isEmpty reports whether a present string or dir value carries no text.
func (v Value) isEmpty() bool {
	return (v.typ == TypeString || v.typ == TypeDir) && v.str == ""
}

// String renders the value for display. Absent values render as "None".
func (v Value) String() string {
	switch v.typ {
	case TypeString, TypeDir:
		return v.str
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	default:
		return "None"
	}
}
