package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Format identifies the wire format of a property value. The numeric values
// match mpv_format so they can be passed straight to libmpv.
type Format int

const (
	FormatNone      Format = 0
	FormatString    Format = 1
	FormatOSDString Format = 2
	FormatFlag      Format = 3
	FormatInt64     Format = 4
	FormatDouble    Format = 5
	FormatNode      Format = 6
)

func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatString:
		return "string"
	case FormatOSDString:
		return "osd-string"
	case FormatFlag:
		return "flag"
	case FormatInt64:
		return "int64"
	case FormatDouble:
		return "double"
	case FormatNode:
		return "node"
	default:
		return "format(" + strconv.Itoa(int(f)) + ")"
	}
}

// Value is a tagged engine value. The zero Value has FormatNone.
type Value struct {
	format Format
	str    string
	i64    int64
	f64    float64
	flag   bool
}

func String(s string) Value  { return Value{format: FormatString, str: s} }
func Int64(i int64) Value    { return Value{format: FormatInt64, i64: i} }
func Double(f float64) Value { return Value{format: FormatDouble, f64: f} }
func Flag(b bool) Value      { return Value{format: FormatFlag, flag: b} }

func (v Value) Format() Format { return v.format }
func (v Value) IsZero() bool   { return v.format == FormatNone }
func (v Value) Str() string    { return v.str }
func (v Value) Int() int64     { return v.i64 }
func (v Value) Float() float64 { return v.f64 }
func (v Value) Bool() bool     { return v.flag }

// Any returns the Go value carried by v, or nil for FormatNone.
func (v Value) Any() any {
	switch v.format {
	case FormatString, FormatOSDString:
		return v.str
	case FormatInt64:
		return v.i64
	case FormatDouble:
		return v.f64
	case FormatFlag:
		return v.flag
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.format {
	case FormatString, FormatOSDString:
		return v.str
	case FormatInt64:
		return strconv.FormatInt(v.i64, 10)
	case FormatDouble:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case FormatFlag:
		if v.flag {
			return "yes"
		}
		return "no"
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.Any()) }

// UnsupportedTypeError is returned by ValueOf for Go values that have no
// engine representation.
type UnsupportedTypeError struct{ Type string }

func (e UnsupportedTypeError) Error() string { return "unsupported value type: " + e.Type }

// ValueOf converts a decoded config or JSON value into a Value. Whole
// json.Number values become Int64, fractional ones Double.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Flag(t), nil
	case int:
		return Int64(int64(t)), nil
	case int32:
		return Int64(int64(t)), nil
	case int64:
		return Int64(t), nil
	case uint32:
		return Int64(int64(t)), nil
	case float32:
		return Double(float64(t)), nil
	case float64:
		return Double(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int64(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, UnsupportedTypeError{Type: "json.Number(" + t.String() + ")"}
		}
		return Double(f), nil
	case nil:
		return Value{}, UnsupportedTypeError{Type: "null"}
	default:
		return Value{}, UnsupportedTypeError{Type: fmt.Sprintf("%T", x)}
	}
}
