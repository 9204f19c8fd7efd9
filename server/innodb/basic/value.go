package basic

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ValueKind is the runtime representation carried by a Value. Column types
// map onto kinds many-to-one: every integer width is KindInt64.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt64
	KindFloat64
	KindString
	KindBytes
	KindDecimal
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindDecimal:
		return "decimal"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is the single typed value used to build and read rows. The zero
// Value is null.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	b    []byte
	d    decimal.Decimal
}

func Null() Value {
	return Value{}
}

func NewInt64(v int64) Value {
	return Value{kind: KindInt64, i: v}
}

func NewFloat64(v float64) Value {
	return Value{kind: KindFloat64, f: v}
}

func NewString(v string) Value {
	return Value{kind: KindString, s: v}
}

// NewBytes keeps a reference to v.
func NewBytes(v []byte) Value {
	if v == nil {
		v = []byte{}
	}
	return Value{kind: KindBytes, b: v}
}

func NewDecimal(v decimal.Decimal) Value {
	return Value{kind: KindDecimal, d: v}
}

// NewDecimalFromString parses a decimal literal such as "-123.45".
func NewDecimalFromString(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, errors.Wrapf(ErrTypeMismatch, "%q is not a decimal", s)
	}
	return NewDecimal(d), nil
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) Int64() (int64, error) {
	if v.kind != KindInt64 {
		return 0, v.mismatch(KindInt64)
	}
	return v.i, nil
}

func (v Value) Float64() (float64, error) {
	switch v.kind {
	case KindFloat64:
		return v.f, nil
	case KindInt64:
		return float64(v.i), nil
	}
	return 0, v.mismatch(KindFloat64)
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindFloat64:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("0x%X", v.b)
	case KindDecimal:
		return v.d.String()
	}
	return "?"
}

// Str returns the string payload of a KindString value.
func (v Value) Str() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.s, nil
}

func (v Value) Bytes() ([]byte, error) {
	switch v.kind {
	case KindBytes:
		return v.b, nil
	case KindString:
		return []byte(v.s), nil
	}
	return nil, v.mismatch(KindBytes)
}

func (v Value) Decimal() (decimal.Decimal, error) {
	switch v.kind {
	case KindDecimal:
		return v.d, nil
	case KindInt64:
		return decimal.New(v.i, 0), nil
	}
	return decimal.Decimal{}, v.mismatch(KindDecimal)
}

// Equal compares kind and payload; decimals compare numerically so 1.50 and
// 1.5 are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt64:
		return v.i == o.i
	case KindFloat64:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindBytes:
		return string(v.b) == string(o.b)
	case KindDecimal:
		return v.d.Equal(o.d)
	}
	return false
}

func (v Value) mismatch(want ValueKind) error {
	return errors.Wrapf(ErrTypeMismatch, "have %s, want %s", v.kind, want)
}

// FromNative converts a plain Go value. nil is null.
func FromNative(x interface{}) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case int:
		return NewInt64(int64(v)), nil
	case int8:
		return NewInt64(int64(v)), nil
	case int16:
		return NewInt64(int64(v)), nil
	case int32:
		return NewInt64(int64(v)), nil
	case int64:
		return NewInt64(v), nil
	case uint8:
		return NewInt64(int64(v)), nil
	case uint16:
		return NewInt64(int64(v)), nil
	case uint32:
		return NewInt64(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Null(), errors.Wrapf(ErrEncodingOverflow, "%d exceeds int64", v)
		}
		return NewInt64(int64(v)), nil
	case float32:
		return NewFloat64(float64(v)), nil
	case float64:
		return NewFloat64(v), nil
	case string:
		return NewString(v), nil
	case []byte:
		return NewBytes(v), nil
	case decimal.Decimal:
		return NewDecimal(v), nil
	}
	return Null(), errors.Wrapf(ErrTypeMismatch, "unsupported Go type %T", x)
}
