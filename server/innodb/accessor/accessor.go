package accessor

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/codec"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
)

// ValueAccessor reads one field of whatever row a RowBuffer currently
// holds. Typed getters fail with ErrValueIsNull on a null field; GetValue
// returns a null Value instead.
type ValueAccessor interface {
	IsNull() (bool, error)
	GetValue() (basic.Value, error)
	GetInt64() (int64, error)
	GetFloat64() (float64, error)
	GetString() (string, error)
	GetBytes() ([]byte, error)
	GetDecimal() (decimal.Decimal, error)
}

var _ ValueAccessor = (*FieldAccessor)(nil)

// FieldAccessor is bound to one (field, row buffer) pair. Moving the buffer
// to another row moves the accessor with it.
type FieldAccessor struct {
	table *metadata.TableSchema
	field *metadata.FieldSchema
	rb    *record.RowBuffer
}

// Bind returns an accessor for fieldIndex of table over rb.
func Bind(table *metadata.TableSchema, fieldIndex int, rb *record.RowBuffer) (*FieldAccessor, error) {
	if err := table.CheckFieldIndex(fieldIndex); err != nil {
		return nil, err
	}
	return &FieldAccessor{table: table, field: table.Field(fieldIndex), rb: rb}, nil
}

// BindByName binds the field called name.
func BindByName(table *metadata.TableSchema, name string, rb *record.RowBuffer) (*FieldAccessor, error) {
	f, ok := table.FieldByName(name)
	if !ok {
		return nil, errors.Wrapf(basic.ErrFieldOutOfRange, "table %s has no field %s", table.Name(), name)
	}
	return &FieldAccessor{table: table, field: f, rb: rb}, nil
}

func (a *FieldAccessor) Field() *metadata.FieldSchema {
	return a.field
}

// Location of the field in the current row, record.NoLocation when null.
func (a *FieldAccessor) Location() (record.Location, error) {
	return a.table.LocateField(a.rb, a.field.Index())
}

func (a *FieldAccessor) IsNull() (bool, error) {
	return a.rb.IsNull(a.field.Index())
}

func (a *FieldAccessor) GetValue() (basic.Value, error) {
	loc, err := a.Location()
	if err != nil {
		return basic.Null(), err
	}
	if loc.IsNull() {
		return basic.Null(), nil
	}
	return codec.Get(a.field, a.rb.FieldBytes(loc))
}

func (a *FieldAccessor) nonNull() (basic.Value, error) {
	v, err := a.GetValue()
	if err != nil {
		return v, err
	}
	if v.IsNull() {
		return v, errors.Wrapf(basic.ErrValueIsNull, "field %s of table %s", a.field.Name(), a.table.Name())
	}
	return v, nil
}

func (a *FieldAccessor) GetInt64() (int64, error) {
	v, err := a.nonNull()
	if err != nil {
		return 0, err
	}
	return v.Int64()
}

func (a *FieldAccessor) GetFloat64() (float64, error) {
	v, err := a.nonNull()
	if err != nil {
		return 0, err
	}
	return v.Float64()
}

// GetString returns VARCHAR text, or VARBINARY bytes as a string.
func (a *FieldAccessor) GetString() (string, error) {
	v, err := a.nonNull()
	if err != nil {
		return "", err
	}
	if v.Kind() == basic.KindBytes {
		b, _ := v.Bytes()
		return string(b), nil
	}
	return v.Str()
}

func (a *FieldAccessor) GetBytes() ([]byte, error) {
	v, err := a.nonNull()
	if err != nil {
		return nil, err
	}
	return v.Bytes()
}

func (a *FieldAccessor) GetDecimal() (decimal.Decimal, error) {
	v, err := a.nonNull()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return v.Decimal()
}

// ReadRow decodes every field of the row currently in rb.
func ReadRow(table *metadata.TableSchema, rb *record.RowBuffer) ([]basic.Value, error) {
	values := make([]basic.Value, table.FieldCount())
	for i := range values {
		a := FieldAccessor{table: table, field: table.Field(i), rb: rb}
		v, err := a.GetValue()
		if err != nil {
			return nil, errors.WithMessagef(err, "read field %d of table %s", i, table.Name())
		}
		values[i] = v
	}
	return values, nil
}
