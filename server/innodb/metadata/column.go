package metadata

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/bcd"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

// DataType represents the SQL data type of a column
type DataType string

const (
	TypeTinyInt   DataType = "TINYINT"
	TypeSmallInt  DataType = "SMALLINT"
	TypeMediumInt DataType = "MEDIUMINT"
	TypeInt       DataType = "INT"
	TypeBigInt    DataType = "BIGINT"
	TypeFloat     DataType = "FLOAT"
	TypeDouble    DataType = "DOUBLE"
	TypeDecimal   DataType = "DECIMAL"
	TypeVarchar   DataType = "VARCHAR"
	TypeVarBinary DataType = "VARBINARY"
)

// ParseDataType accepts any letter case.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(strings.ToUpper(strings.TrimSpace(s)))
	switch dt {
	case TypeTinyInt, TypeSmallInt, TypeMediumInt, TypeInt, TypeBigInt,
		TypeFloat, TypeDouble, TypeDecimal, TypeVarchar, TypeVarBinary:
		return dt, nil
	}
	return "", errors.Wrapf(basic.ErrInvalidSchema, "unsupported data type %q", s)
}

// Charset of a VARCHAR column. Stored bytes are always the charset's
// encoding of the value.
type Charset string

const (
	CharsetUTF8MB4 Charset = "utf8mb4"
	CharsetUTF8    Charset = "utf8"
	CharsetGBK     Charset = "gbk"
	CharsetBinary  Charset = "binary"
)

// MaxBytes is the widest encoding of one character.
func (c Charset) MaxBytes() int {
	switch c {
	case CharsetUTF8MB4:
		return 4
	case CharsetUTF8:
		return 3
	case CharsetGBK:
		return 2
	}
	return 1
}

// Column is a column definition as supplied by the schema source.
type Column struct {
	Name      string
	DataType  DataType
	Length    int // VARCHAR characters or VARBINARY bytes
	Precision int
	Scale     int
	Charset   Charset
}

// ColumnOption configures a Column
type ColumnOption func(*Column)

func WithLength(length int) ColumnOption {
	return func(c *Column) {
		c.Length = length
	}
}

func WithDecimal(precision, scale int) ColumnOption {
	return func(c *Column) {
		c.Precision = precision
		c.Scale = scale
	}
}

func WithCharset(charset Charset) ColumnOption {
	return func(c *Column) {
		c.Charset = charset
	}
}

// maxVariableSize keeps every length and cumulative length within the 3
// bytes a prefix may use.
const maxVariableSize = 1<<24 - 1

// FieldSchema is the storage description of one column. It is immutable
// once its TableSchema has been built.
type FieldSchema struct {
	name     string
	dataType DataType
	index    int

	fixedWidth       int // 0 for variable width
	maxStorageSize   int
	lengthPrefixSize int
	maxLength        int
	charset          Charset
	precision        int
	scale            int

	// width of this field's slot in the fixed section when variable width
	varPrefixWidth int

	table *TableSchema
}

func newFieldSchema(col Column, index int) (*FieldSchema, error) {
	f := &FieldSchema{
		name:     col.Name,
		dataType: col.DataType,
		index:    index,
	}
	switch col.DataType {
	case TypeTinyInt:
		f.fixedWidth = 1
	case TypeSmallInt:
		f.fixedWidth = 2
	case TypeMediumInt:
		f.fixedWidth = 3
	case TypeInt, TypeFloat:
		f.fixedWidth = 4
	case TypeBigInt, TypeDouble:
		f.fixedWidth = 8
	case TypeDecimal:
		if err := bcd.Validate(col.Precision, col.Scale); err != nil {
			return nil, errors.WithMessagef(err, "column %s", col.Name)
		}
		f.precision = col.Precision
		f.scale = col.Scale
		f.fixedWidth = bcd.BinSize(col.Precision, col.Scale)
	case TypeVarchar, TypeVarBinary:
		if col.Length <= 0 {
			return nil, errors.Wrapf(basic.ErrInvalidSchema, "column %s: %s needs a positive length", col.Name, col.DataType)
		}
		f.charset = CharsetBinary
		if col.DataType == TypeVarchar {
			f.charset = col.Charset
			if f.charset == "" {
				f.charset = CharsetUTF8MB4
			}
			if f.charset == CharsetBinary {
				return nil, errors.Wrapf(basic.ErrInvalidSchema, "column %s: VARCHAR cannot use charset binary", col.Name)
			}
		}
		f.maxLength = col.Length
		maxPayload := col.Length * f.charset.MaxBytes()
		f.lengthPrefixSize = util.UnsignedWidth(maxPayload)
		f.maxStorageSize = maxPayload + f.lengthPrefixSize
		if f.maxStorageSize > maxVariableSize {
			return nil, errors.Wrapf(basic.ErrInvalidSchema, "column %s: max storage %d too large", col.Name, f.maxStorageSize)
		}
	default:
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "column %s: unsupported data type %q", col.Name, col.DataType)
	}
	if f.fixedWidth > 0 {
		f.maxStorageSize = f.fixedWidth
	}
	if f.charset != "" {
		switch f.charset {
		case CharsetUTF8MB4, CharsetUTF8, CharsetGBK, CharsetBinary:
		default:
			return nil, errors.Wrapf(basic.ErrInvalidSchema, "column %s: unsupported charset %q", col.Name, f.charset)
		}
	}
	return f, nil
}

func (f *FieldSchema) Name() string {
	return f.name
}

func (f *FieldSchema) Type() DataType {
	return f.dataType
}

// Index is the field's position in its table.
func (f *FieldSchema) Index() int {
	return f.index
}

func (f *FieldSchema) IsFixedSize() bool {
	return f.fixedWidth > 0
}

// FixedWidth returns the encoded width and true for fixed width fields.
func (f *FieldSchema) FixedWidth() (int, bool) {
	return f.fixedWidth, f.fixedWidth > 0
}

// MaxStorageSize includes the length prefix of a variable width field.
func (f *FieldSchema) MaxStorageSize() int {
	return f.maxStorageSize
}

func (f *FieldSchema) LengthPrefixSize() int {
	return f.lengthPrefixSize
}

// MaxLength is the declared VARCHAR/VARBINARY length.
func (f *FieldSchema) MaxLength() int {
	return f.maxLength
}

func (f *FieldSchema) Charset() Charset {
	return f.charset
}

func (f *FieldSchema) Precision() int {
	return f.precision
}

func (f *FieldSchema) Scale() int {
	return f.scale
}

// VarPrefixWidth is the 1-3 byte width of the cumulative length a variable
// field keeps in the fixed section. Zero for fixed width fields.
func (f *FieldSchema) VarPrefixWidth() int {
	return f.varPrefixWidth
}

// SlotWidth is what the field occupies in the fixed section when not null.
func (f *FieldSchema) SlotWidth() int {
	if f.IsFixedSize() {
		return f.fixedWidth
	}
	return f.varPrefixWidth
}

func (f *FieldSchema) Table() *TableSchema {
	return f.table
}
