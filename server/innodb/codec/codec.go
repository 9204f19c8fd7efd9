// Package codec encodes typed values into the bytes a field occupies in a
// row image and decodes them back. Fixed width types write exactly the
// field's fixed width; variable width types write [length][payload] with a
// length of the field's LengthPrefixSize.
package codec

import (
	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
)

// TypeCodec is the encode/decode strategy for one column type.
type TypeCodec interface {
	// Width is the number of bytes v will occupy, length prefix included.
	Width(f *metadata.FieldSchema, v basic.Value) (int, error)
	// Put writes v at dest[offset:] and returns the number of bytes written.
	Put(f *metadata.FieldSchema, v basic.Value, dest []byte, offset int) (int, error)
	// Get decodes the complete field bytes src.
	Get(f *metadata.FieldSchema, src []byte) (basic.Value, error)
}

var codecs = map[metadata.DataType]TypeCodec{
	metadata.TypeTinyInt:   integerCodec{},
	metadata.TypeSmallInt:  integerCodec{},
	metadata.TypeMediumInt: integerCodec{},
	metadata.TypeInt:       integerCodec{},
	metadata.TypeBigInt:    integerCodec{},
	metadata.TypeFloat:     floatCodec{},
	metadata.TypeDouble:    floatCodec{},
	metadata.TypeDecimal:   decimalCodec{},
	metadata.TypeVarchar:   varcharCodec{},
	metadata.TypeVarBinary: varbinaryCodec{},
}

// For returns the codec of the field's type.
func For(f *metadata.FieldSchema) (TypeCodec, error) {
	c, ok := codecs[f.Type()]
	if !ok {
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "no codec for %s", f.Type())
	}
	return c, nil
}

// Width returns the encoded width of v for f. A null value has width 0.
func Width(f *metadata.FieldSchema, v basic.Value) (int, error) {
	if v.IsNull() {
		return 0, nil
	}
	c, err := For(f)
	if err != nil {
		return 0, err
	}
	return c.Width(f, v)
}

// Put encodes a non-null v for f at dest[offset:].
func Put(f *metadata.FieldSchema, v basic.Value, dest []byte, offset int) (int, error) {
	if v.IsNull() {
		return 0, errors.Wrapf(basic.ErrInternalConsistency, "null value put into field %s", f.Name())
	}
	c, err := For(f)
	if err != nil {
		return 0, err
	}
	return c.Put(f, v, dest, offset)
}

// Get decodes the bytes of a non-null field.
func Get(f *metadata.FieldSchema, src []byte) (basic.Value, error) {
	c, err := For(f)
	if err != nil {
		return basic.Null(), err
	}
	return c.Get(f, src)
}

func checkRoom(f *metadata.FieldSchema, dest []byte, offset, width int) error {
	if offset < 0 || offset+width > len(dest) {
		return errors.Wrapf(basic.ErrBufferBoundsExceeded, "field %s needs %d bytes at %d, buffer has %d", f.Name(), width, offset, len(dest))
	}
	return nil
}

func checkFixed(f *metadata.FieldSchema, src []byte) (int, error) {
	w, _ := f.FixedWidth()
	if len(src) != w {
		return 0, errors.Wrapf(basic.ErrCorruptRow, "field %s is %d bytes, want %d", f.Name(), len(src), w)
	}
	return w, nil
}
