package codec

import (
	"math"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/bcd"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

// integerCodec stores big-endian two's complement in the column's width.
type integerCodec struct{}

func (integerCodec) Width(f *metadata.FieldSchema, v basic.Value) (int, error) {
	i, err := v.Int64()
	if err != nil {
		return 0, errors.WithMessagef(err, "field %s", f.Name())
	}
	w, _ := f.FixedWidth()
	if w < 8 {
		limit := int64(1) << uint(8*w-1)
		if i < -limit || i >= limit {
			return 0, errors.Wrapf(basic.ErrEncodingOverflow, "%d out of range for %s %s", i, f.Type(), f.Name())
		}
	}
	return w, nil
}

func (c integerCodec) Put(f *metadata.FieldSchema, v basic.Value, dest []byte, offset int) (int, error) {
	w, err := c.Width(f, v)
	if err != nil {
		return 0, err
	}
	if err := checkRoom(f, dest, offset, w); err != nil {
		return 0, err
	}
	i, _ := v.Int64()
	util.WriteUBN(dest, offset, w, uint64(i))
	return w, nil
}

func (integerCodec) Get(f *metadata.FieldSchema, src []byte) (basic.Value, error) {
	w, err := checkFixed(f, src)
	if err != nil {
		return basic.Null(), err
	}
	_, i := util.ReadSBN(src, 0, w)
	return basic.NewInt64(i), nil
}

// floatCodec stores IEEE 754 bits; FLOAT narrows to single precision.
type floatCodec struct{}

func (floatCodec) Width(f *metadata.FieldSchema, v basic.Value) (int, error) {
	x, err := v.Float64()
	if err != nil {
		return 0, errors.WithMessagef(err, "field %s", f.Name())
	}
	w, _ := f.FixedWidth()
	if w == 4 && !math.IsInf(x, 0) && !math.IsNaN(x) && math.Abs(x) > math.MaxFloat32 {
		return 0, errors.Wrapf(basic.ErrEncodingOverflow, "%g out of range for FLOAT %s", x, f.Name())
	}
	return w, nil
}

func (c floatCodec) Put(f *metadata.FieldSchema, v basic.Value, dest []byte, offset int) (int, error) {
	w, err := c.Width(f, v)
	if err != nil {
		return 0, err
	}
	if err := checkRoom(f, dest, offset, w); err != nil {
		return 0, err
	}
	x, _ := v.Float64()
	if w == 4 {
		util.WriteUB4(dest, offset, math.Float32bits(float32(x)))
	} else {
		util.WriteUB8(dest, offset, math.Float64bits(x))
	}
	return w, nil
}

func (floatCodec) Get(f *metadata.FieldSchema, src []byte) (basic.Value, error) {
	w, err := checkFixed(f, src)
	if err != nil {
		return basic.Null(), err
	}
	if w == 4 {
		_, bits := util.ReadUB4(src, 0)
		return basic.NewFloat64(float64(math.Float32frombits(bits))), nil
	}
	_, bits := util.ReadUB8(src, 0)
	return basic.NewFloat64(math.Float64frombits(bits)), nil
}

type decimalCodec struct{}

func (decimalCodec) Width(f *metadata.FieldSchema, v basic.Value) (int, error) {
	d, err := v.Decimal()
	if err != nil {
		return 0, errors.WithMessagef(err, "field %s", f.Name())
	}
	w, _ := f.FixedWidth()
	// overflow is only known once the digits are laid out
	var scratch [32]byte
	if _, err := bcd.Encode(d, f.Precision(), f.Scale(), scratch[:w], 0); err != nil {
		return 0, errors.WithMessagef(err, "field %s", f.Name())
	}
	return w, nil
}

func (decimalCodec) Put(f *metadata.FieldSchema, v basic.Value, dest []byte, offset int) (int, error) {
	d, err := v.Decimal()
	if err != nil {
		return 0, errors.WithMessagef(err, "field %s", f.Name())
	}
	n, err := bcd.Encode(d, f.Precision(), f.Scale(), dest, offset)
	if err != nil {
		return 0, errors.WithMessagef(err, "field %s", f.Name())
	}
	return n, nil
}

func (decimalCodec) Get(f *metadata.FieldSchema, src []byte) (basic.Value, error) {
	if _, err := checkFixed(f, src); err != nil {
		return basic.Null(), err
	}
	d, err := bcd.Decode(src, 0, f.Precision(), f.Scale())
	if err != nil {
		return basic.Null(), errors.WithMessagef(err, "field %s", f.Name())
	}
	return basic.NewDecimal(d), nil
}
