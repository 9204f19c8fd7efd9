package basic

import (
	"math"
	"testing"

	jerrors "github.com/juju/errors"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAccessors(t *testing.T) {
	v := NewInt64(7)
	i, err := v.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(7), i)

	f, err := v.Float64()
	require.NoError(t, err)
	assert.Equal(t, 7.0, f)

	_, err = v.Str()
	assert.True(t, errors.Cause(err) == ErrTypeMismatch)

	assert.True(t, Null().IsNull())
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, KindNull, Value{}.Kind())
}

func TestValueEqual(t *testing.T) {
	a, err := NewDecimalFromString("1.50")
	require.NoError(t, err)
	assert.True(t, a.Equal(NewDecimal(decimal.RequireFromString("1.5"))))
	assert.False(t, a.Equal(NewInt64(1)))
	assert.True(t, NewBytes(nil).Equal(NewBytes([]byte{})))
	assert.True(t, Null().Equal(Null()))

	_, err = NewDecimalFromString("abc")
	assert.Equal(t, ErrTypeMismatch, Cause(err))
}

func TestCauseThroughTraces(t *testing.T) {
	err := errors.Wrapf(ErrCorruptRow, "offset %d", 12)
	err = jerrors.Annotatef(err, "scanning batch")
	err = jerrors.Trace(err)
	assert.True(t, IsCorruptRow(err))
	assert.False(t, IsValueIsNull(err))
	assert.Nil(t, Cause(nil))
}

func TestFromNative(t *testing.T) {
	cases := []struct {
		in   interface{}
		want Value
	}{
		{nil, Null()},
		{int8(-3), NewInt64(-3)},
		{uint32(7), NewInt64(7)},
		{12, NewInt64(12)},
		{float32(0.5), NewFloat64(0.5)},
		{"abc", NewString("abc")},
		{[]byte{1}, NewBytes([]byte{1})},
		{decimal.New(15, -1), NewDecimal(decimal.RequireFromString("1.5"))},
		{NewInt64(9), NewInt64(9)},
	}
	for _, c := range cases {
		got, err := FromNative(c.in)
		require.NoError(t, err)
		assert.True(t, c.want.Equal(got), "%v", c.in)
	}

	_, err := FromNative(uint64(math.MaxUint64))
	assert.True(t, IsEncodingOverflow(err))
	_, err = FromNative(struct{}{})
	assert.Equal(t, ErrTypeMismatch, Cause(err))
}
