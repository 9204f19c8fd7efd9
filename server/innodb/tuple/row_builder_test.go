package tuple

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/codec"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
)

func accountTable(t *testing.T) *metadata.TableSchema {
	ts, err := metadata.NewTableBuilder(7, "account").
		AddColumn("id", metadata.TypeInt).
		AddColumn("name", metadata.TypeVarchar, metadata.WithLength(32)).
		AddColumn("balance", metadata.TypeDecimal, metadata.WithDecimal(10, 2)).
		AddPrimaryKey("id").
		Build()
	require.NoError(t, err)
	return ts
}

func dec(t *testing.T, s string) basic.Value {
	v, err := basic.NewDecimalFromString(s)
	require.NoError(t, err)
	return v
}

func readField(t *testing.T, ts *metadata.TableSchema, rb *record.RowBuffer, i int) basic.Value {
	loc, err := ts.LocateField(rb, i)
	require.NoError(t, err)
	if loc.IsNull() {
		return basic.Null()
	}
	v, err := codec.Get(ts.Field(i), rb.FieldBytes(loc))
	require.NoError(t, err)
	return v
}

func TestBuildAccountRow(t *testing.T) {
	ts := accountTable(t)
	rb := record.NewRowBuffer(64)

	end, err := NewRowBuilder(ts, rb).Build([]basic.Value{basic.NewInt64(7), basic.NewString("ok"), dec(t, "-123.45")})
	require.NoError(t, err)
	assert.Equal(t, 32, end)

	want := []byte{
		0, 0, 0, 32, 0x41, 0x42, 0, 3, 0, 0, 0, 7,
		0x00,
		0, 0, 0, 7,
		3,
		0x7F, 0xFF, 0xFF, 0x84, 0xD2,
		2, 'o', 'k',
		0x42, 0x41, 0, 0, 0, 32,
	}
	assert.Equal(t, want, rb.RowBytes())
	assert.Equal(t, 0, rb.RowStart())
	assert.Equal(t, 32, rb.RowEnd())

	assert.True(t, basic.NewInt64(7).Equal(readField(t, ts, rb, 0)))
	assert.Equal(t, "ok", readField(t, ts, rb, 1).String())
	assert.Equal(t, "-123.45", readField(t, ts, rb, 2).String())
}

func TestBuildNullMiddleField(t *testing.T) {
	ts := accountTable(t)
	rb := record.NewRowBuffer(64)

	end, err := NewRowBuilder(ts, rb).Build([]basic.Value{basic.NewInt64(7), basic.Null(), dec(t, "-123.45")})
	require.NoError(t, err)
	assert.Equal(t, 28, end)

	assert.Equal(t, []byte{0x02}, rb.NullBitmap())
	isNull, err := rb.IsNull(1)
	require.NoError(t, err)
	assert.True(t, isNull)

	loc, err := ts.LocateField(rb, 1)
	require.NoError(t, err)
	assert.Equal(t, record.NoLocation, loc)

	id, err := ts.LocateField(rb, 0)
	require.NoError(t, err)
	assert.Equal(t, record.MakeLocation(13, 4), id)
	balance, err := ts.LocateField(rb, 2)
	require.NoError(t, err)
	assert.Equal(t, record.MakeLocation(17, 5), balance)
	assert.Equal(t, "-123.45", readField(t, ts, rb, 2).String())

	// nothing of name reaches the variable section
	assert.Equal(t, 17+5+record.TrailerSize, rb.RowSize())
}

func TestBuildSkippedFieldsAreNull(t *testing.T) {
	ts := accountTable(t)
	rb := record.NewRowBuffer(64)
	b := NewRowBuilder(ts, rb)

	require.NoError(t, b.StartAllocations())
	require.NoError(t, b.Allocate(1, basic.NewString("x")))
	require.NoError(t, b.StartPuts())
	require.NoError(t, b.PutObject(1, "x"))
	_, err := b.Finish()
	require.NoError(t, err)

	assert.Equal(t, []byte{0x05}, rb.NullBitmap())
	assert.True(t, readField(t, ts, rb, 0).IsNull())
	assert.Equal(t, "x", readField(t, ts, rb, 1).String())
	assert.True(t, readField(t, ts, rb, 2).IsNull())
}

func TestBuilderStateMachine(t *testing.T) {
	ts := accountTable(t)

	b := NewRowBuilder(ts, record.NewRowBuffer(64))
	assert.Equal(t, basic.ErrBuilderState, basic.Cause(b.Allocate(0, basic.NewInt64(1))))
	assert.Equal(t, basic.ErrBuilderState, basic.Cause(b.StartPuts()))
	_, err := b.Finish()
	assert.Equal(t, basic.ErrBuilderState, basic.Cause(err))

	require.NoError(t, b.StartAllocations())
	assert.Equal(t, basic.ErrBuilderState, basic.Cause(b.StartAllocations()))
	assert.Equal(t, basic.ErrBuilderState, basic.Cause(b.PutValue(0, basic.NewInt64(1))))
	require.NoError(t, b.Allocate(1, basic.NewString("a")))
	// out of order aborts the builder
	assert.Equal(t, basic.ErrBuilderState, basic.Cause(b.Allocate(0, basic.NewInt64(1))))
	assert.Equal(t, basic.ErrBuilderState, basic.Cause(b.StartPuts()))

	b = NewRowBuilder(ts, record.NewRowBuffer(64))
	require.NoError(t, b.StartAllocations())
	assert.True(t, basic.IsFieldOutOfRange(b.Allocate(3, basic.NewInt64(1))))
}

func TestPutMustMatchAllocation(t *testing.T) {
	ts := accountTable(t)

	start := func() *RowBuilder {
		b := NewRowBuilder(ts, record.NewRowBuffer(64))
		require.NoError(t, b.StartAllocations())
		require.NoError(t, b.Allocate(0, basic.NewInt64(1)))
		require.NoError(t, b.Allocate(1, basic.NewString("abc")))
		require.NoError(t, b.StartPuts())
		return b
	}

	b := start()
	require.NoError(t, b.PutValue(0, basic.NewInt64(1)))
	assert.True(t, basic.IsInternalConsistency(b.PutValue(1, basic.NewString("abcd"))))

	b = start()
	assert.True(t, basic.IsInternalConsistency(b.PutValue(0, basic.Null())))

	b = start()
	// field 0 was allocated but is skipped
	assert.True(t, basic.IsInternalConsistency(b.PutValue(1, basic.NewString("abc"))))

	b = start()
	require.NoError(t, b.PutValue(0, basic.NewInt64(1)))
	_, err := b.Finish()
	assert.True(t, basic.IsInternalConsistency(err))

	b = start()
	require.NoError(t, b.PutValue(0, basic.NewInt64(1)))
	require.NoError(t, b.PutValue(1, basic.NewString("abc")))
	assert.True(t, basic.IsInternalConsistency(b.PutValue(2, dec(t, "1.00"))))
}

func TestAllocateErrors(t *testing.T) {
	ts := accountTable(t)
	b := NewRowBuilder(ts, record.NewRowBuffer(64))
	require.NoError(t, b.StartAllocations())
	err := b.Allocate(1, basic.NewString("this string is much longer than thirty-two characters"))
	assert.True(t, basic.IsEncodingOverflow(err))

	b = NewRowBuilder(ts, record.NewRowBuffer(64))
	require.NoError(t, b.StartAllocations())
	assert.Equal(t, basic.ErrTypeMismatch, basic.Cause(b.Allocate(0, basic.NewString("7"))))

	_, err = NewRowBuilder(ts, record.NewRowBuffer(64)).Build(make([]basic.Value, 4))
	assert.True(t, basic.IsFieldOutOfRange(err))
}

func TestBuildIntoSmallBuffer(t *testing.T) {
	ts := accountTable(t)
	for size := 0; size < 32; size++ {
		rb := record.NewRowBufferFrom(make([]byte, size))
		_, err := NewRowBuilder(ts, rb).Build([]basic.Value{basic.NewInt64(7), basic.NewString("ok"), dec(t, "-123.45")})
		assert.True(t, basic.IsBufferBoundsExceeded(err), "size %d: %v", size, err)
	}
	rb := record.NewRowBufferFrom(make([]byte, 32))
	_, err := NewRowBuilder(ts, rb).Build([]basic.Value{basic.NewInt64(7), basic.NewString("ok"), dec(t, "-123.45")})
	assert.NoError(t, err)
}

func TestBuildConsecutiveRows(t *testing.T) {
	ts := accountTable(t)
	rb := record.NewRowBuffer(256)
	rows := [][]basic.Value{
		{basic.NewInt64(1), basic.NewString("a"), dec(t, "0.01")},
		{basic.NewInt64(2), basic.Null(), basic.Null()},
		{basic.NewInt64(3), basic.NewString("ccc"), basic.NewDecimal(decimal.New(-5, 0))},
	}
	var ends []int
	for _, values := range rows {
		end, err := NewRowBuilder(ts, rb).Build(values)
		require.NoError(t, err)
		ends = append(ends, end)
	}

	view := record.NewRowBufferWindow(rb.Bytes(), 0, ends[len(ends)-1])
	for i, values := range rows {
		ok, err := view.NextRow()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ends[i], view.RowEnd())
		for f, want := range values {
			assert.True(t, want.Equal(readField(t, ts, view, f)), "row %d field %d", i, f)
		}
	}
	ok, err := view.NextRow()
	require.NoError(t, err)
	assert.False(t, ok)
}
