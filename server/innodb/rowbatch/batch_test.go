package rowbatch

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/tuple"
)

func orderTable(t *testing.T) *metadata.TableSchema {
	ts, err := metadata.NewTableBuilder(21, "orders").
		AddColumn("id", metadata.TypeBigInt).
		AddColumn("customer", metadata.TypeVarchar, metadata.WithLength(40)).
		AddColumn("amount", metadata.TypeDecimal, metadata.WithDecimal(12, 2)).
		AddColumn("note", metadata.TypeVarBinary, metadata.WithLength(200)).
		AddPrimaryKey("id").
		Build()
	require.NoError(t, err)
	return ts
}

func fillBatch(t *testing.T, ts *metadata.TableSchema, n int) *Batch {
	b := NewBatch(ts, 64, tuple.DefaultGrowthPolicy())
	for i := 0; i < n; i++ {
		var note interface{}
		if i%3 == 0 {
			note = []byte(strings.Repeat("n", i%50))
		}
		amount, err := basic.NewDecimalFromString(fmt.Sprintf("%d.%02d", i*7, i%100))
		require.NoError(t, err)
		require.NoError(t, b.AppendNative(int64(i), fmt.Sprintf("customer-%d", i%10), amount, note))
	}
	return b
}

func TestAppendAndScan(t *testing.T) {
	ts := orderTable(t)
	b := fillBatch(t, ts, 100)
	assert.Equal(t, 100, b.Count())
	assert.Same(t, ts, b.Table())

	var ids []int64
	err := b.Scan(func(rb *record.RowBuffer) error {
		id := rb.GetUnsignedIntegerAt(rb.RowStart()+ts.FixedSectionStart(), 8)
		ids = append(ids, int64(id))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, ids, 100)
	for i, id := range ids {
		assert.Equal(t, int64(i), id)
	}

	rows, err := b.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 100)
	assert.Equal(t, "customer-3", rows[13][1].String())
	assert.True(t, rows[13][3].IsNull())
	assert.Equal(t, "91.13", rows[13][2].String())
	assert.Equal(t, 12, mustLen(t, rows[12][3]))
}

func mustLen(t *testing.T, v basic.Value) int {
	b, err := v.Bytes()
	require.NoError(t, err)
	return len(b)
}

func TestScanStopsOnCallbackError(t *testing.T) {
	b := fillBatch(t, orderTable(t), 10)
	seen := 0
	err := b.Scan(func(rb *record.RowBuffer) error {
		seen++
		if seen == 4 {
			return basic.ErrValueIsNull
		}
		return nil
	})
	assert.Equal(t, basic.ErrValueIsNull, err)
	assert.Equal(t, 4, seen)
}

func TestAppendRejectsBadRowAndKeepsBatch(t *testing.T) {
	ts := orderTable(t)
	b := fillBatch(t, ts, 5)
	size := b.Size()

	err := b.AppendNative(int64(99), strings.Repeat("x", 41), nil, nil)
	assert.True(t, basic.IsEncodingOverflow(err))
	err = b.AppendNative(struct{}{})
	assert.Equal(t, basic.ErrTypeMismatch, basic.Cause(err))

	assert.Equal(t, 5, b.Count())
	assert.Equal(t, size, b.Size())
	rows, err := b.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestSealAndOpen(t *testing.T) {
	ts := orderTable(t)
	reg := metadata.NewRegistry(nil)
	_, err := reg.Install(ts)
	require.NoError(t, err)
	b := fillBatch(t, ts, 200)
	want, err := b.Rows()
	require.NoError(t, err)

	for _, c := range []CompressType{CompressNone, CompressSnappy, CompressLZ4} {
		block, err := b.Seal(c)
		require.NoError(t, err)
		assert.Equal(t, "RB01", string(block[:4]))
		assert.Equal(t, byte(c), block[4], c.String())
		if c != CompressNone {
			assert.True(t, len(block) < blockHeaderSize+b.Size(), c.String())
		}

		opened, err := Open(reg, block, tuple.DefaultGrowthPolicy())
		require.NoError(t, err, c.String())
		assert.Equal(t, 200, opened.Count())
		assert.Equal(t, b.Size(), opened.Size())
		got, err := opened.Rows()
		require.NoError(t, err)
		for i := range want {
			for f := range want[i] {
				assert.True(t, want[i][f].Equal(got[i][f]), "%s row %d field %d", c, i, f)
			}
		}

		// an opened batch keeps accepting rows
		require.NoError(t, opened.AppendNative(int64(1000), "late", nil, nil))
		assert.Equal(t, 201, opened.Count())
	}
}

func TestSealIncompressibleFallsBack(t *testing.T) {
	ts, err := metadata.NewTableBuilder(5, "one").AddColumn("a", metadata.TypeTinyInt).Build()
	require.NoError(t, err)
	b := NewBatch(ts, 0, tuple.DefaultGrowthPolicy())
	require.NoError(t, b.AppendNative(1))
	for _, c := range []CompressType{CompressSnappy, CompressLZ4} {
		block, err := b.Seal(c)
		require.NoError(t, err)
		assert.Equal(t, byte(CompressNone), block[4])
	}

	empty := NewBatch(ts, 0, tuple.DefaultGrowthPolicy())
	block, err := empty.Seal(CompressLZ4)
	require.NoError(t, err)
	reg := metadata.NewRegistry(nil)
	_, err = reg.Install(ts)
	require.NoError(t, err)
	opened, err := Open(reg, block, tuple.DefaultGrowthPolicy())
	require.NoError(t, err)
	assert.Equal(t, 0, opened.Count())
}

func TestOpenRejectsDamagedBlocks(t *testing.T) {
	ts := orderTable(t)
	reg := metadata.NewRegistry(nil)
	_, err := reg.Install(ts)
	require.NoError(t, err)
	block, err := fillBatch(t, ts, 30).Seal(CompressSnappy)
	require.NoError(t, err)

	damage := func(f func(b []byte) []byte) error {
		cp := append([]byte(nil), block...)
		_, err := Open(reg, f(cp), tuple.DefaultGrowthPolicy())
		return err
	}

	assert.True(t, basic.IsCorruptBlock(damage(func(b []byte) []byte { return b[:10] })))
	assert.True(t, basic.IsCorruptBlock(damage(func(b []byte) []byte { b[0] = 'X'; return b })))
	assert.True(t, basic.IsCorruptBlock(damage(func(b []byte) []byte { b[4] = 9; return b })))
	assert.True(t, basic.IsCorruptBlock(damage(func(b []byte) []byte { b[8]++; return b })))
	assert.True(t, basic.IsCorruptBlock(damage(func(b []byte) []byte { b[12]++; return b })))
	assert.True(t, basic.IsCorruptBlock(damage(func(b []byte) []byte { b[20] ^= 0xFF; return b })))
	assert.True(t, basic.IsCorruptBlock(damage(func(b []byte) []byte { return b[:len(b)-1] })))
	err = damage(func(b []byte) []byte { b[16]++; return b })
	assert.Equal(t, basic.ErrSchemaNotFound, basic.Cause(err))
}

func TestParseCompressType(t *testing.T) {
	for _, c := range []CompressType{CompressNone, CompressSnappy, CompressLZ4} {
		got, err := ParseCompressType(strings.ToUpper(c.String()))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseCompressType("")
	require.NoError(t, err)
	assert.Equal(t, CompressNone, got)
	_, err = ParseCompressType("zip")
	assert.Error(t, err)
}
