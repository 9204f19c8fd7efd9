// Package rowbatch keeps many rows of one table in a single shared byte
// array, the way bulk fetches hand rows between operators, and seals such a
// batch into a checksummed, optionally compressed block.
package rowbatch

import (
	jerrors "github.com/juju/errors"
	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/logger"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/accessor"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/tuple"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

// Block layout, big-endian:
//
//	0   magic "RB01"      4
//	4   compress type     1
//	5   raw length        4
//	9   row count         4
//	13  table id          4
//	17  xxhash64 of rows  8
//	25  payload
const (
	blockMagic      = "RB01"
	blockHeaderSize = 25
)

// Batch is a sequence of rows of one table. It is not safe for concurrent
// use.
type Batch struct {
	table  *metadata.TableSchema
	rb     *record.RowBuffer
	policy tuple.GrowthPolicy
	rows   int
	used   int
}

// NewBatch creates an empty batch whose buffer starts at initialSize bytes
// and grows as policy allows.
func NewBatch(table *metadata.TableSchema, initialSize int, policy tuple.GrowthPolicy) *Batch {
	if initialSize <= 0 {
		initialSize = tuple.DefaultInitialBufferSize
	}
	return &Batch{
		table:  table,
		rb:     record.NewRowBuffer(initialSize),
		policy: policy,
	}
}

func (b *Batch) Table() *metadata.TableSchema {
	return b.table
}

// Count is the number of rows.
func (b *Batch) Count() int {
	return b.rows
}

// Size is the number of bytes the rows occupy.
func (b *Batch) Size() int {
	return b.used
}

// Append builds values as the next row.
func (b *Batch) Append(values []basic.Value) error {
	if err := b.rb.MoveTo(b.used); err != nil {
		return jerrors.Trace(err)
	}
	end, err := tuple.BuildRow(b.table, b.rb, values, b.policy)
	if err != nil {
		return jerrors.Annotatef(err, "append row %d", b.rows)
	}
	b.used = end
	b.rows++
	return nil
}

// AppendNative converts plain Go values with basic.FromNative and appends
// them.
func (b *Batch) AppendNative(xs ...interface{}) error {
	values := make([]basic.Value, len(xs))
	for i, x := range xs {
		v, err := basic.FromNative(x)
		if err != nil {
			return errors.WithMessagef(err, "value %d", i)
		}
		values[i] = v
	}
	return b.Append(values)
}

// View returns a fresh, non-growable RowBuffer over the rows, positioned
// before the first one. Views share the batch's bytes.
func (b *Batch) View() *record.RowBuffer {
	return record.NewRowBufferWindow(b.rb.Bytes(), 0, b.used)
}

// Scan calls fn once per row with a view positioned on it. fn must not keep
// the view past its return. A corrupt row stops the scan.
func (b *Batch) Scan(fn func(rb *record.RowBuffer) error) error {
	view := b.View()
	for i := 0; ; i++ {
		ok, err := view.NextRow()
		if err != nil {
			logger.Warnf("table %s: corrupt row %d in batch: %v", b.table.Name(), i, err)
			return jerrors.Annotatef(err, "scan row %d", i)
		}
		if !ok {
			return nil
		}
		if err := fn(view); err != nil {
			return err
		}
	}
}

// Rows decodes every row.
func (b *Batch) Rows() ([][]basic.Value, error) {
	out := make([][]basic.Value, 0, b.rows)
	err := b.Scan(func(rb *record.RowBuffer) error {
		values, err := accessor.ReadRow(b.table, rb)
		if err != nil {
			return err
		}
		out = append(out, values)
		return nil
	})
	return out, err
}

// Seal encodes the batch as a block. The rows are compressed with c unless
// that does not make them smaller.
func (b *Batch) Seal(c CompressType) ([]byte, error) {
	raw := b.rb.Bytes()[:b.used]
	block := make([]byte, blockHeaderSize, blockHeaderSize+len(raw))
	block, stored, err := compress(c, raw, block)
	if err != nil {
		return nil, jerrors.Annotatef(err, "seal batch of table %s", b.table.Name())
	}
	cursor := util.WriteBytes(block, 0, []byte(blockMagic))
	cursor = util.WriteByte(block, cursor, byte(stored))
	cursor = util.WriteUB4(block, cursor, uint32(len(raw)))
	cursor = util.WriteUB4(block, cursor, uint32(b.rows))
	cursor = util.WriteUB4(block, cursor, b.table.ID())
	util.WriteUB8(block, cursor, util.HashCode(raw))
	return block, nil
}

// Open verifies a sealed block and returns its rows as a batch of the
// registry's current schema for the block's table.
func Open(reg *metadata.Registry, block []byte, policy tuple.GrowthPolicy) (*Batch, error) {
	b, err := open(reg, block, policy)
	if err != nil {
		logger.Errorf("open row batch: %s", jerrors.ErrorStack(err))
		return nil, err
	}
	return b, nil
}

func open(reg *metadata.Registry, block []byte, policy tuple.GrowthPolicy) (*Batch, error) {
	if len(block) < blockHeaderSize || string(block[:len(blockMagic)]) != blockMagic {
		return nil, jerrors.Trace(errors.Wrapf(basic.ErrCorruptBlock, "bad block header (%d bytes)", len(block)))
	}
	cursor, stored := util.ReadByte(block, len(blockMagic))
	cursor, rawLen := util.ReadUB4(block, cursor)
	cursor, rows := util.ReadUB4(block, cursor)
	cursor, tableID := util.ReadUB4(block, cursor)
	cursor, sum := util.ReadUB8(block, cursor)

	table, err := reg.Lookup(tableID)
	if err != nil {
		return nil, jerrors.Trace(err)
	}
	if policy.MaxSize > 0 && int(rawLen) > policy.MaxSize {
		return nil, jerrors.Trace(errors.Wrapf(basic.ErrCorruptBlock, "block of %d bytes exceeds max buffer size %d", rawLen, policy.MaxSize))
	}

	b := &Batch{
		table:  table,
		rb:     record.NewRowBuffer(int(rawLen)),
		policy: policy,
		used:   int(rawLen),
	}
	raw := b.rb.Bytes()
	if err := decompress(CompressType(stored), block[cursor:], raw); err != nil {
		return nil, jerrors.Trace(err)
	}
	if got := util.HashCode(raw); got != sum {
		return nil, jerrors.Trace(errors.Wrapf(basic.ErrCorruptBlock, "checksum %016x, header says %016x", got, sum))
	}

	count := 0
	err = b.Scan(func(rb *record.RowBuffer) error {
		if rb.SchemaID() != table.ID() {
			return errors.Wrapf(basic.ErrCorruptBlock, "row %d belongs to table %d, block to %d", count, rb.SchemaID(), table.ID())
		}
		count++
		return nil
	})
	if err != nil {
		return nil, jerrors.Trace(err)
	}
	if count != int(rows) {
		return nil, jerrors.Trace(errors.Wrapf(basic.ErrCorruptBlock, "block holds %d rows, header says %d", count, rows))
	}
	b.rows = count
	return b, nil
}
