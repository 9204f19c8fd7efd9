package tuple

import (
	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/codec"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

type builderState int

const (
	stateNewlyConstructed builderState = iota
	stateAllocating
	statePutting
	stateDone
	stateFailed
)

func (s builderState) String() string {
	switch s {
	case stateNewlyConstructed:
		return "NewlyConstructed"
	case stateAllocating:
		return "Allocating"
	case statePutting:
		return "Putting"
	case stateDone:
		return "Done"
	case stateFailed:
		return "Failed"
	}
	return "Unknown"
}

// RowBuilder writes one row at the end of the current window of a
// RowBuffer. Every field is first allocated, which sizes it and lays out the
// fixed section, then put, which writes the value bytes. Fields are handled
// in ascending order; a field that is skipped is null.
//
// A RowBuilder is single use. Any error aborts it: the bytes written so far
// are garbage and the buffer's window is left empty at the row start.
type RowBuilder struct {
	table *metadata.TableSchema
	rb    *record.RowBuffer
	state builderState

	start   int
	widths  []int
	nulls   []bool
	next    int
	fixed   int // fixed section cursor
	fixedTo int // end of the fixed section once allocated

	varCursor  int
	cumulative int
}

func NewRowBuilder(table *metadata.TableSchema, rb *record.RowBuffer) *RowBuilder {
	return &RowBuilder{
		table: table,
		rb:    rb,
		state: stateNewlyConstructed,
	}
}

func (b *RowBuilder) expect(state builderState, op string) error {
	if b.state != state {
		return errors.Wrapf(basic.ErrBuilderState, "%s in state %s, want %s", op, b.state, state)
	}
	return nil
}

// fail aborts the builder and passes err through.
func (b *RowBuilder) fail(err error) error {
	b.state = stateFailed
	return err
}

func (b *RowBuilder) bytes() []byte {
	return b.rb.Bytes()[:b.rb.BufferEnd()]
}

func (b *RowBuilder) checkRoom(offset, width int, what string) error {
	if offset+width > b.rb.BufferEnd() {
		return errors.Wrapf(basic.ErrBufferBoundsExceeded, "%s needs %d bytes at %d, buffer ends at %d", what, width, offset, b.rb.BufferEnd())
	}
	return nil
}

// StartAllocations writes the envelope header at the end of the buffer's
// current window and clears the null bitmap.
func (b *RowBuilder) StartAllocations() error {
	if err := b.expect(stateNewlyConstructed, "StartAllocations"); err != nil {
		return err
	}
	b.start = b.rb.RowEnd()
	if err := b.rb.MoveTo(b.start); err != nil {
		return b.fail(err)
	}
	if err := b.checkRoom(b.start, b.table.FixedSectionStart(), "row header"); err != nil {
		return b.fail(err)
	}

	n := b.table.FieldCount()
	bytes := b.bytes()
	cursor := util.WriteUB4(bytes, b.start, 0)
	cursor = util.WriteUB2(bytes, cursor, record.SignatureA)
	cursor = util.WriteUB2(bytes, cursor, uint16(n))
	cursor = util.WriteUB4(bytes, cursor, b.table.ID())
	for i := 0; i < b.table.NullMapSize(); i++ {
		cursor = util.WriteByte(bytes, cursor, 0)
	}

	b.widths = make([]int, n)
	b.nulls = make([]bool, n)
	b.next = 0
	b.fixed = cursor
	b.cumulative = 0
	b.state = stateAllocating
	return nil
}

func (b *RowBuilder) setNull(fieldIndex int) {
	b.nulls[fieldIndex] = true
	b.widths[fieldIndex] = 0
	util.SetBit(b.bytes()[b.start+record.OffsetNullMap:], fieldIndex)
}

// ordered checks fieldIndex and returns the fields skipped before it.
func (b *RowBuilder) ordered(fieldIndex int, op string) (int, error) {
	if err := b.table.CheckFieldIndex(fieldIndex); err != nil {
		return 0, err
	}
	if fieldIndex < b.next {
		return 0, errors.Wrapf(basic.ErrBuilderState, "%s field %d after field %d", op, fieldIndex, b.next-1)
	}
	return b.next, nil
}

// Allocate sizes fieldIndex for v and reserves its fixed section slot. A
// variable width field's slot receives the cumulative variable section
// length through that field.
func (b *RowBuilder) Allocate(fieldIndex int, v basic.Value) error {
	if err := b.expect(stateAllocating, "Allocate"); err != nil {
		return err
	}
	from, err := b.ordered(fieldIndex, "Allocate")
	if err != nil {
		return b.fail(err)
	}
	for i := from; i < fieldIndex; i++ {
		b.setNull(i)
	}
	b.next = fieldIndex + 1

	f := b.table.Field(fieldIndex)
	if v.IsNull() {
		b.setNull(fieldIndex)
		return nil
	}
	w, err := codec.Width(f, v)
	if err != nil {
		return b.fail(err)
	}
	if w > f.MaxStorageSize() {
		return b.fail(errors.Wrapf(basic.ErrEncodingOverflow, "field %s is %d bytes, max %d", f.Name(), w, f.MaxStorageSize()))
	}
	b.widths[fieldIndex] = w

	if f.IsFixedSize() {
		if err := b.checkRoom(b.fixed, w, f.Name()); err != nil {
			return b.fail(err)
		}
		b.fixed += w
		return nil
	}
	if err := b.checkRoom(b.fixed, f.VarPrefixWidth(), f.Name()); err != nil {
		return b.fail(err)
	}
	b.cumulative += w
	b.fixed = util.WriteUBN(b.bytes(), b.fixed, f.VarPrefixWidth(), uint64(b.cumulative))
	return nil
}

// StartPuts ends allocation; fields not allocated are null.
func (b *RowBuilder) StartPuts() error {
	if err := b.expect(stateAllocating, "StartPuts"); err != nil {
		return err
	}
	for i := b.next; i < b.table.FieldCount(); i++ {
		b.setNull(i)
	}
	b.fixedTo = b.fixed
	if err := b.checkRoom(b.fixedTo, b.cumulative+record.TrailerSize, "variable section and trailer"); err != nil {
		return b.fail(err)
	}
	b.fixed = b.start + b.table.FixedSectionStart()
	b.varCursor = b.fixedTo
	b.next = 0
	b.state = statePutting
	return nil
}

// PutValue writes v, which must match what was allocated for fieldIndex.
func (b *RowBuilder) PutValue(fieldIndex int, v basic.Value) error {
	if err := b.expect(statePutting, "PutValue"); err != nil {
		return err
	}
	from, err := b.ordered(fieldIndex, "PutValue")
	if err != nil {
		return b.fail(err)
	}
	if err := b.skipNulls(from, fieldIndex); err != nil {
		return b.fail(err)
	}
	b.next = fieldIndex + 1

	f := b.table.Field(fieldIndex)
	if v.IsNull() != b.nulls[fieldIndex] {
		return b.fail(errors.Wrapf(basic.ErrInternalConsistency, "field %s put null=%t, allocated null=%t", f.Name(), v.IsNull(), b.nulls[fieldIndex]))
	}
	if v.IsNull() {
		return nil
	}

	if f.IsFixedSize() {
		n, err := codec.Put(f, v, b.bytes(), b.fixed)
		if err != nil {
			return b.fail(err)
		}
		if n != b.widths[fieldIndex] {
			return b.fail(errors.Wrapf(basic.ErrInternalConsistency, "field %s wrote %d bytes, allocated %d", f.Name(), n, b.widths[fieldIndex]))
		}
		b.fixed += n
		return nil
	}

	n, err := codec.Put(f, v, b.bytes(), b.varCursor)
	if err != nil {
		return b.fail(err)
	}
	b.varCursor += n
	cursor, recorded := util.ReadUBN(b.bytes(), b.fixed, f.VarPrefixWidth())
	if written := b.varCursor - b.fixedTo; uint64(written) != recorded {
		return b.fail(errors.Wrapf(basic.ErrInternalConsistency, "field %s ends variable section at %d, allocated %d", f.Name(), written, recorded))
	}
	b.fixed = cursor
	return nil
}

// PutObject puts a native Go value, see basic.FromNative.
func (b *RowBuilder) PutObject(fieldIndex int, x interface{}) error {
	v, err := basic.FromNative(x)
	if err != nil {
		return b.fail(err)
	}
	return b.PutValue(fieldIndex, v)
}

func (b *RowBuilder) skipNulls(from, to int) error {
	for i := from; i < to; i++ {
		if !b.nulls[i] {
			return errors.Wrapf(basic.ErrInternalConsistency, "field %s allocated but never put", b.table.Field(i).Name())
		}
	}
	return nil
}

// Finish writes the trailer and both length fields, makes the new row the
// buffer's current window and returns the offset just past it.
func (b *RowBuilder) Finish() (int, error) {
	if err := b.expect(statePutting, "Finish"); err != nil {
		return 0, err
	}
	if err := b.skipNulls(b.next, b.table.FieldCount()); err != nil {
		return 0, b.fail(err)
	}
	if b.fixed != b.fixedTo || b.varCursor != b.fixedTo+b.cumulative {
		return 0, b.fail(errors.Wrapf(basic.ErrInternalConsistency, "sections end at %d/%d, allocated %d/%d", b.fixed, b.varCursor, b.fixedTo, b.fixedTo+b.cumulative))
	}

	length := b.varCursor + record.TrailerSize - b.start
	bytes := b.bytes()
	cursor := util.WriteUB2(bytes, b.varCursor, record.SignatureB)
	end := util.WriteUB4(bytes, cursor, uint32(length))
	util.WriteUB4(bytes, b.start+record.OffsetLengthA, uint32(length))

	if err := b.rb.PrepareRow(b.start); err != nil {
		return 0, b.fail(errors.Wrapf(basic.ErrInternalConsistency, "built row does not validate: %v", err))
	}
	b.state = stateDone
	return end, nil
}

// Build runs both phases over values in field order. Missing trailing
// values are null.
func (b *RowBuilder) Build(values []basic.Value) (int, error) {
	if len(values) > b.table.FieldCount() {
		return 0, errors.Wrapf(basic.ErrFieldOutOfRange, "%d values for table %s with %d fields", len(values), b.table.Name(), b.table.FieldCount())
	}
	if err := b.StartAllocations(); err != nil {
		return 0, err
	}
	for i, v := range values {
		if err := b.Allocate(i, v); err != nil {
			return 0, err
		}
	}
	if err := b.StartPuts(); err != nil {
		return 0, err
	}
	for i, v := range values {
		if err := b.PutValue(i, v); err != nil {
			return 0, err
		}
	}
	return b.Finish()
}
