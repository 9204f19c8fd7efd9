package record

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

// RowBuffer is a window [rowStart, rowEnd) over a byte array that may hold
// several concatenated rows. bufferStart/bufferEnd bound the valid region.
// A RowBuffer is not safe for concurrent mutation.
type RowBuffer struct {
	bytes       []byte
	bufferStart int
	bufferEnd   int
	rowStart    int
	rowEnd      int

	// only buffers allocated by NewRowBuffer may be reallocated
	growable bool

	explicitSchemaID    uint32
	hasExplicitSchemaID bool

	differsFromPredecessorAtKeySegment int
	orderingKey                        []byte
}

// NewRowBuffer allocates an owned, growable buffer of size bytes.
func NewRowBuffer(size int) *RowBuffer {
	rb := &RowBuffer{growable: true, differsFromPredecessorAtKeySegment: -1}
	rb.ResetWithBytes(make([]byte, size), 0, size)
	return rb
}

// NewRowBufferFrom wraps externally supplied bytes. The result is never
// grown.
func NewRowBufferFrom(bytes []byte) *RowBuffer {
	return NewRowBufferWindow(bytes, 0, len(bytes))
}

// NewRowBufferWindow wraps bytes[start:end] of an externally supplied array.
func NewRowBufferWindow(bytes []byte, start, end int) *RowBuffer {
	rb := &RowBuffer{differsFromPredecessorAtKeySegment: -1}
	rb.ResetWithBytes(bytes, start, end)
	return rb
}

// ResetWithBytes repoints the buffer without copying. The row window is
// empty and positioned at start.
func (rb *RowBuffer) ResetWithBytes(bytes []byte, start, end int) {
	if start < 0 || end > len(bytes) || start > end {
		panic(fmt.Sprintf("row buffer region [%d,%d) outside array of %d bytes", start, end, len(bytes)))
	}
	rb.bytes = bytes
	rb.Reset(start, end)
}

func (rb *RowBuffer) Reset(start, end int) {
	rb.bufferStart = start
	rb.bufferEnd = end
	rb.rowStart = start
	rb.rowEnd = start
	rb.hasExplicitSchemaID = false
	rb.differsFromPredecessorAtKeySegment = -1
	rb.orderingKey = nil
}

// MoveTo positions an empty row window at offset, typically where the next
// row of a bulk buffer will be written.
func (rb *RowBuffer) MoveTo(offset int) error {
	if offset < rb.bufferStart || offset > rb.bufferEnd {
		return errors.Wrapf(basic.ErrBufferBoundsExceeded, "offset %d outside [%d,%d)", offset, rb.bufferStart, rb.bufferEnd)
	}
	rb.rowStart = offset
	rb.rowEnd = offset
	return nil
}

func (rb *RowBuffer) Bytes() []byte {
	return rb.bytes
}

func (rb *RowBuffer) BufferStart() int {
	return rb.bufferStart
}

func (rb *RowBuffer) BufferEnd() int {
	return rb.bufferEnd
}

func (rb *RowBuffer) RowStart() int {
	return rb.rowStart
}

func (rb *RowBuffer) RowEnd() int {
	return rb.rowEnd
}

func (rb *RowBuffer) RowSize() int {
	return rb.rowEnd - rb.rowStart
}

func (rb *RowBuffer) Growable() bool {
	return rb.growable
}

// RowBytes returns the current row image, sharing the backing array.
func (rb *RowBuffer) RowBytes() []byte {
	return rb.bytes[rb.rowStart:rb.rowEnd]
}

// Grow reallocates an owned buffer to newSize, keeping every byte before the
// current row start. The current row window is left empty.
func (rb *RowBuffer) Grow(newSize int) error {
	if !rb.growable {
		return errors.Wrap(basic.ErrBufferNotGrowable, "externally supplied buffer")
	}
	if newSize <= len(rb.bytes) {
		return nil
	}
	grown := make([]byte, newSize)
	copy(grown, rb.bytes[:rb.rowStart])
	rb.bytes = grown
	rb.bufferEnd = newSize
	rb.rowEnd = rb.rowStart
	return nil
}

// ValidateRow checks the envelope at offset and returns the record length.
func (rb *RowBuffer) ValidateRow(offset int) (int, error) {
	if offset < rb.bufferStart || offset+MinimumRecordLength > rb.bufferEnd {
		return 0, errors.Wrapf(basic.ErrCorruptRow, "no room for a row envelope at %d in [%d,%d)", offset, rb.bufferStart, rb.bufferEnd)
	}
	_, length32 := util.ReadUB4(rb.bytes, offset+OffsetLengthA)
	length := int(length32)
	if length < MinimumRecordLength || length > rb.bufferEnd-offset {
		return 0, errors.Wrapf(basic.ErrCorruptRow, "row length %d at %d does not fit buffer end %d", length, offset, rb.bufferEnd)
	}
	if _, sig := util.ReadUB2(rb.bytes, offset+OffsetSignatureA); sig != SignatureA {
		return 0, errors.Wrapf(basic.ErrCorruptRow, "bad leading signature 0x%04X at %d", sig, offset)
	}
	if _, trailing := util.ReadUB4(rb.bytes, offset+length+OffsetLengthB); int(trailing) != length {
		return 0, errors.Wrapf(basic.ErrCorruptRow, "trailing length %d differs from leading length %d at %d", trailing, length, offset)
	}
	if _, sig := util.ReadUB2(rb.bytes, offset+length+OffsetSignatureB); sig != SignatureB {
		return 0, errors.Wrapf(basic.ErrCorruptRow, "bad trailing signature 0x%04X at %d", sig, offset)
	}
	_, fieldCount := util.ReadUB2(rb.bytes, offset+OffsetFieldCount)
	if HeaderSize+util.BitmapSize(int(fieldCount))+TrailerSize > length {
		return 0, errors.Wrapf(basic.ErrCorruptRow, "null bitmap for %d fields overruns row of %d bytes", fieldCount, length)
	}
	return length, nil
}

// PrepareRow validates the row at offset and makes it the current window.
// On error the window is unchanged.
func (rb *RowBuffer) PrepareRow(offset int) error {
	length, err := rb.ValidateRow(offset)
	if err != nil {
		return err
	}
	rb.rowStart = offset
	rb.rowEnd = offset + length
	rb.differsFromPredecessorAtKeySegment = -1
	rb.orderingKey = nil
	return nil
}

// NextRow advances to the row following the current one. It returns false
// with a nil error at the end of the buffer.
func (rb *RowBuffer) NextRow() (bool, error) {
	if rb.rowEnd >= rb.bufferEnd {
		return false, nil
	}
	if err := rb.PrepareRow(rb.rowEnd); err != nil {
		return false, err
	}
	return true, nil
}

func (rb *RowBuffer) FieldCount() int {
	_, n := util.ReadUB2(rb.bytes, rb.rowStart+OffsetFieldCount)
	return int(n)
}

// SchemaID returns the explicit override if one is set, else the stored id.
func (rb *RowBuffer) SchemaID() uint32 {
	if rb.hasExplicitSchemaID {
		return rb.explicitSchemaID
	}
	_, id := util.ReadUB4(rb.bytes, rb.rowStart+OffsetSchemaID)
	return id
}

func (rb *RowBuffer) SetExplicitSchemaID(id uint32) {
	rb.explicitSchemaID = id
	rb.hasExplicitSchemaID = true
}

func (rb *RowBuffer) ClearExplicitSchemaID() {
	rb.hasExplicitSchemaID = false
}

// NullBitmap returns the null bitmap of the current row.
func (rb *RowBuffer) NullBitmap() []byte {
	start := rb.rowStart + OffsetNullMap
	return rb.bytes[start : start+util.BitmapSize(rb.FieldCount())]
}

// IsNull reports whether bit fieldIndex%8 of bitmap byte fieldIndex/8 is set.
func (rb *RowBuffer) IsNull(fieldIndex int) (bool, error) {
	if fieldIndex < 0 || fieldIndex >= rb.FieldCount() {
		return false, errors.Wrapf(basic.ErrFieldOutOfRange, "field %d of %d", fieldIndex, rb.FieldCount())
	}
	return util.TestBit(rb.NullBitmap(), fieldIndex), nil
}

// GetUnsignedIntegerAt reads a big-endian unsigned integer of width bytes at
// an absolute offset.
func (rb *RowBuffer) GetUnsignedIntegerAt(offset, width int) uint64 {
	_, v := util.ReadUBN(rb.bytes, offset, width)
	return v
}

// FieldBytes returns the bytes at loc, or nil for NoLocation.
func (rb *RowBuffer) FieldBytes(loc Location) []byte {
	if loc.IsNull() {
		return nil
	}
	return rb.bytes[loc.Offset() : loc.Offset()+loc.Width()]
}

// DifferencesFromPredecessor is the first key segment at which this row's
// ordering key differs from the previous row's, -1 when unknown.
func (rb *RowBuffer) DifferencesFromPredecessor() int {
	return rb.differsFromPredecessorAtKeySegment
}

func (rb *RowBuffer) SetDifferencesFromPredecessor(segment int) {
	rb.differsFromPredecessorAtKeySegment = segment
}

func (rb *RowBuffer) OrderingKey() []byte {
	return rb.orderingKey
}

func (rb *RowBuffer) SetOrderingKey(key []byte) {
	rb.orderingKey = key
}

func (rb *RowBuffer) String() string {
	return fmt.Sprintf("RowBuffer[buffer=%d:%d row=%d:%d] %s",
		rb.bufferStart, rb.bufferEnd, rb.rowStart, rb.rowEnd, hex.EncodeToString(rb.bytes[rb.rowStart:rb.rowEnd]))
}
