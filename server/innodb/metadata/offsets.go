package metadata

import (
	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

// Fields are located by indexing tables with null bitmap bytes instead of
// walking fields one by one.
//
// The fields covered by bitmap byte g form group g. For every mask k of
// non-null fields in the group, coordinates[g][k] packs
//
//	(sum of slot widths of the fields in k) | (slot width of k's highest field) << 24
//
// A field's slot is its encoded bytes when fixed width, or the 1-3 byte
// cumulative variable length when variable width. varFieldBackref[g][2k] is
// one plus the bit of the highest variable width field in k (0 when there is
// none) and varFieldBackref[g][2k+1] the coordinates key that locates that
// field's slot.
type offsetTables struct {
	fixedStart      int
	coordinates     [][256]uint32
	varFieldBackref [][512]uint8
}

const (
	coordinateOffsetMask = 0xFFFFFF
	coordinateWidthShift = 24
)

// precomputeOffsetTables also assigns each variable field its prefix width,
// sized to the cumulative maximum variable section length through that
// field.
func precomputeOffsetTables(fields []*FieldSchema, fixedStart int) (*offsetTables, error) {
	groups := util.BitmapSize(len(fields))
	t := &offsetTables{
		fixedStart:      fixedStart,
		coordinates:     make([][256]uint32, groups),
		varFieldBackref: make([][512]uint8, groups),
	}

	// bits past the last field have width 0 and are never variable
	widths := make([]uint32, groups*8)
	variable := make([]bool, groups*8)
	voffset := 0
	for i, f := range fields {
		if f.IsFixedSize() {
			if f.fixedWidth >= 1<<8 {
				return nil, errors.Wrapf(basic.ErrInvalidSchema, "field %s is %d bytes wide", f.name, f.fixedWidth)
			}
			widths[i] = uint32(f.fixedWidth)
			continue
		}
		voffset += f.maxStorageSize
		if voffset > maxVariableSize {
			return nil, errors.Wrapf(basic.ErrInvalidSchema, "variable fields through %s exceed %d bytes", f.name, maxVariableSize)
		}
		f.varPrefixWidth = util.UnsignedWidth(voffset)
		widths[i] = uint32(f.varPrefixWidth)
		variable[i] = true
	}

	for g := 0; g < groups; g++ {
		coords := &t.coordinates[g]
		backref := &t.varFieldBackref[g]
		// k is derived from k without its highest bit, which sorts before k
		for k := 1; k < 256; k++ {
			top := util.HighestBit(byte(k))
			prev := k &^ (1 << uint(top))
			w := widths[g*8+top]
			coords[k] = (coords[prev]&coordinateOffsetMask + w) | w<<coordinateWidthShift
			if variable[g*8+top] {
				backref[2*k] = uint8(top + 1)
				backref[2*k+1] = uint8(k)
			} else {
				backref[2*k] = backref[2*prev]
				backref[2*k+1] = backref[2*prev+1]
			}
		}
	}
	return t, nil
}

// LocateField returns where fieldIndex's bytes are in the current row, or
// record.NoLocation when the field is null. Cost is one table lookup per
// bitmap byte.
func (ts *TableSchema) LocateField(rb *record.RowBuffer, fieldIndex int) (record.Location, error) {
	if err := ts.CheckFieldIndex(fieldIndex); err != nil {
		return record.NoLocation, err
	}
	if n := rb.FieldCount(); n != len(ts.fields) {
		return record.NoLocation, errors.Wrapf(basic.ErrCorruptRow, "row has %d fields, table %s has %d", n, ts.name, len(ts.fields))
	}
	return ts.offsets.locate(rb, ts.fields[fieldIndex])
}

func (t *offsetTables) locate(rb *record.RowBuffer, field *FieldSchema) (record.Location, error) {
	bytes := rb.Bytes()
	nullMap := rb.RowStart() + record.OffsetNullMap
	group := field.index >> 3
	bit := uint(field.index & 7)
	if bytes[nullMap+group]&(1<<bit) != 0 {
		return record.NoLocation, nil
	}

	// previous non-null variable field, tracked for variable width targets
	prevGroup, prevBase, prevKey := -1, 0, uint8(0)

	offset := rb.RowStart() + t.fixedStart
	for g := 0; g < group; g++ {
		key := ^bytes[nullMap+g]
		if t.varFieldBackref[g][2*int(key)] != 0 {
			prevGroup, prevBase, prevKey = g, offset, t.varFieldBackref[g][2*int(key)+1]
		}
		offset += int(t.coordinates[g][key] & coordinateOffsetMask)
	}

	key := ^bytes[nullMap+group] & util.PrefixMask(int(bit))
	entry := t.coordinates[group][key]
	width := int(entry >> coordinateWidthShift)
	slot := offset + int(entry&coordinateOffsetMask) - width
	if field.IsFixedSize() {
		if slot+width > rb.RowEnd()-record.TrailerSize {
			return record.NoLocation, errors.Wrapf(basic.ErrCorruptRow, "field %s at %d+%d overruns row", field.name, slot, width)
		}
		return record.MakeLocation(slot, width), nil
	}

	before := int(key &^ (1 << bit))
	if t.varFieldBackref[group][2*before] != 0 {
		prevGroup, prevBase, prevKey = group, offset, t.varFieldBackref[group][2*before+1]
	}

	// the variable section starts where the fixed section ends
	fixedEnd := offset
	for g := group; g < len(t.coordinates); g++ {
		fixedEnd += int(t.coordinates[g][^bytes[nullMap+g]] & coordinateOffsetMask)
	}
	if fixedEnd > rb.RowEnd()-record.TrailerSize {
		return record.NoLocation, errors.Wrapf(basic.ErrCorruptRow, "fixed section ends at %d past row end %d", fixedEnd, rb.RowEnd())
	}

	end := int(rb.GetUnsignedIntegerAt(slot, width))
	start := 0
	if prevGroup >= 0 {
		prev := t.coordinates[prevGroup][prevKey]
		prevWidth := int(prev >> coordinateWidthShift)
		start = int(rb.GetUnsignedIntegerAt(prevBase+int(prev&coordinateOffsetMask)-prevWidth, prevWidth))
	}
	if end <= start || fixedEnd+end > rb.RowEnd()-record.TrailerSize {
		return record.NoLocation, errors.Wrapf(basic.ErrCorruptRow, "field %s spans [%d,%d) of variable section at %d", field.name, start, end, fixedEnd)
	}
	return record.MakeLocation(fixedEnd+start, end-start), nil
}
