package metadata

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

// IndexDef references fields by position. Indexes never change row layout.
type IndexDef struct {
	Name   string
	Unique bool
	Fields []int
}

// TableSchema describes one version of a table's row layout. It is built
// once and then shared read-only; a column change builds a new TableSchema.
type TableSchema struct {
	id      uint32
	name    string
	version int

	fields  []*FieldSchema
	byName  map[string]int
	indexes []IndexDef

	nullMapSize int
	offsets     *offsetTables
	fingerprint uint64
}

// NewTableSchema builds the schema and its offset tables from columns
// listed in field order.
func NewTableSchema(id uint32, name string, version int, columns []Column, indexes []IndexDef) (*TableSchema, error) {
	if len(columns) == 0 {
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "table %s has no columns", name)
	}
	if len(columns) > 0xFFFF {
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "table %s has %d columns", name, len(columns))
	}
	ts := &TableSchema{
		id:          id,
		name:        name,
		version:     version,
		fields:      make([]*FieldSchema, len(columns)),
		byName:      make(map[string]int, len(columns)),
		nullMapSize: util.BitmapSize(len(columns)),
	}
	for i, col := range columns {
		if _, dup := ts.byName[col.Name]; dup {
			return nil, errors.Wrapf(basic.ErrInvalidSchema, "table %s: duplicate column %s", name, col.Name)
		}
		f, err := newFieldSchema(col, i)
		if err != nil {
			return nil, errors.WithMessagef(err, "table %s", name)
		}
		f.table = ts
		ts.fields[i] = f
		ts.byName[col.Name] = i
	}
	for _, idx := range indexes {
		if len(idx.Fields) == 0 {
			return nil, errors.Wrapf(basic.ErrInvalidSchema, "table %s: index %s has no fields", name, idx.Name)
		}
		for _, pos := range idx.Fields {
			if pos < 0 || pos >= len(columns) {
				return nil, errors.Wrapf(basic.ErrInvalidSchema, "table %s: index %s references field %d", name, idx.Name, pos)
			}
		}
		ts.indexes = append(ts.indexes, IndexDef{Name: idx.Name, Unique: idx.Unique, Fields: append([]int(nil), idx.Fields...)})
	}

	offsets, err := precomputeOffsetTables(ts.fields, record.HeaderSize+ts.nullMapSize)
	if err != nil {
		return nil, errors.WithMessagef(err, "table %s", name)
	}
	ts.offsets = offsets
	ts.fingerprint = layoutFingerprint(ts.fields)
	return ts, nil
}

// layoutFingerprint hashes everything that shapes the row image.
func layoutFingerprint(fields []*FieldSchema) uint64 {
	parts := make([][]byte, 0, len(fields)*2)
	for _, f := range fields {
		parts = append(parts,
			[]byte(f.name),
			[]byte(string(f.dataType)+"/"+string(f.charset)+"/"+
				strconv.Itoa(f.maxLength)+"/"+strconv.Itoa(f.precision)+"/"+strconv.Itoa(f.scale)))
	}
	return util.HashCodes(parts...)
}

func (ts *TableSchema) ID() uint32 {
	return ts.id
}

func (ts *TableSchema) Name() string {
	return ts.name
}

func (ts *TableSchema) Version() int {
	return ts.version
}

func (ts *TableSchema) FieldCount() int {
	return len(ts.fields)
}

// Field returns the field at index, or nil when out of range.
func (ts *TableSchema) Field(index int) *FieldSchema {
	if index < 0 || index >= len(ts.fields) {
		return nil
	}
	return ts.fields[index]
}

func (ts *TableSchema) FieldByName(name string) (*FieldSchema, bool) {
	i, ok := ts.byName[name]
	if !ok {
		return nil, false
	}
	return ts.fields[i], true
}

// Fields returns a copy of the field list.
func (ts *TableSchema) Fields() []*FieldSchema {
	return append([]*FieldSchema(nil), ts.fields...)
}

func (ts *TableSchema) Indexes() []IndexDef {
	return ts.indexes
}

func (ts *TableSchema) NullMapSize() int {
	return ts.nullMapSize
}

// FixedSectionStart is the offset of the first field byte from the row
// start.
func (ts *TableSchema) FixedSectionStart() int {
	return record.HeaderSize + ts.nullMapSize
}

// Fingerprint identifies the row layout; schemas with equal fingerprints
// read each other's rows.
func (ts *TableSchema) Fingerprint() uint64 {
	return ts.fingerprint
}

// CheckFieldIndex reports ErrFieldOutOfRange for indexes outside the table.
func (ts *TableSchema) CheckFieldIndex(fieldIndex int) error {
	if fieldIndex < 0 || fieldIndex >= len(ts.fields) {
		return errors.Wrapf(basic.ErrFieldOutOfRange, "field %d of table %s with %d fields", fieldIndex, ts.name, len(ts.fields))
	}
	return nil
}
