package metadata

import (
	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
)

// TableBuilder is a builder for creating TableSchema objects
// 用于构建 TableSchema 对象的构建器
type TableBuilder struct {
	id      uint32
	name    string
	version int
	columns []Column
	indexes []pendingIndex
}

type pendingIndex struct {
	name    string
	unique  bool
	columns []string
}

// NewTableBuilder creates a new TableBuilder
func NewTableBuilder(id uint32, name string) *TableBuilder {
	return &TableBuilder{id: id, name: name, version: 1}
}

// WithVersion sets the table version
func (b *TableBuilder) WithVersion(version int) *TableBuilder {
	b.version = version
	return b
}

// AddColumn adds a column to the table
func (b *TableBuilder) AddColumn(name string, dataType DataType, options ...ColumnOption) *TableBuilder {
	col := Column{
		Name:     name,
		DataType: dataType,
	}
	for _, opt := range options {
		opt(&col)
	}
	b.columns = append(b.columns, col)
	return b
}

// AddPrimaryKey adds a primary key constraint
func (b *TableBuilder) AddPrimaryKey(columns ...string) *TableBuilder {
	return b.AddIndex("PRIMARY", true, columns...)
}

// AddIndex adds an index
func (b *TableBuilder) AddIndex(name string, unique bool, columns ...string) *TableBuilder {
	b.indexes = append(b.indexes, pendingIndex{name: name, unique: unique, columns: columns})
	return b
}

// Build validates and returns the built TableSchema
func (b *TableBuilder) Build() (*TableSchema, error) {
	positions := make(map[string]int, len(b.columns))
	for i, col := range b.columns {
		positions[col.Name] = i
	}
	indexes := make([]IndexDef, 0, len(b.indexes))
	for _, idx := range b.indexes {
		def := IndexDef{Name: idx.name, Unique: idx.unique}
		for _, name := range idx.columns {
			pos, ok := positions[name]
			if !ok {
				return nil, errors.Wrapf(basic.ErrInvalidSchema, "index %s references unknown column %s", idx.name, name)
			}
			def.Fields = append(def.Fields, pos)
		}
		indexes = append(indexes, def)
	}
	return NewTableSchema(b.id, b.name, b.version, b.columns, indexes)
}
