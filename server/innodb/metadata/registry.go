package metadata

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/logger"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
)

// DebugHook observes every schema installed into a Registry.
type DebugHook func(schema *TableSchema)

// Registry maps table ids to their current TableSchema. Components receive
// a Registry explicitly; schemas inside it are swapped, never modified.
type Registry struct {
	mu     sync.RWMutex
	tables map[uint32]*TableSchema
	names  map[string]uint32
	hook   DebugHook
}

// NewRegistry creates an empty registry. hook may be nil.
func NewRegistry(hook DebugHook) *Registry {
	return &Registry{
		tables: make(map[uint32]*TableSchema),
		names:  make(map[string]uint32),
		hook:   hook,
	}
}

// Install makes schema the current version of its table and returns the
// schema it replaced, if any. Older versions are rejected.
func (r *Registry) Install(schema *TableSchema) (*TableSchema, error) {
	r.mu.Lock()
	previous := r.tables[schema.id]
	if previous != nil && previous.version > schema.version {
		r.mu.Unlock()
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "table %s: version %d is older than installed %d", schema.name, schema.version, previous.version)
	}
	if owner, ok := r.names[schema.name]; ok && owner != schema.id {
		r.mu.Unlock()
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "table name %s already used by id %d", schema.name, owner)
	}
	if previous != nil && previous.name != schema.name {
		delete(r.names, previous.name)
	}
	r.tables[schema.id] = schema
	r.names[schema.name] = schema.id
	r.mu.Unlock()

	if previous != nil && previous.fingerprint == schema.fingerprint {
		logger.Debugf("table %s (id %d) reinstalled at version %d with unchanged layout", schema.name, schema.id, schema.version)
	} else {
		logger.Infof("table %s (id %d) version %d installed, %d fields", schema.name, schema.id, schema.version, len(schema.fields))
	}
	if r.hook != nil {
		r.hook(schema)
	}
	return previous, nil
}

func (r *Registry) Lookup(id uint32) (*TableSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.tables[id]
	if !ok {
		return nil, errors.Wrapf(basic.ErrSchemaNotFound, "table id %d", id)
	}
	return ts, nil
}

func (r *Registry) LookupByName(name string) (*TableSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[name]
	if !ok {
		return nil, errors.Wrapf(basic.ErrSchemaNotFound, "table %s", name)
	}
	return r.tables[id], nil
}

// SchemaFor resolves the schema of the row currently in rb.
func (r *Registry) SchemaFor(rb *record.RowBuffer) (*TableSchema, error) {
	return r.Lookup(rb.SchemaID())
}

// Tables returns the current schemas ordered by id.
func (r *Registry) Tables() []*TableSchema {
	r.mu.RLock()
	out := make([]*TableSchema, 0, len(r.tables))
	for _, ts := range r.tables {
		out = append(out, ts)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
