package metadata

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

func TestRegistryInstallAndLookup(t *testing.T) {
	var seen []string
	reg := NewRegistry(func(s *TableSchema) {
		seen = append(seen, s.Name())
	})

	v1 := accountSchema(t)
	prev, err := reg.Install(v1)
	require.NoError(t, err)
	assert.Nil(t, prev)

	got, err := reg.Lookup(7)
	require.NoError(t, err)
	assert.Same(t, v1, got)
	got, err = reg.LookupByName("account")
	require.NoError(t, err)
	assert.Same(t, v1, got)

	v2, err := NewTableBuilder(7, "account").WithVersion(2).
		AddColumn("id", TypeInt).
		AddColumn("name", TypeVarchar, WithLength(64)).
		Build()
	require.NoError(t, err)
	prev, err = reg.Install(v2)
	require.NoError(t, err)
	assert.Same(t, v1, prev)
	got, _ = reg.Lookup(7)
	assert.Same(t, v2, got)

	// going back a version is refused
	_, err = reg.Install(v1)
	assert.Equal(t, basic.ErrInvalidSchema, basic.Cause(err))

	clash, err := NewTableBuilder(8, "account").AddColumn("id", TypeInt).Build()
	require.NoError(t, err)
	_, err = reg.Install(clash)
	assert.Equal(t, basic.ErrInvalidSchema, basic.Cause(err))

	_, err = reg.Lookup(99)
	assert.Equal(t, basic.ErrSchemaNotFound, basic.Cause(err))
	_, err = reg.LookupByName("nobody")
	assert.Equal(t, basic.ErrSchemaNotFound, basic.Cause(err))

	assert.Equal(t, []string{"account", "account"}, seen)
}

func TestRegistryTablesOrderedByID(t *testing.T) {
	reg := NewRegistry(nil)
	for _, id := range []uint32{30, 10, 20} {
		ts, err := NewTableBuilder(id, "t"+string(rune('0'+id/10))).AddColumn("a", TypeInt).Build()
		require.NoError(t, err)
		_, err = reg.Install(ts)
		require.NoError(t, err)
	}
	tables := reg.Tables()
	require.Len(t, tables, 3)
	assert.Equal(t, uint32(10), tables[0].ID())
	assert.Equal(t, uint32(20), tables[1].ID())
	assert.Equal(t, uint32(30), tables[2].ID())
}

func TestRegistrySchemaFor(t *testing.T) {
	reg := NewRegistry(nil)
	ts := accountSchema(t)
	_, err := reg.Install(ts)
	require.NoError(t, err)

	// all fields null
	length := ts.FixedSectionStart() + record.TrailerSize
	row := make([]byte, length)
	cursor := util.WriteUB4(row, 0, uint32(length))
	cursor = util.WriteUB2(row, cursor, record.SignatureA)
	cursor = util.WriteUB2(row, cursor, 3)
	util.WriteUB4(row, cursor, 7)
	row[record.OffsetNullMap] = 0x07
	cursor = util.WriteUB2(row, length-record.TrailerSize, record.SignatureB)
	util.WriteUB4(row, cursor, uint32(length))

	rb := record.NewRowBufferFrom(row)
	require.NoError(t, rb.PrepareRow(0))
	got, err := reg.SchemaFor(rb)
	require.NoError(t, err)
	assert.Same(t, ts, got)

	rb.SetExplicitSchemaID(8)
	_, err = reg.SchemaFor(rb)
	assert.Equal(t, basic.ErrSchemaNotFound, basic.Cause(err))
	rb.ClearExplicitSchemaID()
	_, err = reg.SchemaFor(rb)
	assert.NoError(t, err)
}

func TestRegistryConcurrentReaders(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Install(accountSchema(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := reg.Lookup(7); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	for v := 2; v < 10; v++ {
		ts, err := NewTableBuilder(7, "account").WithVersion(v).AddColumn("id", TypeInt).Build()
		require.NoError(t, err)
		_, err = reg.Install(ts)
		require.NoError(t, err)
	}
	wg.Wait()
	got, err := reg.Lookup(7)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Version())
}
