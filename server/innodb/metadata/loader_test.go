package metadata

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
)

const accountsTOML = `
[[tables]]
id = 7
name = "account"
version = 3

  [[tables.columns]]
  name = "id"
  type = "int"

  [[tables.columns]]
  name = "name"
  type = "varchar"
  length = 32
  charset = "gbk"

  [[tables.columns]]
  name = "balance"
  type = "decimal"
  precision = 10
  scale = 2

  [[tables.indexes]]
  name = "PRIMARY"
  unique = true
  columns = ["id"]

[[tables]]
id = 8
name = "blob"

  [[tables.columns]]
  name = "payload"
  type = "varbinary"
  length = 1024
`

func TestParseSchemas(t *testing.T) {
	tables, err := ParseSchemas(accountsTOML)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	account := tables[0]
	assert.Equal(t, uint32(7), account.ID())
	assert.Equal(t, 3, account.Version())
	require.Equal(t, 3, account.FieldCount())
	assert.Equal(t, TypeVarchar, account.Field(1).Type())
	assert.Equal(t, CharsetGBK, account.Field(1).Charset())
	assert.Equal(t, 65, account.Field(1).MaxStorageSize())
	assert.Equal(t, 10, account.Field(2).Precision())
	require.Len(t, account.Indexes(), 1)
	assert.True(t, account.Indexes()[0].Unique)

	blob := tables[1]
	assert.Equal(t, 1, blob.Version())
	assert.Equal(t, 1026, blob.Field(0).MaxStorageSize())
	assert.Empty(t, blob.Indexes())
}

func TestLoadSchemaFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "schema")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "schema.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(accountsTOML), 0644))
	tables, err := LoadSchemaFile(path)
	require.NoError(t, err)
	assert.Len(t, tables, 2)

	_, err = LoadSchemaFile(filepath.Join(dir, "missing.toml"))
	assert.Equal(t, basic.ErrInvalidSchema, basic.Cause(err))
}

func TestParseSchemasRejectsBadInput(t *testing.T) {
	bad := []string{
		`[[tables]]` + "\n" + `id = 1`,
		`[[tables]]` + "\n" + `name = "t"`,
		`[[tables]]` + "\n" + `id = 1` + "\n" + `name = "t"` + "\n" + `[[tables.columns]]` + "\n" + `name = "a"` + "\n" + `type = "text"`,
		`[[tables]]` + "\n" + `id = 1` + "\n" + `name = "t"` + "\n" + `[[tables.columns]]` + "\n" + `name = "a"` + "\n" + `type = "int"` + "\n" + `[[tables.indexes]]` + "\n" + `name = "i"` + "\n" + `columns = "a"`,
		`tables = 3`,
		`this is not toml`,
	}
	for _, doc := range bad {
		_, err := ParseSchemas(doc)
		assert.Equal(t, basic.ErrInvalidSchema, basic.Cause(err), doc)
	}
}
