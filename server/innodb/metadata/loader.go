package metadata

import (
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
)

// Schema sources are TOML documents:
//
//	[[tables]]
//	id = 7
//	name = "account"
//	version = 1
//
//	  [[tables.columns]]
//	  name = "name"
//	  type = "varchar"
//	  length = 32
//	  charset = "utf8mb4"
//
//	  [[tables.indexes]]
//	  name = "PRIMARY"
//	  unique = true
//	  columns = ["id"]

// LoadSchemaFile reads every table definition in a TOML file.
func LoadSchemaFile(path string) ([]*TableSchema, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "load %s: %v", path, err)
	}
	return schemasFromTree(tree)
}

// ParseSchemas reads table definitions from a TOML document.
func ParseSchemas(content string) ([]*TableSchema, error) {
	tree, err := toml.Load(content)
	if err != nil {
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "parse schema: %v", err)
	}
	return schemasFromTree(tree)
}

func schemasFromTree(tree *toml.Tree) ([]*TableSchema, error) {
	tables, err := subTrees(tree, "tables")
	if err != nil {
		return nil, err
	}
	out := make([]*TableSchema, 0, len(tables))
	for i, t := range tables {
		name, err := getString(t, "name", "")
		if err != nil || name == "" {
			return nil, errors.Wrapf(basic.ErrInvalidSchema, "tables[%d] needs a name", i)
		}
		id, err := getInt(t, "id", -1)
		if err != nil || id < 0 || id > 0xFFFFFFFF {
			return nil, errors.Wrapf(basic.ErrInvalidSchema, "table %s needs an id in [0, 2^32)", name)
		}
		version, err := getInt(t, "version", 1)
		if err != nil {
			return nil, errors.WithMessagef(err, "table %s", name)
		}

		b := NewTableBuilder(uint32(id), name).WithVersion(int(version))
		columns, err := subTrees(t, "columns")
		if err != nil {
			return nil, errors.WithMessagef(err, "table %s", name)
		}
		for _, c := range columns {
			col, err := columnFromTree(c)
			if err != nil {
				return nil, errors.WithMessagef(err, "table %s", name)
			}
			b.AddColumn(col.Name, col.DataType, WithLength(col.Length), WithDecimal(col.Precision, col.Scale), WithCharset(col.Charset))
		}
		indexes, err := subTrees(t, "indexes")
		if err != nil {
			return nil, errors.WithMessagef(err, "table %s", name)
		}
		for _, idx := range indexes {
			idxName, err := getString(idx, "name", "")
			if err != nil {
				return nil, errors.WithMessagef(err, "table %s", name)
			}
			unique, _ := idx.GetDefault("unique", false).(bool)
			cols, err := getStrings(idx, "columns")
			if err != nil {
				return nil, errors.WithMessagef(err, "table %s index %s", name, idxName)
			}
			b.AddIndex(idxName, unique, cols...)
		}

		ts, err := b.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func columnFromTree(t *toml.Tree) (Column, error) {
	var col Column
	var err error
	if col.Name, err = getString(t, "name", ""); err != nil || col.Name == "" {
		return col, errors.Wrap(basic.ErrInvalidSchema, "column needs a name")
	}
	typ, err := getString(t, "type", "")
	if err != nil {
		return col, err
	}
	if col.DataType, err = ParseDataType(typ); err != nil {
		return col, errors.WithMessagef(err, "column %s", col.Name)
	}
	length, err := getInt(t, "length", 0)
	if err != nil {
		return col, err
	}
	precision, err := getInt(t, "precision", 0)
	if err != nil {
		return col, err
	}
	scale, err := getInt(t, "scale", 0)
	if err != nil {
		return col, err
	}
	charset, err := getString(t, "charset", "")
	if err != nil {
		return col, err
	}
	col.Length, col.Precision, col.Scale, col.Charset = int(length), int(precision), int(scale), Charset(charset)
	return col, nil
}

func subTrees(t *toml.Tree, key string) ([]*toml.Tree, error) {
	switch v := t.Get(key).(type) {
	case nil:
		return nil, nil
	case []*toml.Tree:
		return v, nil
	case *toml.Tree:
		return []*toml.Tree{v}, nil
	default:
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "%s must be an array of tables, got %T", key, v)
	}
}

func getString(t *toml.Tree, key, def string) (string, error) {
	switch v := t.GetDefault(key, def).(type) {
	case string:
		return v, nil
	default:
		return "", errors.Wrapf(basic.ErrInvalidSchema, "%s must be a string, got %T", key, v)
	}
}

func getInt(t *toml.Tree, key string, def int64) (int64, error) {
	switch v := t.GetDefault(key, def).(type) {
	case int64:
		return v, nil
	default:
		return 0, errors.Wrapf(basic.ErrInvalidSchema, "%s must be an integer, got %T", key, v)
	}
}

func getStrings(t *toml.Tree, key string) ([]string, error) {
	raw, ok := t.Get(key).([]interface{})
	if !ok {
		return nil, errors.Wrapf(basic.ErrInvalidSchema, "%s must be an array of strings", key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, errors.Wrapf(basic.ErrInvalidSchema, "%s must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
