package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"math"
	"os"

	jerrors "github.com/juju/errors"
	"github.com/shopspring/decimal"

	"github.com/zhukovaskychina/xmysql-rowstore/logger"
	"github.com/zhukovaskychina/xmysql-rowstore/server/conf"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/accessor"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/rowbatch"
)

const help = `
******************************************************************************************
*  rowstore: 行格式检查工具
*帮助:
*1. -- help
*2. -- configPath   指定rowstore.ini配置文件
*3. -- schema       指定TOML表定义文件, 覆盖配置中的schema_file
*4. -- demo N       生成N行示例数据并封装为batch文件
*5. -- out          demo输出文件, 默认 rowstore.blk
*6. -- block        打印batch文件中的每一行
******************************************************************************************
`

func main() {
	var (
		configPath string
		schemaFile string
		blockFile  string
		outFile    string
		demoRows   int
	)
	flag.StringVar(&configPath, "configPath", "", "配置文件路径")
	flag.StringVar(&schemaFile, "schema", "", "TOML表定义文件")
	flag.StringVar(&blockFile, "block", "", "要打印的batch文件")
	flag.StringVar(&outFile, "out", "rowstore.blk", "demo输出文件")
	flag.IntVar(&demoRows, "demo", 0, "示例行数")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, help)
		flag.PrintDefaults()
	}
	flag.Parse()

	config, err := conf.NewCfg().Load(&conf.CommandLineArgs{ConfigPath: configPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(config.LogConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	if config.ConfigFile != "" {
		logger.Infof("configuration loaded from %s", config.ConfigFile)
	}
	if schemaFile == "" {
		schemaFile = config.SchemaFile
	}

	registry := metadata.NewRegistry(func(ts *metadata.TableSchema) {
		logger.Debugf("schema %s fingerprint %016x", ts.Name(), ts.Fingerprint())
	})
	if err := installSchemas(registry, schemaFile); err != nil {
		logger.Errorf("install schemas: %s", jerrors.ErrorStack(err))
		os.Exit(1)
	}

	switch {
	case demoRows > 0:
		err = writeDemo(config, registry, demoRows, outFile)
	case blockFile != "":
		err = dumpBlock(config, registry, blockFile)
	default:
		flag.Usage()
		return
	}
	if err != nil {
		logger.Errorf("%s", jerrors.ErrorStack(err))
		os.Exit(1)
	}
}

func demoTable() (*metadata.TableSchema, error) {
	return metadata.NewTableBuilder(7, "account").
		AddColumn("id", metadata.TypeInt).
		AddColumn("name", metadata.TypeVarchar, metadata.WithLength(32)).
		AddColumn("balance", metadata.TypeDecimal, metadata.WithDecimal(10, 2)).
		AddPrimaryKey("id").
		Build()
}

func installSchemas(registry *metadata.Registry, schemaFile string) error {
	var tables []*metadata.TableSchema
	if schemaFile != "" {
		loaded, err := metadata.LoadSchemaFile(schemaFile)
		if err != nil {
			return jerrors.Trace(err)
		}
		tables = loaded
	} else {
		ts, err := demoTable()
		if err != nil {
			return jerrors.Trace(err)
		}
		tables = append(tables, ts)
	}
	for _, ts := range tables {
		if _, err := registry.Install(ts); err != nil {
			return jerrors.Trace(err)
		}
	}
	return nil
}

// writeDemo fills the first registered table with generated rows, every
// fifth field null.
func writeDemo(config *conf.Cfg, registry *metadata.Registry, rows int, outFile string) error {
	tables := registry.Tables()
	if len(tables) == 0 {
		return jerrors.New("no table to fill")
	}
	table := tables[0]
	batch := rowbatch.NewBatch(table, config.InitialBufferSize, config.GrowthPolicy())
	for i := 0; i < rows; i++ {
		values := make([]interface{}, table.FieldCount())
		for f := range values {
			if (i+f)%5 == 4 {
				continue
			}
			values[f] = demoValue(table.Field(f), i)
		}
		if err := batch.AppendNative(values...); err != nil {
			return jerrors.Trace(err)
		}
	}
	block, err := batch.Seal(config.BatchCompression)
	if err != nil {
		return jerrors.Trace(err)
	}
	if err := ioutil.WriteFile(outFile, block, 0644); err != nil {
		return jerrors.Trace(err)
	}
	logger.Infof("%d rows of %s, %d bytes sealed into %d bytes at %s", batch.Count(), table.Name(), batch.Size(), len(block), outFile)
	return nil
}

func demoValue(f *metadata.FieldSchema, i int) interface{} {
	switch f.Type() {
	case metadata.TypeFloat, metadata.TypeDouble:
		return float64(i) / 4
	case metadata.TypeDecimal:
		unscaled := int64(i) * 101
		if f.Precision() < 18 {
			unscaled %= int64(math.Pow10(f.Precision()))
		}
		return decimal.New(unscaled, -int32(f.Scale()))
	case metadata.TypeVarchar:
		s := fmt.Sprintf("%s-%d", f.Name(), i)
		if runes := []rune(s); len(runes) > f.MaxLength() {
			s = string(runes[:f.MaxLength()])
		}
		return s
	case metadata.TypeVarBinary:
		n := i % (f.MaxLength() + 1)
		b := make([]byte, n)
		for k := range b {
			b[k] = byte(i + k)
		}
		return b
	}
	w, _ := f.FixedWidth()
	return int64(i) % (int64(1) << uint(8*w-1))
}

func dumpBlock(config *conf.Cfg, registry *metadata.Registry, blockFile string) error {
	block, err := ioutil.ReadFile(blockFile)
	if err != nil {
		return jerrors.Trace(err)
	}
	batch, err := rowbatch.Open(registry, block, config.GrowthPolicy())
	if err != nil {
		return jerrors.Trace(err)
	}
	fmt.Printf("%s: %d rows of table %s, %d bytes\n", blockFile, batch.Count(), batch.Table().Name(), batch.Size())
	return batch.Scan(func(rb *record.RowBuffer) error {
		fmt.Print(accessor.Explain(batch.Table(), rb))
		return nil
	})
}
