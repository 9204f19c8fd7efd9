package conf

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"github.com/zhukovaskychina/xmysql-rowstore/logger"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/rowbatch"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/tuple"
)

type CommandLineArgs struct {
	ConfigPath string
}

/*
*
[log]
log_error           = /var/log/rowstore/error.log
log_infos           = /var/log/rowstore/rowstore.log
log_level           = info

[rowstore]
initial_buffer_size = 256
auto_grow           = true
max_buffer_size     = 16777216
batch_compression   = snappy
schema_file         = conf/schema.toml
*/
type Cfg struct {
	Raw *ini.File
	// ConfigFile is the file the values came from, empty for defaults
	ConfigFile string

	// logs
	LogError string `default:"" yaml:"log_error" json:"log_error,omitempty"`
	LogInfos string `default:"" yaml:"log_infos" json:"log_infos,omitempty"`
	LogLevel string `default:"info" yaml:"log_level" json:"log_level,omitempty"`

	// rowstore
	InitialBufferSize int                   `default:"256" yaml:"initial_buffer_size" json:"initial_buffer_size,omitempty"`
	AutoGrow          bool                  `default:"true" yaml:"auto_grow" json:"auto_grow,omitempty"`
	MaxBufferSize     int                   `default:"16777216" yaml:"max_buffer_size" json:"max_buffer_size,omitempty"`
	BatchCompression  rowbatch.CompressType `default:"snappy" yaml:"batch_compression" json:"batch_compression,omitempty"`
	SchemaFile        string                `default:"" yaml:"schema_file" json:"schema_file,omitempty"`
}

func NewCfg() *Cfg {
	return &Cfg{
		Raw:               ini.Empty(),
		LogLevel:          "info",
		InitialBufferSize: tuple.DefaultInitialBufferSize,
		AutoGrow:          true,
		MaxBufferSize:     tuple.DefaultMaxBufferSize,
		BatchCompression:  rowbatch.CompressSnappy,
	}
}

// Load reads the ini file named by args, or conf/rowstore.ini. A missing
// file leaves the defaults in place.
func (cfg *Cfg) Load(args *CommandLineArgs) (*Cfg, error) {
	iniFile, err := cfg.loadConfiguration(args)
	if err != nil {
		return nil, err
	}
	return cfg.apply(iniFile)
}

// LoadFromBytes parses ini content directly.
func (cfg *Cfg) LoadFromBytes(content []byte) (*Cfg, error) {
	iniFile, err := ini.Load(content)
	if err != nil {
		return nil, errors.Wrap(err, "parse configuration")
	}
	return cfg.apply(iniFile)
}

func (cfg *Cfg) apply(iniFile *ini.File) (*Cfg, error) {
	cfg.Raw = iniFile
	cfg.parseLogsCfg(cfg.Raw.Section("log"))
	if err := cfg.parseRowstoreCfg(cfg.Raw.Section("rowstore")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Cfg) loadConfiguration(args *CommandLineArgs) (*ini.File, error) {
	configFile := "conf/rowstore.ini"
	if args.ConfigPath != "" {
		configFile = args.ConfigPath
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		logger.Debugf("配置文件不存在: %s，使用默认配置", configFile)
		return ini.Empty(), nil
	}

	parsedFile, err := ini.Load(configFile)
	if err != nil {
		return nil, errors.Wrapf(err, "parse configuration %s", configFile)
	}
	cfg.ConfigFile, _ = filepath.Abs(configFile)
	logger.Debugf("成功加载配置文件: %s", configFile)
	return parsedFile, nil
}

func valueAsString(section *ini.Section, keyName string, defaultValue string) string {
	if section == nil {
		return defaultValue
	}
	value := section.Key(keyName).MustString(defaultValue)
	if value == "" {
		value = defaultValue
	}
	return value
}

func (cfg *Cfg) parseLogsCfg(section *ini.Section) {
	cfg.LogError = valueAsString(section, "log_error", cfg.LogError)
	cfg.LogInfos = valueAsString(section, "log_infos", cfg.LogInfos)

	level := strings.ToLower(valueAsString(section, "log_level", cfg.LogLevel))
	// 验证日志级别是否有效
	switch level {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		logger.Warnf("警告: 无效的日志级别 '%s', 使用默认级别 'info'", level)
		level = "info"
	}
	cfg.LogLevel = level
}

func (cfg *Cfg) parseRowstoreCfg(section *ini.Section) error {
	cfg.InitialBufferSize = section.Key("initial_buffer_size").MustInt(cfg.InitialBufferSize)
	cfg.AutoGrow = section.Key("auto_grow").MustBool(cfg.AutoGrow)
	cfg.MaxBufferSize = section.Key("max_buffer_size").MustInt(cfg.MaxBufferSize)
	cfg.SchemaFile = valueAsString(section, "schema_file", cfg.SchemaFile)

	if cfg.InitialBufferSize <= 0 {
		return errors.Errorf("initial_buffer_size must be positive, got %d", cfg.InitialBufferSize)
	}
	if cfg.MaxBufferSize < cfg.InitialBufferSize {
		return errors.Errorf("max_buffer_size %d is below initial_buffer_size %d", cfg.MaxBufferSize, cfg.InitialBufferSize)
	}

	compression, err := rowbatch.ParseCompressType(valueAsString(section, "batch_compression", cfg.BatchCompression.String()))
	if err != nil {
		return errors.WithMessage(err, "batch_compression")
	}
	cfg.BatchCompression = compression
	return nil
}

// GrowthPolicy is the row buffer growth policy configured in [rowstore].
func (cfg *Cfg) GrowthPolicy() tuple.GrowthPolicy {
	return tuple.GrowthPolicy{AutoGrow: cfg.AutoGrow, MaxSize: cfg.MaxBufferSize}
}

// LogConfig is the logger configuration from [log].
func (cfg *Cfg) LogConfig() logger.LogConfig {
	return logger.LogConfig{
		LogLevel:     cfg.LogLevel,
		InfoLogPath:  cfg.LogInfos,
		ErrorLogPath: cfg.LogError,
	}
}
