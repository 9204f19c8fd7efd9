package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// Logger 调试与警告日志
	Logger *logrus.Logger
	// InfoLogger 信息日志
	InfoLogger *logrus.Logger
	// ErrorLogger 错误日志
	ErrorLogger *logrus.Logger
)

// LogConfig 日志配置
type LogConfig struct {
	ErrorLogPath string
	InfoLogPath  string
	LogLevel     string
}

// CustomFormatter prints "[time] [LEVL] (file:func:line) message".
type CustomFormatter struct {
	TimestampFormat string
}

// Format 实现 logrus.Formatter 接口
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] [%s] (%s) %s", entry.Time.Format(f.TimestampFormat), level, getCaller(), strings.TrimRight(entry.Message, "\n"))
	for k, v := range entry.Data {
		fmt.Fprintf(&sb, " %s=%v", k, v)
	}
	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}

// getCaller skips logrus and this package to find the real call site.
func getCaller() string {
	for i := 2; i < 20; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(file, "sirupsen/logrus") || strings.HasSuffix(file, "/logger/logger.go") {
			continue
		}
		return fmt.Sprintf("%s:%s:%d", filepath.Base(file), runtime.FuncForPC(pc).Name(), line)
	}
	return "unknown:unknown:0"
}

// ParseLogLevel 解析日志级别字符串, unknown names mean info.
func ParseLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// InitLogger 初始化日志. Empty paths log to stdout/stderr only.
func InitLogger(config LogConfig) error {
	formatter := &CustomFormatter{TimestampFormat: "15:04:05 MST 2006/01/02"}
	level := ParseLogLevel(config.LogLevel)

	newLogger := func(out io.Writer) *logrus.Logger {
		l := logrus.New()
		l.SetFormatter(formatter)
		l.SetLevel(level)
		l.SetOutput(out)
		return l
	}

	infoOut, err := openOutput(config.InfoLogPath, os.Stdout)
	if err != nil {
		return err
	}
	errorOut, err := openOutput(config.ErrorLogPath, os.Stderr)
	if err != nil {
		return err
	}
	InfoLogger = newLogger(infoOut)
	ErrorLogger = newLogger(errorOut)
	Logger = newLogger(infoOut)
	return nil
}

// InitWriter sends every logger to w, for tests and tools.
func InitWriter(w io.Writer, level string) {
	formatter := &CustomFormatter{TimestampFormat: "15:04:05 MST 2006/01/02"}
	for _, l := range []**logrus.Logger{&Logger, &InfoLogger, &ErrorLogger} {
		*l = logrus.New()
		(*l).SetFormatter(formatter)
		(*l).SetLevel(ParseLogLevel(level))
		(*l).SetOutput(w)
	}
}

func openOutput(path string, console io.Writer) (io.Writer, error) {
	if path == "" {
		return console, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return io.MultiWriter(console, f), nil
}

// Info 记录信息日志
func Info(args ...interface{}) {
	if InfoLogger != nil {
		InfoLogger.Info(args...)
	}
}

// Infof 记录格式化信息日志
func Infof(format string, args ...interface{}) {
	if InfoLogger != nil {
		InfoLogger.Infof(format, args...)
	}
}

// Debugf 记录格式化调试日志
func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}

// Warnf 记录格式化警告日志
func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

// Error 记录错误日志
func Error(args ...interface{}) {
	if ErrorLogger != nil {
		ErrorLogger.Error(args...)
	}
}

// Errorf 记录格式化错误日志
func Errorf(format string, args ...interface{}) {
	if ErrorLogger != nil {
		ErrorLogger.Errorf(format, args...)
	}
}

// WithFields returns an entry on the debug logger, or nil before
// initialisation.
func WithFields(fields logrus.Fields) *logrus.Entry {
	if Logger == nil {
		return nil
	}
	return Logger.WithFields(fields)
}
