package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("nonsense"))
}

func TestFormatter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug")
	defer func() { Logger, InfoLogger, ErrorLogger = nil, nil, nil }()

	Infof("row %d ok", 7)
	Debugf("table %s", "account")
	Warnf("careful\n")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "row 7 ok")
	assert.Contains(t, out, "[DEBU]")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "logger_test.go")
	assert.NotContains(t, out, "careful\n\n")
}

func TestNilSafe(t *testing.T) {
	Logger, InfoLogger, ErrorLogger = nil, nil, nil
	Infof("dropped")
	Errorf("dropped")
	Info("dropped")
	Error("dropped")
	assert.Nil(t, WithFields(logrus.Fields{"a": 1}))
}
