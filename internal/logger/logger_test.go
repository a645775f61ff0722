package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("quizhub", "debug", &buf)

	log.WithRequestID("req-1").Info("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "quizhub", line["service"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Contains(t, line, "timestamp")
}

func TestLoggerLevelFallback(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, New("quizhub", "nonsense").GetLevel())
	assert.Equal(t, logrus.WarnLevel, New("quizhub", "warn").GetLevel())
}
