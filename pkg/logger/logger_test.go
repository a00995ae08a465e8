package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Info("hidden")
	log.WithField("post_id", "p1").Warn("shown")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "p1", line["post_id"])
	assert.Equal(t, "warning", line["level"])
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	log := New(&bytes.Buffer{}, "loud")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
