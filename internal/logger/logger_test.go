package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ProdWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, false, "")

	log.Debug("hidden")
	log.Info("upload stored", "user_id", 7)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "upload stored", rec["msg"])
	assert.Equal(t, float64(7), rec["user_id"])
}

func TestNewLogger_DevWritesTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, true, "")

	log.Debug("quota check", "used", 10)

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "used=10")
}
