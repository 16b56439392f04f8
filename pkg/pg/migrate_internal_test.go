package pg

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

func TestGooseLogger(t *testing.T) {
	var buf bytes.Buffer
	l := gooseLogger{log: logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatJSON))}

	l.Printf("OK   %s (%s)", "00001_users.sql", "1ms")
	l.Fatalf("goose run: %v", "boom")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "OK   00001_users.sql (1ms)", rec["msg"])
	assert.Equal(t, "migrate", rec["component"])

	require.NoError(t, json.Unmarshal(lines[1], &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "goose run: boom", rec["msg"])
	assert.Equal(t, "migrate", rec["component"])
}
