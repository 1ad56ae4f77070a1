package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFromContextAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "debug")

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithConversationID(ctx, "conv-9")
	LoggerFromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "conv-9", line["conversation_id"])
	assert.Equal(t, "noto", line["service"])
}

func TestInitRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "warn")

	Logger().Info("dropped")
	assert.Zero(t, buf.Len())

	Logger().Warn("kept")
	assert.NotZero(t, buf.Len())
}
