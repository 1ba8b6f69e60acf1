package processor_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetrascience/ts-agent-monitoring/internal/compression"
	"github.com/tetrascience/ts-agent-monitoring/internal/processor"
	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

const cloudWatchDoc = `{
  "messageType": "DATA_MESSAGE",
  "owner": "123456789012",
  "logGroup": "/agents/acme/agent-9",
  "logStream": "file-watcher",
  "subscriptionFilters": ["agent-monitoring"],
  "logEvents": [
    {"id": "1", "timestamp": 1700000000000, "message": "{\"event\":null}"},
    {"id": "2", "timestamp": 1700000000001, "message": "hello"}
  ]
}`

func encode(t *testing.T, raw string) string {
	t.Helper()
	data, err := compression.NewCompressor(compression.LevelDefault).EncodePayload([]byte(raw))
	require.NoError(t, err)
	return data
}

func TestDecodeBatch(t *testing.T) {
	batch, err := processor.DecodeBatch(encode(t, cloudWatchDoc))
	require.NoError(t, err)

	assert.Equal(t, "/agents/acme/agent-9", batch.Source)
	assert.Equal(t, "file-watcher", batch.Stream)
	assert.Equal(t, "DATA_MESSAGE", batch.MessageType)
	require.Len(t, batch.Lines, 2)
	assert.Equal(t, model.LogLine{ID: "2", Timestamp: 1700000000001, Message: "hello"}, batch.Lines[1])
	assert.Equal(t, model.AgentIdentity{OrgSlug: "acme", AgentID: "agent-9"}, batch.Identity())
}

func TestDecodeBatch_Errors(t *testing.T) {
	tests := map[string]string{
		"not base64": "@@@",
		"not gzip":   base64.StdEncoding.EncodeToString([]byte("plain")),
		"not json":   encode(t, "{broken"),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := processor.DecodeBatch(data)
			assert.ErrorIs(t, err, errclass.ErrDecode)
		})
	}
}

func TestEncodeBatch_RoundTrip(t *testing.T) {
	in := &model.LogBatch{
		Source: "/agents/acme/agent-1",
		Lines: []model.LogLine{
			{ID: "x", Timestamp: 5, Message: `{"event":{"type":"agents.common.heartbeat.v1"}}`},
		},
	}
	data, err := processor.EncodeBatch(in, compression.NewCompressor(compression.LevelNone))
	require.NoError(t, err)

	out, err := processor.DecodeBatch(data)
	require.NoError(t, err)
	assert.Equal(t, in.Source, out.Source)
	assert.Equal(t, "DATA_MESSAGE", out.MessageType)
	assert.Equal(t, in.Lines, out.Lines)
}
