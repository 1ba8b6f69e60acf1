package processor_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetrascience/ts-agent-monitoring/internal/configcache"
	"github.com/tetrascience/ts-agent-monitoring/internal/processor"
	"github.com/tetrascience/ts-agent-monitoring/internal/sink"
	"github.com/tetrascience/ts-agent-monitoring/pkg/metrics"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

func TestProcess_EmptyTimestampsReachWriterSink(t *testing.T) {
	var buf bytes.Buffer
	reg := metrics.NewRegistry()
	cache := configcache.New(&countingFetcher{paths: []string{`c:\test1\`}}, configcache.WithMetrics(reg))
	proc := processor.New(cache, sink.NewWriterSink(&buf), processor.WithMetrics(reg))

	upload, err := json.Marshal(map[string]any{"event": map[string]any{
		"type":      string(model.KindFileUploadCompleted),
		"timestamp": "",
		"component": map[string]any{"id": agentID, "type": "agent"},
		"data": map[string]any{
			"osFilePath":           `c:\test1\test.txt`,
			"fileLastModifiedDate": "",
			"fileCreateDate":       "",
		},
	}})
	require.NoError(t, err)
	scan := eventLine(t, model.KindScanCompleted, "", map[string]any{
		"duration": "00:00:01.5",
		"path":     `c:\test1`,
	})

	res, err := proc.Process(context.Background(), batchOf(string(upload), scan))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Published)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"value":"NaN"`)

	var groups [2]model.MetricGroup
	for i, l := range lines {
		require.NoError(t, json.Unmarshal([]byte(l), &groups[i]))
	}
	require.Len(t, groups[0].Records, 1)
	assert.True(t, math.IsNaN(groups[0].Records[0].Value))
	path, ok := groups[0].Records[0].Dimension(model.DimensionPath)
	assert.True(t, ok)
	assert.Equal(t, `c:\test1\`, path)
	assert.Equal(t, 1500.0, groups[1].Records[0].Value)
}
