package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		source string
		want   model.AgentIdentity
	}{
		{"/agents/tetrascience/55953bf0-acb6-4a45-beb6-cb30b33d4941", model.AgentIdentity{OrgSlug: "tetrascience", AgentID: "55953bf0-acb6-4a45-beb6-cb30b33d4941"}},
		{"/agents/acme/a1/extra", model.AgentIdentity{OrgSlug: "acme", AgentID: "a1"}},
		{"/agents/acme", model.AgentIdentity{OrgSlug: "acme"}},
		{"/agents", model.AgentIdentity{}},
		{"", model.AgentIdentity{}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, model.ParseSource(tt.source))
		})
	}
}

func TestLogBatch_Identity(t *testing.T) {
	id := model.AgentIdentity{OrgSlug: "acme", AgentID: "a1"}
	batch := &model.LogBatch{Source: model.SourceFor(id)}
	assert.Equal(t, "/agents/acme/a1", batch.Source)
	assert.Equal(t, id, batch.Identity())
}

func TestMetricRecord_Dimension(t *testing.T) {
	rec := model.MetricRecord{Dimensions: []model.Dimension{
		{Name: model.DimensionOrgSlug, Value: "acme"},
		{Name: model.DimensionPath, Value: `c:\data\`},
	}}
	v, ok := rec.Dimension(model.DimensionPath)
	assert.True(t, ok)
	assert.Equal(t, `c:\data\`, v)

	_, ok = rec.Dimension(model.DimensionAgentID)
	assert.False(t, ok)
}

func TestIsCounted(t *testing.T) {
	assert.True(t, model.IsCounted(model.KindHeartbeat))
	assert.True(t, model.IsCounted(model.KindArchiveFileDeleteFailed))
	assert.False(t, model.IsCounted(model.KindScanCompleted))
	assert.False(t, model.IsCounted("agents.other.v1"))
}
