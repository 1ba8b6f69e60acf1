package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

func TestMetricRecord_JSONNonFinite(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{math.NaN(), `"NaN"`},
		{math.Inf(1), `"+Inf"`},
		{math.Inf(-1), `"-Inf"`},
		{1.5, `1.5`},
	}
	for _, tt := range tests {
		rec := model.MetricRecord{Namespace: "NS", Name: "m", Value: tt.value, Unit: model.UnitSeconds}
		data, err := json.Marshal(rec)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"value":`+tt.want)
		assert.Contains(t, string(data), `"name":"m"`)

		var back model.MetricRecord
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, rec.Name, back.Name)
		if math.IsNaN(tt.value) {
			assert.True(t, math.IsNaN(back.Value))
		} else {
			assert.Equal(t, tt.value, back.Value)
		}
	}
}

func TestMetricGroup_MarshalWithNaN(t *testing.T) {
	group := model.MetricGroup{
		Namespace: model.DefaultNamespace,
		EventKind: model.KindFileUploadCompleted,
		Records: []model.MetricRecord{{
			Name:       model.MetricFileUploadLatency,
			Value:      math.NaN(),
			Unit:       model.UnitSeconds,
			Dimensions: []model.Dimension{{Name: model.DimensionOrgSlug, Value: "acme"}},
		}},
	}
	data, err := json.Marshal(group)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":"NaN"`)
	assert.Contains(t, string(data), `"dimensions":[{"name":"orgSlug","value":"acme"}]`)
}

func TestMetricRecord_UnmarshalBadValue(t *testing.T) {
	var rec model.MetricRecord
	assert.Error(t, json.Unmarshal([]byte(`{"value":"fast"}`), &rec))
}
