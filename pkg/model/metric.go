package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// DefaultNamespace is the metric namespace agent metrics are published under.
const DefaultNamespace = "AgentMonitoring"

// Unit is the unit of a metric value.
type Unit string

const (
	UnitMilliseconds Unit = "Milliseconds"
	UnitSeconds      Unit = "Seconds"
)

// Metric names derived by the engine.
const (
	MetricPerPathScanDuration = "PerPathScanDurationInMs"
	MetricFileUploadLatency   = "FileUploadLatencyInSeconds"
)

// Dimension names.
const (
	DimensionOrgSlug = "orgSlug"
	DimensionAgentID = "agentId"
	DimensionPath    = "path"
)

// Dimension is one named label of a metric record.
type Dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MetricRecord is a single derived data point.
type MetricRecord struct {
	Namespace  string      `json:"namespace"`
	Name       string      `json:"name"`
	Value      float64     `json:"value"`
	Unit       Unit        `json:"unit"`
	Dimensions []Dimension `json:"dimensions"`
}

// Dimension returns the value of the named dimension.
func (r MetricRecord) Dimension(name string) (string, bool) {
	for _, d := range r.Dimensions {
		if d.Name == name {
			return d.Value, true
		}
	}
	return "", false
}

// MarshalJSON encodes a non-finite Value as the string "NaN", "+Inf" or
// "-Inf". A malformed duration or timestamp still yields a record.
func (r MetricRecord) MarshalJSON() ([]byte, error) {
	type plain MetricRecord
	if !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0) {
		return json.Marshal(plain(r))
	}
	return json.Marshal(struct {
		plain
		Value string `json:"value"`
	}{plain(r), formatNonFinite(r.Value)})
}

// UnmarshalJSON accepts a numeric value or one of the strings written by
// MarshalJSON.
func (r *MetricRecord) UnmarshalJSON(data []byte) error {
	type plain MetricRecord
	aux := struct {
		*plain
		Value json.RawMessage `json:"value"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Value) == 0 || string(aux.Value) == "null" {
		r.Value = 0
		return nil
	}
	if aux.Value[0] != '"' {
		return json.Unmarshal(aux.Value, &r.Value)
	}
	var s string
	if err := json.Unmarshal(aux.Value, &s); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("metric value %q: %w", s, err)
	}
	r.Value = v
	return nil
}

func formatNonFinite(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	default:
		return "NaN"
	}
}

// MetricGroup holds the records derived from one domain event.
// A sink receives exactly one group per publish call.
type MetricGroup struct {
	Namespace string         `json:"namespace"`
	EventKind EventKind      `json:"event_kind"`
	Records   []MetricRecord `json:"records"`
}
