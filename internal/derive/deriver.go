// Package derive turns classified agent events into metric records.
package derive

import (
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

// PathMatcher resolves an observed path to the configured watched path.
type PathMatcher interface {
	MatchLongestPrefix(observed string) (string, bool)
}

// Deriver produces metric records for classified events.
type Deriver struct {
	namespace string
}

// NewDeriver creates a deriver publishing under namespace. An empty
// namespace falls back to model.DefaultNamespace.
func NewDeriver(namespace string) *Deriver {
	if namespace == "" {
		namespace = model.DefaultNamespace
	}
	return &Deriver{namespace: namespace}
}

// Namespace returns the metric namespace of derived records.
func (d *Deriver) Namespace() string {
	return d.namespace
}

// Derive returns the records for ev. Kinds without a derived metric
// return nil. matcher may be nil, in which case no path dimension is added
// to upload latency records.
func (d *Deriver) Derive(id model.AgentIdentity, matcher PathMatcher, ev model.DomainEvent) []model.MetricRecord {
	switch e := ev.(type) {
	case *model.ScanCompleted:
		return []model.MetricRecord{d.scanDuration(id, e)}
	case *model.FileUploadCompleted:
		return []model.MetricRecord{d.uploadLatency(id, matcher, e)}
	default:
		return nil
	}
}

func (d *Deriver) scanDuration(id model.AgentIdentity, e *model.ScanCompleted) model.MetricRecord {
	return model.MetricRecord{
		Namespace: d.namespace,
		Name:      model.MetricPerPathScanDuration,
		Value:     ParseDurationMillis(e.Duration),
		Unit:      model.UnitMilliseconds,
		Dimensions: []model.Dimension{
			{Name: model.DimensionOrgSlug, Value: id.OrgSlug},
			{Name: model.DimensionAgentID, Value: id.AgentID},
			{Name: model.DimensionPath, Value: e.Path},
		},
	}
}

func (d *Deriver) uploadLatency(id model.AgentIdentity, matcher PathMatcher, e *model.FileUploadCompleted) model.MetricRecord {
	agentID := e.ComponentID
	if agentID == "" {
		agentID = id.AgentID
	}

	dims := []model.Dimension{
		{Name: model.DimensionOrgSlug, Value: id.OrgSlug},
		{Name: model.DimensionAgentID, Value: agentID},
	}
	if matcher != nil {
		if watched, ok := matcher.MatchLongestPrefix(e.ObservedPath()); ok {
			dims = append(dims, model.Dimension{Name: model.DimensionPath, Value: watched})
		}
	}

	return model.MetricRecord{
		Namespace:  d.namespace,
		Name:       model.MetricFileUploadLatency,
		Value:      UploadLatencySeconds(e),
		Unit:       model.UnitSeconds,
		Dimensions: dims,
	}
}

// UploadLatencySeconds is the time from the later of the file's last
// modification and creation to the upload event. Clock skew can make it
// negative; it is not clamped.
func UploadLatencySeconds(e *model.FileUploadCompleted) float64 {
	lastModified := ParseTimestampMillis(e.FileLastModifiedDate)
	created := ParseTimestampMillis(e.FileCreateDate)

	start := lastModified
	if lastModified < created {
		start = created
	}
	return (ParseTimestampMillis(e.Timestamp) - start) / 1000
}
