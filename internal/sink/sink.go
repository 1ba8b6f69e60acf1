// Package sink delivers derived metric groups to a time-series backend.
package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

// Sink publishes the records derived from one event. Implementations must
// be safe for concurrent use.
type Sink interface {
	Publish(ctx context.Context, group model.MetricGroup) error
}

// Recorder keeps published groups in memory.
type Recorder struct {
	mu     sync.Mutex
	groups []model.MetricGroup
	err    error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent Publish calls return err without recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Publish records group.
func (r *Recorder) Publish(_ context.Context, group model.MetricGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.groups = append(r.groups, group)
	return nil
}

// Groups returns a copy of the published groups in order.
func (r *Recorder) Groups() []model.MetricGroup {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.MetricGroup, len(r.groups))
	copy(out, r.groups)
	return out
}

// Records returns every published record, flattened in order.
func (r *Recorder) Records() []model.MetricRecord {
	var out []model.MetricRecord
	for _, g := range r.Groups() {
		out = append(out, g.Records...)
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = nil
}

// WriterSink writes each group as one JSON line.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

// Publish implements Sink.
func (s *WriterSink) Publish(_ context.Context, group model.MetricGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(group)
}
