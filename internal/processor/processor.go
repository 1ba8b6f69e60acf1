// Package processor runs the per-batch pipeline: refresh the agent's
// watched-path trie, classify every line, derive metrics and publish them.
package processor

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/tetrascience/ts-agent-monitoring/internal/derive"
	"github.com/tetrascience/ts-agent-monitoring/internal/event"
	"github.com/tetrascience/ts-agent-monitoring/internal/pathtrie"
	"github.com/tetrascience/ts-agent-monitoring/internal/sink"
	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
	"github.com/tetrascience/ts-agent-monitoring/pkg/logging"
	"github.com/tetrascience/ts-agent-monitoring/pkg/metrics"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

// TrieSource returns the current watched-path trie of an agent.
// *configcache.Cache implements it.
type TrieSource interface {
	GetTrie(ctx context.Context, id model.AgentIdentity) (*pathtrie.Trie, error)
}

// Result summarizes one processed batch.
type Result struct {
	BatchID   string              `json:"batch_id"`
	Identity  model.AgentIdentity `json:"identity"`
	Lines     int                 `json:"lines"`
	Events    int                 `json:"events"`
	Skipped   int                 `json:"skipped"`
	Published int                 `json:"published"`
	Records   int                 `json:"records"`
}

// Processor processes log batches. It holds no per-batch state and may be
// shared by concurrent callers.
type Processor struct {
	tries   TrieSource
	deriver *derive.Deriver
	sink    sink.Sink
	metrics *metrics.Registry
	logger  *logging.Logger
	newID   func() string
}

// Option configures a Processor.
type Option func(*Processor)

// WithNamespace sets the metric namespace of derived records.
func WithNamespace(ns string) Option {
	return func(p *Processor) { p.deriver = derive.NewDeriver(ns) }
}

// WithMetrics records batch statistics in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(p *Processor) { p.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithIDGenerator overrides batch id generation.
func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) { p.newID = fn }
}

// New creates a processor reading tries from tries and publishing to s.
func New(tries TrieSource, s sink.Sink, opts ...Option) *Processor {
	p := &Processor{
		tries:   tries,
		deriver: derive.NewDeriver(""),
		sink:    s,
		metrics: metrics.NewRegistry(),
		logger:  logging.Global(),
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HandleEvent processes a CloudWatch Logs subscription event. It has the
// signature expected by the Lambda runtime.
func (p *Processor) HandleEvent(ctx context.Context, ev events.CloudwatchLogsEvent) error {
	_, err := p.HandleEncoded(ctx, ev.AWSLogs.Data)
	return err
}

// HandleEncoded decodes and processes one encoded batch.
func (p *Processor) HandleEncoded(ctx context.Context, data string) (*Result, error) {
	start := time.Now()
	batch, err := DecodeBatch(data)
	if err != nil {
		p.metrics.RecordBatch(metrics.OutcomeDecodeError, time.Since(start))
		p.logger.ErrorErr("batch decode failed", err)
		return nil, err
	}
	return p.Process(ctx, batch)
}

// Process runs the pipeline over a decoded batch. The configuration is
// refreshed once, before the first line. A line that cannot be parsed is
// skipped; a failed configuration refresh or publish aborts the batch.
// Groups published before a failure stay published.
func (p *Processor) Process(ctx context.Context, batch *model.LogBatch) (*Result, error) {
	start := time.Now()
	res := &Result{
		BatchID:  p.newID(),
		Identity: batch.Identity(),
		Lines:    len(batch.Lines),
	}
	log := p.logger.WithFields(map[string]any{
		"batch_id": res.BatchID,
		"org_slug": res.Identity.OrgSlug,
		"agent_id": res.Identity.AgentID,
	})

	if len(batch.Lines) == 0 {
		log.Debug("empty batch")
		p.metrics.RecordBatch(metrics.OutcomeEmpty, time.Since(start))
		return res, nil
	}

	trie, err := p.tries.GetTrie(ctx, res.Identity)
	if err != nil {
		log.ErrorErr("configuration refresh failed", err)
		p.metrics.RecordBatch(metrics.OutcomeConfigUnavailable, time.Since(start))
		return res, err
	}

	for _, line := range batch.Lines {
		ev, err := event.Classify(line.Message)
		if err != nil {
			if !errors.Is(err, errclass.ErrLineParse) {
				return res, err
			}
			res.Skipped++
			p.metrics.RecordLine(metrics.LineSkipped)
			log.Warn("skipping unparsable line", map[string]any{"line_id": line.ID, "error": err.Error()})
			continue
		}
		if ev == nil {
			p.metrics.RecordLine(metrics.LineNoEvent)
			continue
		}

		res.Events++
		p.metrics.RecordLine(metrics.LineClassified)
		p.metrics.RecordEvent(string(ev.Kind()))

		records := p.deriver.Derive(res.Identity, trie, ev)
		if len(records) == 0 {
			continue
		}
		group := model.MetricGroup{
			Namespace: p.deriver.Namespace(),
			EventKind: ev.Kind(),
			Records:   records,
		}
		if err := p.publish(ctx, group); err != nil {
			err = errclass.ErrPublishFailed.WithMessagef("line %s", line.ID).WithCause(err)
			log.ErrorErr("publish failed", err, map[string]any{"published": res.Published})
			p.metrics.RecordBatch(metrics.OutcomePublishFailed, time.Since(start))
			return res, err
		}
		res.Published++
		res.Records += len(records)
	}

	p.metrics.RecordBatch(metrics.OutcomeOK, time.Since(start))
	log.Info("batch processed", map[string]any{
		"lines":     res.Lines,
		"events":    res.Events,
		"skipped":   res.Skipped,
		"published": res.Published,
	})
	return res, nil
}

func (p *Processor) publish(ctx context.Context, group model.MetricGroup) error {
	start := time.Now()
	if err := p.sink.Publish(ctx, group); err != nil {
		return err
	}
	names := make([]string, 0, len(group.Records))
	for _, r := range group.Records {
		names = append(names, r.Name)
	}
	p.metrics.RecordPublish(names, time.Since(start))
	return nil
}
