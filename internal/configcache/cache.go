// Package configcache keeps one watched-path trie per agent and rebuilds it
// only when the agent's configuration fingerprint changes.
package configcache

import (
	"context"
	"sync"
	"time"

	"github.com/tetrascience/ts-agent-monitoring/internal/integrity"
	"github.com/tetrascience/ts-agent-monitoring/internal/pathtrie"
	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
	"github.com/tetrascience/ts-agent-monitoring/pkg/logging"
	"github.com/tetrascience/ts-agent-monitoring/pkg/metrics"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

// Fetcher retrieves the current configuration of an agent.
type Fetcher interface {
	FetchConfiguration(ctx context.Context, id model.AgentIdentity) (*model.AgentConfiguration, error)
}

// Entry is the cached state for one agent. Entries are replaced, never
// mutated, so a trie handed out by GetTrie stays valid after a rebuild.
type Entry struct {
	Fingerprint model.HashValue
	Trie        *pathtrie.Trie
	BuiltAt     time.Time
}

// Cache maps agent ids to entries. It is safe for concurrent use; writers
// only contend on the key of the agent they refresh.
type Cache struct {
	fetcher Fetcher
	entries sync.Map // agentID -> *Entry
	metrics *metrics.Registry
	logger  *logging.Logger
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics records fetches and rebuilds in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Cache) { c.metrics = r }
}

// WithLogger sets the logger used for rebuild messages.
func WithLogger(l *logging.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithClock overrides the clock used for Entry.BuiltAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache backed by fetcher.
func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		logger:  logging.Global(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTrie fetches the agent's configuration and returns the trie for it.
// The configuration is fetched on every call; the trie is rebuilt only when
// the fingerprint differs from the cached one.
func (c *Cache) GetTrie(ctx context.Context, id model.AgentIdentity) (*pathtrie.Trie, error) {
	cfg, err := c.fetcher.FetchConfiguration(ctx, id)
	c.recordFetch(err == nil)
	if err != nil {
		return nil, unavailable(id, err)
	}

	fp, err := integrity.ComputeConfigFingerprint(cfg)
	if err != nil {
		return nil, unavailable(id, err)
	}

	var fresh *Entry
	for {
		cur, loaded := c.entries.Load(id.AgentID)
		if loaded && cur.(*Entry).Fingerprint == fp {
			return cur.(*Entry).Trie, nil
		}

		if fresh == nil {
			fresh = &Entry{
				Fingerprint: fp,
				Trie:        pathtrie.Build(cfg.WatchedPaths()),
				BuiltAt:     c.now(),
			}
		}

		var stored bool
		if loaded {
			stored = c.entries.CompareAndSwap(id.AgentID, cur, fresh)
		} else {
			_, lost := c.entries.LoadOrStore(id.AgentID, fresh)
			stored = !lost
		}
		if stored {
			c.rebuilt(id, fresh, loaded)
			return fresh.Trie, nil
		}
		// Another batch replaced the entry first; compare against its value.
	}
}

func (c *Cache) rebuilt(id model.AgentIdentity, e *Entry, replaced bool) {
	if c.metrics != nil {
		c.metrics.RecordTrieRebuild()
		c.metrics.SetCachedAgents(c.Len())
	}
	c.logger.Debug("watched-path trie rebuilt", map[string]any{
		"org_slug":    id.OrgSlug,
		"agent_id":    id.AgentID,
		"fingerprint": string(e.Fingerprint),
		"paths":       e.Trie.Len(),
		"replaced":    replaced,
	})
}

func (c *Cache) recordFetch(ok bool) {
	if c.metrics != nil {
		c.metrics.RecordConfigFetch(ok)
	}
}

func unavailable(id model.AgentIdentity, err error) error {
	return errclass.ErrConfigurationUnavailable.
		WithMessagef("agent %q of org %q", id.AgentID, id.OrgSlug).
		WithCause(err)
}

// Entry returns the cached entry for agentID.
func (c *Cache) Entry(agentID string) (*Entry, bool) {
	v, ok := c.entries.Load(agentID)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Invalidate drops the entry for agentID so the next GetTrie rebuilds.
func (c *Cache) Invalidate(agentID string) {
	c.entries.Delete(agentID)
	if c.metrics != nil {
		c.metrics.SetCachedAgents(c.Len())
	}
}

// Len returns the number of cached agents.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
