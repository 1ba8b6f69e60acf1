package model

import "strings"

// LogLine is one raw log event of a batch. Message is an opaque payload,
// usually a JSON document written by the agent.
type LogLine struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// LogBatch is a decoded delivery of log lines from one agent log group.
type LogBatch struct {
	Source      string    `json:"source"`
	Stream      string    `json:"stream,omitempty"`
	MessageType string    `json:"message_type,omitempty"`
	Lines       []LogLine `json:"lines"`
}

// AgentIdentity identifies the agent a batch belongs to.
type AgentIdentity struct {
	OrgSlug string `json:"org_slug"`
	AgentID string `json:"agent_id"`
}

// ParseSource extracts the identity from a log group of the form
// /agents/<orgSlug>/<agentId>. Segments that are missing come back empty.
func ParseSource(source string) AgentIdentity {
	if len(source) > 0 {
		source = source[1:]
	}
	segments := strings.Split(source, "/")

	var id AgentIdentity
	if len(segments) > 1 {
		id.OrgSlug = segments[1]
	}
	if len(segments) > 2 {
		id.AgentID = segments[2]
	}
	return id
}

// Identity returns the agent identity encoded in the batch source.
func (b *LogBatch) Identity() AgentIdentity {
	return ParseSource(b.Source)
}

// SourceFor builds the log group name for an agent.
func SourceFor(id AgentIdentity) string {
	return "/agents/" + id.OrgSlug + "/" + id.AgentID
}
