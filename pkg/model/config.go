package model

import "encoding/json"

// HashValue is a SHA-256 hash stored as hex string.
type HashValue string

// WatchedPath is one entry of the file watcher configuration.
type WatchedPath struct {
	Path string `json:"path"`
}

// FileWatcherConfig is the file watcher service block of an agent configuration.
type FileWatcherConfig struct {
	Paths []WatchedPath `json:"paths"`
}

// ServicesConfiguration groups per-service configuration blocks.
type ServicesConfiguration struct {
	FileWatcher FileWatcherConfig `json:"fileWatcher"`
}

// AgentConfiguration is the platform's view of an agent's configuration.
// Raw keeps the config object verbatim so fingerprints cover fields the
// engine does not interpret.
type AgentConfiguration struct {
	ID  string          `json:"id"`
	By  string          `json:"by"`
	At  string          `json:"at"`
	Raw json.RawMessage `json:"config"`

	Services ServicesConfiguration `json:"-"`
}

type configBody struct {
	ServicesConfiguration ServicesConfiguration `json:"services_configuration"`
}

// UnmarshalJSON decodes the envelope and the typed services configuration.
func (c *AgentConfiguration) UnmarshalJSON(data []byte) error {
	type plain AgentConfiguration
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if len(p.Raw) > 0 && string(p.Raw) != "null" {
		var body configBody
		if err := json.Unmarshal(p.Raw, &body); err != nil {
			return err
		}
		p.Services = body.ServicesConfiguration
	}
	*c = AgentConfiguration(p)
	return nil
}

// WatchedPaths returns the configured file watcher paths in order.
func (c *AgentConfiguration) WatchedPaths() []string {
	if c == nil {
		return nil
	}
	paths := make([]string, 0, len(c.Services.FileWatcher.Paths))
	for _, p := range c.Services.FileWatcher.Paths {
		paths = append(paths, p.Path)
	}
	return paths
}

// NewAgentConfiguration builds a configuration carrying the given watched paths.
func NewAgentConfiguration(id string, paths ...string) (*AgentConfiguration, error) {
	body := configBody{}
	for _, p := range paths {
		body.ServicesConfiguration.FileWatcher.Paths = append(body.ServicesConfiguration.FileWatcher.Paths, WatchedPath{Path: p})
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &AgentConfiguration{
		ID:       id,
		Raw:      raw,
		Services: body.ServicesConfiguration,
	}, nil
}
