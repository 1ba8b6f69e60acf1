// Package config provides configuration file and environment support for agentmon.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIURL        = "TETRASCIENCE_API_URL"
	EnvAuthSecretARN = "TETRASCIENCE_AUTH_TOKEN_SECRET_ARN"
	EnvAuthToken     = "TETRASCIENCE_AUTH_TOKEN"
	EnvNamespace     = "AGENTMON_NAMESPACE"
	EnvSink          = "AGENTMON_SINK"
	EnvLogLevel      = "AGENTMON_LOG_LEVEL"
	EnvLogFormat     = "AGENTMON_LOG_FORMAT"
	EnvAWSRegion     = "AWS_REGION"
	EnvServerAddress = "AGENTMON_LISTEN_ADDR"
)

// Sink types.
const (
	SinkCloudWatch = "cloudwatch"
	SinkWebhook    = "webhook"
	SinkStdout     = "stdout"
)

const redacted = "<redacted>"

// Config represents the agentmon configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
	Sink    SinkConfig    `yaml:"sink"`
	Server  ServerConfig  `yaml:"server"`
	AWS     AWSConfig     `yaml:"aws"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures access to the platform API.
type APIConfig struct {
	URL                string        `yaml:"url"`
	AuthTokenSecretARN string        `yaml:"auth_token_secret_arn,omitempty"`
	AuthToken          string        `yaml:"auth_token,omitempty"`
	Timeout            time.Duration `yaml:"timeout"`
}

// MetricsConfig configures derived metric records.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// SinkConfig selects where derived metrics go.
type SinkConfig struct {
	Type    string        `yaml:"type"` // cloudwatch, webhook, stdout
	Webhook WebhookConfig `yaml:"webhook"`
}

// WebhookConfig configures the webhook sink.
type WebhookConfig struct {
	Hooks      []HookConfig  `yaml:"hooks"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// HookConfig is one webhook endpoint.
type HookConfig struct {
	URL     string        `yaml:"url"`
	Secret  string        `yaml:"secret,omitempty"`
	Events  []string      `yaml:"events,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Enabled bool          `yaml:"enabled"`
}

// ServerConfig configures `agentmon serve`.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// AWSConfig configures the AWS SDK clients.
type AWSConfig struct {
	Region string `yaml:"region,omitempty"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Namespace: model.DefaultNamespace,
		},
		Sink: SinkConfig{
			Type: SinkCloudWatch,
			Webhook: WebhookConfig{
				MaxRetries: 0,
				RetryDelay: time.Second,
			},
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessage("parse config").WithCause(err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv. Variables that are set but empty are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvAPIURL, &c.API.URL)
	set(EnvAuthSecretARN, &c.API.AuthTokenSecretARN)
	set(EnvAuthToken, &c.API.AuthToken)
	set(EnvNamespace, &c.Metrics.Namespace)
	set(EnvSink, &c.Sink.Type)
	set(EnvLogLevel, &c.Logging.Level)
	set(EnvLogFormat, &c.Logging.Format)
	set(EnvAWSRegion, &c.AWS.Region)
	set(EnvServerAddress, &c.Server.Address)
}

// Validate checks the settings needed to process batches.
func (c *Config) Validate() error {
	var problems []string

	if c.API.URL == "" {
		problems = append(problems, "api.url is required")
	} else if u, err := url.Parse(c.API.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("api.url %q is not an absolute URL", c.API.URL))
	}
	if c.API.AuthToken == "" && c.API.AuthTokenSecretARN == "" {
		problems = append(problems, "one of api.auth_token or api.auth_token_secret_arn is required")
	}
	if c.API.Timeout < 0 {
		problems = append(problems, "api.timeout must not be negative")
	}
	if c.Metrics.Namespace == "" {
		problems = append(problems, "metrics.namespace is required")
	}

	switch c.Sink.Type {
	case SinkCloudWatch, SinkStdout:
	case SinkWebhook:
		if len(c.Sink.Webhook.Hooks) == 0 {
			problems = append(problems, "sink.webhook.hooks is empty")
		}
		for i, h := range c.Sink.Webhook.Hooks {
			if h.URL == "" {
				problems = append(problems, fmt.Sprintf("sink.webhook.hooks[%d].url is required", i))
			}
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown sink type %q", c.Sink.Type))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errclass.ErrConfigInvalid.WithMessage(strings.Join(problems, "; "))
	}
	return nil
}

// Redacted returns a copy with secrets replaced, suitable for display.
func (c *Config) Redacted() *Config {
	out := *c
	if out.API.AuthToken != "" {
		out.API.AuthToken = redacted
	}
	hooks := make([]HookConfig, len(c.Sink.Webhook.Hooks))
	for i, h := range c.Sink.Webhook.Hooks {
		if h.Secret != "" {
			h.Secret = redacted
		}
		hooks[i] = h
	}
	out.Sink.Webhook.Hooks = hooks
	return &out
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
