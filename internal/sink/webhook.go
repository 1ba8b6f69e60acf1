package sink

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

// Webhook headers.
const (
	HeaderSignature = "X-Agentmon-Signature"
	HeaderEventKind = "X-Agentmon-Event"
	HeaderNamespace = "X-Agentmon-Namespace"
)

// HookConfig is one webhook endpoint.
type HookConfig struct {
	URL    string `yaml:"url" json:"url"`
	Secret string `yaml:"secret,omitempty" json:"secret,omitempty"`
	// Events lists the event kinds delivered to this hook; "*" matches all.
	// An empty list also matches all.
	Events  []string      `yaml:"events,omitempty" json:"events,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Enabled bool          `yaml:"enabled" json:"enabled"`
}

// WebhookConfig configures a WebhookSink.
type WebhookConfig struct {
	Hooks      []HookConfig  `yaml:"hooks" json:"hooks"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// DefaultWebhookConfig returns the default settings with no hooks. Each
// group is delivered once; retries must be enabled with MaxRetries.
func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{
		MaxRetries: 0,
		RetryDelay: time.Second,
	}
}

// WebhookSink POSTs each group as JSON to every matching hook.
type WebhookSink struct {
	config WebhookConfig
	http   *http.Client
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(cfg WebhookConfig) *WebhookSink {
	return &WebhookSink{
		config: cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish delivers group to every enabled hook subscribed to its event
// kind. All hooks are attempted; the error joins every failed delivery.
func (s *WebhookSink) Publish(ctx context.Context, group model.MetricGroup) error {
	payload, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var errs []error
	for _, hook := range s.config.Hooks {
		if !hook.Enabled || !matchesKind(hook, group.EventKind) {
			continue
		}
		if err := s.deliver(ctx, hook, group, payload); err != nil {
			errs = append(errs, fmt.Errorf("webhook %s: %w", hook.URL, err))
		}
	}
	return errors.Join(errs...)
}

// deliver sends payload to one hook with retries.
func (s *WebhookSink) deliver(ctx context.Context, hook HookConfig, group model.MetricGroup, payload []byte) error {
	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.RetryDelay):
			}
		}

		retry, err := s.attempt(ctx, hook, group, payload)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// attempt performs one POST. Errors building the request are not retried.
func (s *WebhookSink) attempt(ctx context.Context, hook HookConfig, group model.MetricGroup, payload []byte) (bool, error) {
	if hook.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, hook.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "agentmon-webhook/1.0")
	req.Header.Set(HeaderEventKind, string(group.EventKind))
	req.Header.Set(HeaderNamespace, group.Namespace)
	if hook.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(payload, hook.Secret))
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return true, fmt.Errorf("http request: %w", err)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return false, nil
	}
	return true, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
}

// Sign returns the HMAC-SHA256 signature of payload, as sent in
// HeaderSignature.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func matchesKind(hook HookConfig, kind model.EventKind) bool {
	if len(hook.Events) == 0 {
		return true
	}
	for _, e := range hook.Events {
		if e == "*" || e == string(kind) {
			return true
		}
	}
	return false
}
