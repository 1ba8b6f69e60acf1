// Package agentapi fetches agent configuration from the TetraScience platform API.
package agentapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tetrascience/ts-agent-monitoring/internal/secrets"
	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

const (
	defaultTimeout   = 10 * time.Second
	maxErrorBodySize = 4096
	maxBodySize      = 8 << 20

	// HeaderAuthToken carries the API token.
	HeaderAuthToken = "ts-auth-token"
	// HeaderOrgSlug scopes the request to one organization.
	HeaderOrgSlug = "x-org-slug"
)

// Client retrieves agent configurations over HTTP.
type Client struct {
	baseURL     string
	credentials secrets.CredentialSource
	client      *http.Client
}

// NewClient creates a client for the API at baseURL. A nil httpClient gets a
// client with a default timeout.
func NewClient(baseURL string, credentials secrets.CredentialSource, httpClient *http.Client) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("agent api base url required")
	}
	if credentials == nil {
		return nil, errors.New("agent api credential source required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	} else if httpClient.Timeout == 0 {
		httpClient.Timeout = defaultTimeout
	}
	return &Client{baseURL: trimmed, credentials: credentials, client: httpClient}, nil
}

// FetchConfiguration returns the current configuration of the agent.
func (c *Client) FetchConfiguration(ctx context.Context, id model.AgentIdentity) (*model.AgentConfiguration, error) {
	token, err := c.credentials.Token(ctx)
	if err != nil {
		return nil, errclass.ErrConfigurationUnavailable.WithMessage("no api token").WithCause(err)
	}

	endpoint := fmt.Sprintf("%s/v1/agents/%s/configuration", c.baseURL, url.PathEscape(id.AgentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build configuration request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAuthToken, token)
	req.Header.Set(HeaderOrgSlug, id.OrgSlug)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send configuration request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errorForStatus(resp)
	}

	var cfg model.AgentConfiguration
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode configuration response: %w", err)
	}
	return &cfg, nil
}

func errorForStatus(resp *http.Response) error {
	buf, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	summary := strings.TrimSpace(string(buf))
	if summary == "" {
		summary = resp.Status
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errclass.ErrAuth.WithMessage(summary)
	case http.StatusNotFound:
		return errclass.ErrNotFound.WithMessage(summary)
	default:
		return fmt.Errorf("configuration request failed: %s", summary)
	}
}
