// Package registry implements the Registry port against a splinter-style
// node admin REST API.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hylla/krets/internal/domain"
)

// defaultTimeout bounds one registry round trip.
const defaultTimeout = 10 * time.Second

// Client is an HTTP client for the registry endpoints:
// `/circuits`, `/circuits/{id}`, `/admin/proposals`, `/admin/proposals/{id}`.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithTimeout sets the per-request timeout on the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// New constructs a registry client for the node at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// listEnvelope matches the registry's paged list responses.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// serverError matches the registry's error body.
type serverError struct {
	Message string `json:"message"`
}

// ListCircuits fetches the confirmed-circuit collection.
func (c *Client) ListCircuits(ctx context.Context) ([]domain.Circuit, error) {
	var envelope listEnvelope[domain.Circuit]
	if err := c.get(ctx, "/circuits", &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// ListProposals fetches the pending-proposal collection.
func (c *Client) ListProposals(ctx context.Context) ([]domain.Proposal, error) {
	var envelope listEnvelope[domain.Proposal]
	if err := c.get(ctx, "/admin/proposals", &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// GetCircuit fetches one confirmed circuit by id.
func (c *Client) GetCircuit(ctx context.Context, id string) (domain.Circuit, error) {
	var circuit domain.Circuit
	if err := c.get(ctx, "/circuits/"+id, &circuit); err != nil {
		return domain.Circuit{}, err
	}
	return circuit, nil
}

// GetProposal fetches one pending proposal by id.
func (c *Client) GetProposal(ctx context.Context, id string) (domain.Proposal, error) {
	var proposal domain.Proposal
	if err := c.get(ctx, "/admin/proposals/"+id, &proposal); err != nil {
		return domain.Proposal{}, err
	}
	return proposal, nil
}

// get performs one GET round trip and maps the response status onto the
// error taxonomy: 404 is a semantic miss for the queried namespace, 5xx
// and connection failures are transport faults, other 4xx surface the
// server's message.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: registry returned %d", domain.ErrUnavailable, resp.StatusCode)
	default:
		var body serverError
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || strings.TrimSpace(body.Message) == "" {
			return fmt.Errorf("registry returned %d for %s", resp.StatusCode, path)
		}
		return fmt.Errorf("registry returned %d for %s: %s", resp.StatusCode, path, body.Message)
	}
}
