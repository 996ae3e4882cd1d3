package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Authority answers attribute queries for authenticated users. The real
// implementation calls an external identity service; tests supply a
// function or fixture.
type Authority interface {
	Fetch(ctx context.Context, username string) (*AttributeResponse, error)
}

// AuthorityFunc adapts a function to the Authority interface.
type AuthorityFunc func(ctx context.Context, username string) (*AttributeResponse, error)

// Fetch implements Authority.
func (f AuthorityFunc) Fetch(ctx context.Context, username string) (*AttributeResponse, error) {
	return f(ctx, username)
}

// HTTPAuthority queries an attribute service over HTTP. It posts a JSON
// body naming the user and decodes the response. The client timeout bounds
// the call; compilation happens outside storage locks, so a slow authority
// delays only session setup.
type HTTPAuthority struct {
	url    string
	client *http.Client
}

// DefaultAuthorityTimeout bounds a single attribute query.
const DefaultAuthorityTimeout = 10 * time.Second

// NewHTTPAuthority builds an authority client for the given endpoint.
// A zero timeout uses DefaultAuthorityTimeout.
func NewHTTPAuthority(url string, timeout time.Duration) *HTTPAuthority {
	if timeout <= 0 {
		timeout = DefaultAuthorityTimeout
	}
	return &HTTPAuthority{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type attributeQuery struct {
	Username string `json:"username"`
}

// Fetch implements Authority.
func (a *HTTPAuthority) Fetch(ctx context.Context, username string) (*AttributeResponse, error) {
	body, err := json.Marshal(attributeQuery{Username: username})
	if err != nil {
		return nil, fmt.Errorf("encoding attribute query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building attribute request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying attribute authority: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("attribute authority returned %d: %s", resp.StatusCode, payload)
	}

	var attrs AttributeResponse
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decoding attribute response: %w", err)
	}
	return &attrs, nil
}
