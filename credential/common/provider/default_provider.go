package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/model"
)

// maxDocumentSize bounds a resolver response body.
const maxDocumentSize = 1 << 20

type defaultProvider struct {
	baseURL string
	client  *http.Client
}

// Option configures the default provider.
type Option func(*defaultProvider)

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *defaultProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithTimeout sets the request timeout of the client.
func WithTimeout(d time.Duration) Option {
	return func(p *defaultProvider) {
		c := *p.client
		c.Timeout = d
		p.client = &c
	}
}

// NewDefaultProvider resolves DIDs with GET baseURL/<escaped DID>. Requests
// are traced with OpenTelemetry.
func NewDefaultProvider(baseURL string, opts ...Option) Provider {
	p := &defaultProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *defaultProvider) DIDResolver(ctx context.Context, did string) (*model.DIDDocument, error) {
	apiURL := p.baseURL + "/" + url.PathEscape(did)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build DID resolver request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request to DID resolver: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrDIDNotFound, did)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("DID resolver API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from DID resolver: %w", err)
	}

	var doc model.DIDDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DID document JSON: %w", err)
	}

	return &doc, nil
}
