package signer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RemoteSigner is a signer that signs a payload using a remote API
type RemoteSigner struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// RemoteOption configures a RemoteSigner.
type RemoteOption func(*RemoteSigner)

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteSigner) {
		if c != nil {
			s.client = c
		}
	}
}

// NewRemoteSigner creates a new RemoteSigner
func NewRemoteSigner(endpoint, apiKey string, opts ...RemoteOption) (Signer, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint required")
	}

	s := &RemoteSigner{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign signs a payload using the remote API
func (s *RemoteSigner) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	if len(payload) != 32 {
		return nil, fmt.Errorf("payload must be 32 bytes, got %d", len(payload))
	}

	reqBody, err := json.Marshal(map[string]any{
		"payload_hex": hex.EncodeToString(payload),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote signer http %d", resp.StatusCode)
	}

	var out struct {
		SignatureHex string `json:"signature_hex"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return nil, err
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(out.SignatureHex, "0x"))
	if err != nil {
		return nil, err
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}

	return sig, nil
}
