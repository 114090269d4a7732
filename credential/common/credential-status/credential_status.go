// Package credentialstatus checks credential revocation against bitstring
// status list credentials.
package credentialstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/revocation"
)

const (
	PurposeRevocation = "revocation"
	PurposeSuspension = "suspension"

	// minListBytes is the 16KB minimum bitstring length of a status list.
	minListBytes = 16 * 1024
	maxBodySize  = 4 << 20
)

var ErrInvalidPosition = errors.New("credentialstatus: invalid status position")

// Client is a simple HTTP client for fetching credential status information
// from a statusListCredential URL.
type Client struct {
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// NewClient creates a new credential status client with a sensible default timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAndCheckRevocation fetches the status list credential from the given
// statusListCredential URL and checks whether the credential at the given
// position is revoked.
func (c *Client) FetchAndCheckRevocation(ctx context.Context, statusListCredentialURL string, position int) (bool, error) {
	resp, err := c.FetchStatusListCredential(ctx, statusListCredentialURL)
	if err != nil {
		return false, err
	}

	return IsRevoked(position, resp.Data.CredentialSubject)
}

// FetchAndCheckRevocation is Client.FetchAndCheckRevocation with a default client.
func FetchAndCheckRevocation(ctx context.Context, statusListCredentialURL string, position int) (bool, error) {
	return NewClient().FetchAndCheckRevocation(ctx, statusListCredentialURL, position)
}

// FetchStatusListCredential fetches and parses the status list credential
// located at the given statusListCredential URL.
func (c *Client) FetchStatusListCredential(ctx context.Context, statusListCredentialURL string) (*StatusListCredentialResponse, error) {
	if statusListCredentialURL == "" {
		return nil, fmt.Errorf("statusListCredential URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusListCredentialURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status list credential request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call status list credential endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status list credential API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read status list credential response body: %w", err)
	}

	var result StatusListCredentialResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status list credential JSON: %w", err)
	}

	return &result, nil
}

// RevocationSet decodes the encoded list of a status list subject.
func RevocationSet(subject StatusListCredentialSubject) (*revocation.Set, error) {
	set, err := revocation.DecodeBitstring(subject.EncodedList)
	if err != nil {
		return nil, fmt.Errorf("failed to decode status list: %w", err)
	}
	return set, nil
}

// IsRevoked checks whether a credential is revoked based on the encoded list
// and a given status position (index in the bitstring). Positions past the
// end of the list are not revoked.
func IsRevoked(position int, subject StatusListCredentialSubject) (bool, error) {
	if subject.StatusPurpose != PurposeRevocation {
		return false, nil
	}
	if position < 0 || int64(position) > int64(^uint32(0)) {
		return false, fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}

	set, err := RevocationSet(subject)
	if err != nil {
		return false, err
	}

	return set.Contains(uint32(position)), nil
}

// NewStatusListSubject encodes set as the subject of a status list
// credential. The bitstring is padded to the 16KB minimum.
func NewStatusListSubject(id, purpose string, set *revocation.Set) (StatusListCredentialSubject, error) {
	encoded, err := set.EncodeBitstring(minListBytes)
	if err != nil {
		return StatusListCredentialSubject{}, fmt.Errorf("failed to encode status list: %w", err)
	}
	return StatusListCredentialSubject{
		EncodedList:   encoded,
		ID:            id,
		StatusPurpose: purpose,
		Type:          "BitstringStatusList",
	}, nil
}
