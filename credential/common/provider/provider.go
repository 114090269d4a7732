package provider

import (
	"context"
	"errors"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/model"
)

// ErrDIDNotFound is returned when a provider has no document for a DID.
var ErrDIDNotFound = errors.New("provider: DID not found")

// Provider resolves DIDs into DID Documents. Custom implementations can be
// injected into the verification logic.
type Provider interface {
	// DIDResolver resolves a DID string into a DID Document.
	DIDResolver(ctx context.Context, did string) (*model.DIDDocument, error)
}
