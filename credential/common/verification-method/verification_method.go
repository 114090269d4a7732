package verificationmethod

import (
	"context"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/crypto"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merklekey"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/model"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/provider"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/schema"
)

//go:embed did_document.schema.json
var didDocumentSchema []byte

var documentValidator = mustValidator(didDocumentSchema)

func mustValidator(s []byte) *schema.Validator {
	v, err := schema.NewValidator(s)
	if err != nil {
		panic(err)
	}
	return v
}

var (
	ErrInvalidVerificationMethod = errors.New("verificationmethod: invalid verification method")
	ErrUnexpectedMethodType      = errors.New("verificationmethod: unexpected verification method type")
)

// Resolver looks up verification methods through a DID provider.
type Resolver struct {
	provider provider.Provider
}

// Option configures a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	provider   provider.Provider
	httpClient *http.Client
}

// WithProvider resolves DIDs with p instead of the HTTP provider.
func WithProvider(p provider.Provider) Option {
	return func(o *resolverOptions) {
		o.provider = p
	}
}

// WithHTTPClient sets the client of the HTTP provider.
func WithHTTPClient(c *http.Client) Option {
	return func(o *resolverOptions) {
		o.httpClient = c
	}
}

// NewResolver creates a resolver for the DID resolver endpoint at baseURL.
func NewResolver(baseURL string, opts ...Option) *Resolver {
	o := &resolverOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.provider == nil {
		o.provider = provider.NewDefaultProvider(baseURL, provider.WithHTTPClient(o.httpClient))
	}
	return &Resolver{provider: o.provider}
}

// ResolveToDoc resolves did and validates the document shape.
func (r *Resolver) ResolveToDoc(ctx context.Context, did string) (*model.DIDDocument, error) {
	doc, err := r.provider.DIDResolver(ctx, did)
	if err != nil {
		return nil, err
	}
	if err := documentValidator.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid DID document for '%s': %w", did, err)
	}
	return doc, nil
}

// GetVerificationMethod resolves the method a verification method URL
// points to.
func (r *Resolver) GetVerificationMethod(ctx context.Context, verificationMethodURL string) (*model.VerificationMethodEntry, error) {
	did, err := r.GetDIDFromVerificationMethod(verificationMethodURL)
	if err != nil {
		return nil, err
	}

	doc, err := r.ResolveToDoc(ctx, did)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DID '%s': %w", did, err)
	}

	for i := range doc.VerificationMethod {
		if doc.VerificationMethod[i].ID == verificationMethodURL {
			return &doc.VerificationMethod[i], nil
		}
	}

	return nil, fmt.Errorf("%w: '%s' not found in DID document", model.ErrVerificationMethodNotFound, verificationMethodURL)
}

// GetPublicKey retrieves the public key in hex format for a given verification method URL.
func (r *Resolver) GetPublicKey(ctx context.Context, verificationMethodURL string) (string, error) {
	vm, err := r.GetVerificationMethod(ctx, verificationMethodURL)
	if err != nil {
		return "", err
	}
	return publicKeyHex(vm)
}

// GetPublicKeyByIssuerAndSignMethod retrieves the public key and verification method ID
// of the first method of type signMethod in the issuer's document.
func (r *Resolver) GetPublicKeyByIssuerAndSignMethod(ctx context.Context, issuer, signMethod string) (string, string, error) {
	doc, err := r.ResolveToDoc(ctx, issuer)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve DID for issuer '%s': %w", issuer, err)
	}

	for i := range doc.VerificationMethod {
		vm := &doc.VerificationMethod[i]
		if vm.Type == signMethod {
			key, err := publicKeyHex(vm)
			if err != nil {
				return "", "", err
			}
			return key, vm.ID, nil
		}
	}

	return "", "", fmt.Errorf("no public key found for issuer '%s' with sign method '%s'", issuer, signMethod)
}

func publicKeyHex(vm *model.VerificationMethodEntry) (string, error) {
	if vm.PublicKeyHex != "" {
		return strings.TrimPrefix(vm.PublicKeyHex, "0x"), nil
	}
	data, err := vm.KeyData()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

// GetMerkleVerificationKey builds the verification key of a
// MerkleKeyCollection2021 method, including its revocation set.
func (r *Resolver) GetMerkleVerificationKey(ctx context.Context, verificationMethodURL string) (*merklekey.VerificationKey, error) {
	vm, err := r.GetVerificationMethod(ctx, verificationMethodURL)
	if err != nil {
		return nil, err
	}
	if vm.Type != merklekey.MethodType {
		return nil, fmt.Errorf("%w: '%s' is %s, want %s", ErrUnexpectedMethodType, vm.ID, vm.Type, merklekey.MethodType)
	}

	data, err := vm.KeyData()
	if err != nil {
		return nil, err
	}
	if _, err := merklekey.DecodeKey(data); err != nil {
		return nil, fmt.Errorf("failed to decode merkle key of '%s': %w", vm.ID, err)
	}

	revoked, err := vm.RevocationSet()
	if err != nil {
		return nil, fmt.Errorf("failed to decode revocation set of '%s': %w", vm.ID, err)
	}

	return merklekey.NewVerificationKey(data).WithRevocation(revoked), nil
}

// GetDIDFromVerificationMethod extracts the DID from a verification method URL.
func (r *Resolver) GetDIDFromVerificationMethod(verificationMethod string) (string, error) {
	if verificationMethod == "" {
		return "", fmt.Errorf("%w: verification method is empty", ErrInvalidVerificationMethod)
	}

	didPart, _, found := strings.Cut(verificationMethod, "#")
	if !found || didPart == "" {
		return "", fmt.Errorf("%w: could not extract DID from %s", ErrInvalidVerificationMethod, verificationMethod)
	}

	if !strings.HasPrefix(didPart, "did:") {
		return "", fmt.Errorf("%w: extracted DID '%s' must start with 'did:'", ErrInvalidVerificationMethod, didPart)
	}

	return didPart, nil
}

// CheckVerificationMethod verifies if the provided secp256k1 private key matches the public key
// associated with the given verification method in its DID document.
func (r *Resolver) CheckVerificationMethod(ctx context.Context, privateKey, verificationMethod string) (bool, error) {
	if privateKey == "" || verificationMethod == "" {
		return false, fmt.Errorf("%w: private key or verification method is empty", ErrInvalidVerificationMethod)
	}

	publicKey, err := r.GetPublicKey(ctx, verificationMethod)
	if err != nil {
		return false, fmt.Errorf("failed to get public key for '%s': %w", verificationMethod, err)
	}

	isValid, err := crypto.VerifyKeyPairFromHex(privateKey, publicKey)
	if err != nil {
		return false, fmt.Errorf("failed to verify key pair for '%s': %w", verificationMethod, err)
	}
	return isValid, nil
}
