package jwt

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsonmap"
	verificationmethod "github.com/pilacorp/go-merklekey-sdk/credential/common/verification-method"
)

// JWTVerifier handles JWT verification operations
type JWTVerifier struct {
	resolver *verificationmethod.Resolver
}

// NewJWTVerifier creates a new JWT verifier with DID resolver
func NewJWTVerifier(didResolverURL string, opts ...verificationmethod.Option) *JWTVerifier {
	return &JWTVerifier{
		resolver: verificationmethod.NewResolver(didResolverURL, opts...),
	}
}

// VerifyJWT verifies a JWT token against the key its kid header names.
func (v *JWTVerifier) VerifyJWT(ctx context.Context, tokenString string) error {
	_, err := v.parse(ctx, tokenString)
	return err
}

// VerifyDocument verifies a JWT token and returns its docType claim.
func (v *JWTVerifier) VerifyDocument(ctx context.Context, tokenString string, docType string) (jsonmap.JSONMap, error) {
	claims, err := v.parse(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return documentClaim(claims, docType)
}

func (v *JWTVerifier) parse(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("kid not found in header")
		}

		switch token.Method.Alg() {
		case MerkleKey.Alg():
			return v.resolver.GetMerkleVerificationKey(ctx, kid)
		default:
			publicKeyHex, err := v.resolver.GetPublicKey(ctx, kid)
			if err != nil {
				return nil, fmt.Errorf("failed to get public key: %w", err)
			}
			return hexToECDSAPublicKey(publicKeyHex)
		}
	}, jwt.WithValidMethods([]string{ES256K.Alg(), MerkleKey.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// hexToECDSAPublicKey converts hex string to ECDSA public key
func hexToECDSAPublicKey(publicKeyHex string) (*ecdsa.PublicKey, error) {
	publicKeyHex = strings.TrimPrefix(publicKeyHex, "0x")

	publicKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex: %w", err)
	}

	// Handle compressed public keys (33 bytes)
	if len(publicKeyBytes) == 33 && (publicKeyBytes[0] == 0x02 || publicKeyBytes[0] == 0x03) {
		return crypto.DecompressPubkey(publicKeyBytes)
	}

	// Handle uncompressed public keys (65 bytes)
	if len(publicKeyBytes) == 65 && publicKeyBytes[0] == 0x04 {
		return crypto.UnmarshalPubkey(publicKeyBytes)
	}

	return nil, fmt.Errorf("unsupported public key format")
}
