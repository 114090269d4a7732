package jwt

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merklekey"
)

// JWTSigner handles JWT signing operations for verifiable documents
type JWTSigner struct {
	method jwt.SigningMethod
	key    interface{}
	kid    string
}

// NewJWTSigner creates an ES256K signer for the issuer's #key-1 method.
func NewJWTSigner(privKeyHex, issuerDID string) *JWTSigner {
	return &JWTSigner{
		method: ES256K,
		key:    privKeyHex,
		kid:    fmt.Sprintf("%s#%s", issuerDID, "key-1"),
	}
}

// NewMerkleKeyJWTSigner creates a signer that signs with one leaf of the
// collection published at verificationMethod.
func NewMerkleKeyJWTSigner(key *merklekey.SigningKey, verificationMethod string) *JWTSigner {
	return &JWTSigner{
		method: MerkleKey,
		key:    key,
		kid:    verificationMethod,
	}
}

func (s *JWTSigner) newToken(docJSONMap jsonmap.JSONMap, docType string, additionalClaims []map[string]interface{}) *jwt.Token {
	// Get document ID from JSONMap or generate one
	docID, ok := docJSONMap["id"].(string)
	if !ok || docID == "" {
		docID = "urn:uuid:" + generateUUID()
	}

	claims := jwt.MapClaims{
		docType: docJSONMap,
		"jti":   docID,
	}

	if len(additionalClaims) > 0 && additionalClaims[0] != nil {
		for key, value := range additionalClaims[0] {
			claims[key] = value
		}
	}

	token := jwt.NewWithClaims(s.method, claims)
	token.Header["typ"] = "JWT"
	token.Header["kid"] = s.kid
	return token
}

// SigningInput returns the header.payload string that SignDocument signs.
func (s *JWTSigner) SigningInput(docJSONMap jsonmap.JSONMap, docType string) ([]byte, error) {
	signingInput, err := s.newToken(docJSONMap, docType, nil).SigningString()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing input: %w", err)
	}

	return []byte(signingInput), nil
}

// SignDocument signs a verifiable document (VC or VP) as JWT from JSONMap
func (s *JWTSigner) SignDocument(docJSONMap jsonmap.JSONMap, docType string, additionalClaims ...map[string]interface{}) (string, error) {
	signedString, err := s.newToken(docJSONMap, docType, additionalClaims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedString, nil
}

// GetKeyID returns the Key ID for this signer
func (s *JWTSigner) GetKeyID() string {
	return s.kid
}

// generateUUID generates a random version 4 UUID string
func generateUUID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
