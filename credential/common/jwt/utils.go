package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsonmap"
)

// GetDocumentFromJWT extracts the document claim without checking the
// signature.
func GetDocumentFromJWT(tokenString string, docType string) (jsonmap.JSONMap, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	return documentClaim(claims, docType)
}

func documentClaim(claims jwt.MapClaims, docType string) (jsonmap.JSONMap, error) {
	documentData, ok := claims[docType]
	if !ok {
		return nil, fmt.Errorf("document type %s not found in JWT", docType)
	}

	documentMap, ok := documentData.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("document is not a valid JSON object")
	}

	return jsonmap.JSONMap(documentMap), nil
}
