// Package jsoncanonicalizer produces the RFC 8785 (JCS) form of JSON values.
package jsoncanonicalizer

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Transform canonicalizes a JSON document.
func Transform(data []byte) ([]byte, error) {
	out, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize json: %w", err)
	}
	return out, nil
}

// Marshal encodes v as JSON and canonicalizes the result.
func Marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json: %w", err)
	}
	return Transform(data)
}
