// Package schema canonicalizes JSON-LD documents with URDNA2015 and
// validates JSON documents against JSON Schemas.
package schema

import (
	"crypto/sha256"
	"fmt"

	"github.com/piprate/json-gold/ld"
)

// ProcessorOpt represents an option for JSON-LD processing.
type ProcessorOpt func(*ProcessorOptions)

// ProcessorOptions holds configuration for JSON-LD processing.
type ProcessorOptions struct {
	documentLoader ld.DocumentLoader
	algorithm      string
}

// WithDocumentLoader sets the document loader for JSON-LD processing.
func WithDocumentLoader(loader ld.DocumentLoader) ProcessorOpt {
	return func(p *ProcessorOptions) {
		p.documentLoader = loader
	}
}

// WithAlgorithm sets the canonicalization algorithm.
func WithAlgorithm(alg string) ProcessorOpt {
	return func(p *ProcessorOptions) {
		p.algorithm = alg
	}
}

// defaultDocumentLoader is a shared caching loader to prevent repeated fetches across function calls.
var defaultDocumentLoader ld.DocumentLoader = ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(nil))

// CanonicalizeDocument canonicalizes a document to N-Quads using JSON-LD
// processing.
func CanonicalizeDocument(doc map[string]interface{}, opts ...ProcessorOpt) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("failed to canonicalize document: document is nil")
	}
	o := &ProcessorOptions{
		documentLoader: defaultDocumentLoader,
		algorithm:      ld.AlgorithmURDNA2015,
	}
	for _, opt := range opts {
		opt(o)
	}

	processor := ld.NewJsonLdProcessor()
	jsonldOptions := ld.NewJsonLdOptions("")
	jsonldOptions.Format = "application/n-quads"
	jsonldOptions.Algorithm = o.algorithm
	jsonldOptions.DocumentLoader = o.documentLoader

	standardizedDoc, err := standardizeToJSONLD(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to standardize to JSON-LD: %w", err)
	}

	canonicalized, err := processor.Normalize(standardizedDoc, jsonldOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	out, ok := canonicalized.(string)
	if !ok {
		return nil, fmt.Errorf("failed to normalize document: unexpected result type %T", canonicalized)
	}
	return []byte(out), nil
}

// ComputeDigest computes the SHA-256 digest of the input data.
func ComputeDigest(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("failed to compute digest: input data is nil")
	}
	hash := sha256.Sum256(data)
	return hash[:], nil
}

// standardizeToJSONLD converts a map to a JSON-LD-compatible format.
func standardizeToJSONLD(input map[string]interface{}) (map[string]interface{}, error) {
	if input == nil {
		return nil, fmt.Errorf("failed to standardize to JSON-LD: input is nil")
	}
	result := make(map[string]interface{})
	for key, value := range input {
		result[key] = convertToJSONLDCompatible(value)
	}
	return result, nil
}

// convertToJSONLDCompatible converts a value to a JSON-LD-compatible format, forcing scalars to typed literals.
func convertToJSONLDCompatible(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		result := make(map[string]interface{})
		for key, val := range v {
			result[key] = convertToJSONLDCompatible(val)
		}
		return result
	case []string:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = val
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = convertToJSONLDCompatible(val)
		}
		return result
	case bool:
		return map[string]interface{}{
			"@value": fmt.Sprintf("%v", v),
			"@type":  "http://www.w3.org/2001/XMLSchema#boolean",
		}
	case nil:
		return nil
	default:
		return map[string]interface{}{
			"@value": fmt.Sprintf("%v", v),
			"@type":  "http://www.w3.org/2001/XMLSchema#string",
		}
	}
}
