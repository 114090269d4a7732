package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaValidation is returned when a document does not satisfy a schema.
var ErrSchemaValidation = errors.New("schema: validation failed")

// Validator checks documents against one compiled JSON Schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a JSON Schema document.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to compile JSON schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Validate checks a Go value, marshaled as JSON, against the schema.
func (v *Validator) Validate(doc interface{}) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate document: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaValidation, strings.Join(msgs, "; "))
	}
	return nil
}
