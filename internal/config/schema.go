package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaSource string

const schemaResource = "schema.json"

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

// SchemaError lists every schema violation found in a document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	if len(e.Violations) == 1 {
		return "config schema violation: " + e.Violations[0]
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d config schema violations:\n", len(e.Violations)))
	for i, v := range e.Violations {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, v))
	}
	return sb.String()
}

// Schema returns the compiled configuration schema.
func Schema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaResource, strings.NewReader(schemaSource)); err != nil {
			compiledSchemaErr = fmt.Errorf("invalid schema: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile(schemaResource)
	})
	return compiledSchema, compiledSchemaErr
}

// ValidateSchema checks a raw YAML or JSON document against the
// configuration schema. The format is chosen as in ParseConfig.
func ValidateSchema(data []byte, path string) error {
	schema, err := Schema()
	if err != nil {
		return err
	}

	doc, err := toJSONValue(data, path)
	if err != nil {
		return err
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return &SchemaError{Violations: extractViolations(validationErr)}
	}
	return err
}

// toJSONValue decodes a document into the generic JSON value model the
// schema validator expects. YAML is round-tripped through JSON so numbers and
// maps take JSON shapes.
func toJSONValue(data []byte, path string) (interface{}, error) {
	raw := data
	if !isJSON(path) {
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
		var err error
		raw, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML config: %w", err)
		}
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}
	return v, nil
}

// extractViolations flattens a validation error tree into leaf messages.
func extractViolations(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		return []string{fmt.Sprintf("%s: %s", location, err.Message)}
	}

	var out []string
	for _, cause := range err.Causes {
		out = append(out, extractViolations(cause)...)
	}
	return out
}
