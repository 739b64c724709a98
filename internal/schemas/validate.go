// Package schemas provides JSON Schema validation for the structured outputs
// of the reasoning pipelines. Schemas are embedded at compile time; a
// validation failure here is advisory; the pipelines still sanitize at
// field granularity rather than rejecting responses wholesale.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	_ "embed"
)

// Embedded output contracts, one per pipeline.
var (
	//go:embed controller.schema.json
	controllerSchema []byte
	//go:embed analyzer.schema.json
	analyzerSchema []byte
	//go:embed evaluator.schema.json
	evaluatorSchema []byte
)

// Schema names accepted by Validate.
const (
	Controller = "controller"
	Analyzer   = "analyzer"
	Evaluator  = "evaluator"
)

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func compile() {
	raw := map[string][]byte{
		Controller: controllerSchema,
		Analyzer:   analyzerSchema,
		Evaluator:  evaluatorSchema,
	}
	compiled = make(map[string]*gojsonschema.Schema, len(raw))
	for name, data := range raw {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			compileErr = fmt.Errorf("failed to compile %s schema: %w", name, err)
			return
		}
		compiled[name] = schema
	}
}

// ValidationError describes which fields of a pipeline output violated the
// schema, one entry per offending field.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError is a single validation error at a specific field path.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s output failed schema validation:", e.Schema)
	for _, fe := range e.Errors {
		fmt.Fprintf(&sb, " %s: %s;", fe.Field, fe.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Validate checks a JSON document against the named pipeline schema.
// Returns nil when the document conforms, a *ValidationError when it does
// not, and a plain error when the document is not valid JSON at all.
func Validate(name string, document []byte) error {
	compileOnce.Do(compile)
	if compileErr != nil {
		return compileErr
	}

	schema, ok := compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to validate against %s schema: %w", name, err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return ve
}
