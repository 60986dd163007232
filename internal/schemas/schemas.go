// Package schemas validates AI-generated JSON against the response contracts
// before any value is decoded into a domain type. Generation-side schema
// enforcement is advisory only; this is the authoritative check.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Schema names, matching the embedded file basenames.
const (
	JobAnalysis      = "job_analysis"
	MatchAnalysis    = "match_analysis"
	GapAnalysis      = "gap_analysis"
	PositionAnalysis = "position_analysis"
	OptimizedSection = "optimized_section"
	OptimizedCV      = "optimized_cv"
	CoverLetter      = "cover_letter"
	JobMeta          = "job_meta"
	CVDocument       = "cv_document"
)

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func compileAll() {
	names := []string{
		JobAnalysis,
		MatchAnalysis,
		GapAnalysis,
		PositionAnalysis,
		OptimizedSection,
		OptimizedCV,
		CoverLetter,
		JobMeta,
		CVDocument,
	}

	compiled = make(map[string]*gojsonschema.Schema, len(names))
	for _, name := range names {
		raw, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			compileErr = fmt.Errorf("embedded schema %s missing: %w", name, err)
			return
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			compileErr = fmt.Errorf("embedded schema %s invalid: %w", name, err)
			return
		}
		compiled[name] = schema
	}
}

// FieldError is a single validation failure at a specific field path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates every field-level failure from one document.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "document does not match %s schema:\n", ve.Schema)
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// Validate checks a JSON document against the named embedded schema. A nil
// return means the document is structurally valid; a *ValidationError carries
// the per-field failures.
func Validate(name string, document []byte) error {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return compileErr
	}

	schema, ok := compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("validating against %s schema: %w", name, err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return ve
}
