package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
)

// outputSchema validates the terminal answer against a JSON schema.
// Validation failure re-enters the model loop with a corrective
// instruction, bounded by the iteration cap.
type outputSchema struct {
	resolved *jsonschema.Resolved
	raw      *jsonschema.Schema
}

// WithOutputSchema constrains the terminal answer to the JSON schema
// derived from T
func WithOutputSchema[T any]() (Option, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to derive output schema")
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve output schema")
	}

	return func(a *Agent) {
		a.output = &outputSchema{resolved: resolved, raw: schema}
	}, nil
}

// parse extracts and validates the JSON document from the model's
// final text, tolerating a markdown code fence around it
func (s *outputSchema) parse(text string) ([]byte, error) {
	doc := stripFence(text)

	var instance any
	if err := json.Unmarshal([]byte(doc), &instance); err != nil {
		return nil, goerr.Wrap(err, "final answer is not valid JSON")
	}
	if err := s.resolved.Validate(instance); err != nil {
		return nil, goerr.Wrap(err, "final answer does not match the required schema")
	}
	return []byte(doc), nil
}

// prompt describes the required output format to the model
func (s *outputSchema) prompt() string {
	schemaJSON, err := json.Marshal(s.raw)
	if err != nil {
		return "Respond with a single JSON object only, no surrounding text."
	}
	return fmt.Sprintf("When you have finished, respond with a single JSON object matching this JSON Schema, with no surrounding text:\n%s", string(schemaJSON))
}

// corrective builds the re-prompt instruction after a validation failure
func (s *outputSchema) corrective(err error) string {
	return fmt.Sprintf("Your previous answer was not valid: %v\nRespond again with a single JSON object matching the required schema, with no surrounding text.", err)
}

// stripFence removes a surrounding markdown code fence, if any
func stripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
