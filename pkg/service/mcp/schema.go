package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

var schemaTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeNumber,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
}

// convertJSONSchemaToGenai converts a JSON Schema to the Gemini schema
// dialect. Only the subset that MCP tool inputs actually use is
// supported.
func convertJSONSchemaToGenai(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{Description: schema.Description}

	if schema.Type != "" {
		t, ok := schemaTypes[schema.Type]
		if !ok {
			return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
		}
		out.Type = t
	}

	for _, v := range schema.Enum {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out.Enum = append(out.Enum, s)
	}

	for name, prop := range schema.Properties {
		converted, err := convertJSONSchemaToGenai(prop)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert property schema",
				goerr.V("property", name))
		}
		if out.Properties == nil {
			out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		}
		out.Properties[name] = converted
	}
	out.Required = schema.Required

	if schema.Items != nil {
		items, err := convertJSONSchemaToGenai(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		out.Items = items
	}

	return out, nil
}
