package mcp

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestConvertObjectSchema(t *testing.T) {
	schema := &jsonschema.Schema{
		Type:        "object",
		Description: "search parameters",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string", Description: "search phrase"},
			"limit": {Type: "integer"},
			"exact": {Type: "boolean"},
		},
		Required: []string{"query"},
	}

	converted, err := convertJSONSchemaToGenai(schema)
	gt.NoError(t, err)
	gt.Equal(t, converted.Type, genai.TypeObject)
	gt.Equal(t, converted.Description, "search parameters")
	gt.Equal(t, converted.Properties["query"].Type, genai.TypeString)
	gt.Equal(t, converted.Properties["limit"].Type, genai.TypeNumber)
	gt.Equal(t, converted.Properties["exact"].Type, genai.TypeBoolean)
	gt.Equal(t, converted.Required, []string{"query"})
}

func TestConvertArraySchema(t *testing.T) {
	schema := &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "string"},
	}

	converted, err := convertJSONSchemaToGenai(schema)
	gt.NoError(t, err)
	gt.Equal(t, converted.Type, genai.TypeArray)
	gt.Equal(t, converted.Items.Type, genai.TypeString)
}

func TestConvertEnumSchema(t *testing.T) {
	schema := &jsonschema.Schema{
		Type: "string",
		Enum: []any{"stdio", "http"},
	}

	converted, err := convertJSONSchemaToGenai(schema)
	gt.NoError(t, err)
	gt.Equal(t, converted.Enum, []string{"stdio", "http"})
}

func TestConvertUnsupportedType(t *testing.T) {
	_, err := convertJSONSchemaToGenai(&jsonschema.Schema{Type: "null"})
	gt.Error(t, err)
}

func TestConvertNilSchema(t *testing.T) {
	converted, err := convertJSONSchemaToGenai(nil)
	gt.NoError(t, err)
	gt.Nil(t, converted)
}
