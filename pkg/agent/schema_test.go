package agent_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pcscout-dev/pcscout/pkg/agent"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/pcscout-dev/pcscout/pkg/session"
	"github.com/pcscout-dev/pcscout/pkg/tool"
	"google.golang.org/genai"
)

const validExtraction = `{
  "date_time": "2026-08-31T10:00:00Z",
  "store_name": "Links",
  "items": [
    {"price": "599.00", "description": "RTX 4070 12GB", "item_code": "VGA-1234"}
  ]
}`

func TestAgentSchemaValidAnswer(t *testing.T) {
	ctx := context.Background()

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse(validExtraction), nil
		},
	}

	schemaOpt, err := agent.WithOutputSchema[model.ExtractedData]()
	gt.NoError(t, err)

	a := agent.New(gemini, tool.New(), schemaOpt)
	sess := session.NewManager().Get("s1")

	result, err := a.Execute(ctx, sess, "extract")
	gt.NoError(t, err)

	var data model.ExtractedData
	gt.NoError(t, json.Unmarshal(result.Data, &data))
	gt.Equal(t, data.StoreName, "Links")
	gt.A(t, data.Items).Length(1)
	gt.Equal(t, data.Items[0].ItemCode, "VGA-1234")
}

func TestAgentSchemaStripsCodeFence(t *testing.T) {
	ctx := context.Background()

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse("```json\n" + validExtraction + "\n```"), nil
		},
	}

	schemaOpt, err := agent.WithOutputSchema[model.ExtractedData]()
	gt.NoError(t, err)

	a := agent.New(gemini, tool.New(), schemaOpt)
	sess := session.NewManager().Get("s2")

	result, err := a.Execute(ctx, sess, "extract")
	gt.NoError(t, err)

	var data model.ExtractedData
	gt.NoError(t, json.Unmarshal(result.Data, &data))
	gt.Equal(t, data.StoreName, "Links")
}

func TestAgentSchemaInvalidAnswerIsRetried(t *testing.T) {
	ctx := context.Background()

	calls := 0
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			calls++
			if calls == 1 {
				return textResponse("here is your data as prose, not JSON"), nil
			}
			// The retry carries a corrective user message
			last := contents[len(contents)-1]
			gt.Equal(t, last.Role, genai.RoleUser)
			return textResponse(validExtraction), nil
		},
	}

	schemaOpt, err := agent.WithOutputSchema[model.ExtractedData]()
	gt.NoError(t, err)

	a := agent.New(gemini, tool.New(), schemaOpt)
	sess := session.NewManager().Get("s3")

	result, err := a.Execute(ctx, sess, "extract")
	gt.NoError(t, err)
	gt.Equal(t, calls, 2)

	var data model.ExtractedData
	gt.NoError(t, json.Unmarshal(result.Data, &data))
	gt.Equal(t, data.DateTime, "2026-08-31T10:00:00Z")
}

func TestAgentSchemaRetriesAreBounded(t *testing.T) {
	ctx := context.Background()

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse("never valid"), nil
		},
	}

	schemaOpt, err := agent.WithOutputSchema[model.ExtractedData]()
	gt.NoError(t, err)

	a := agent.New(gemini, tool.New(), schemaOpt, agent.WithMaxIterations(3))
	sess := session.NewManager().Get("s4")

	_, err = a.Execute(ctx, sess, "extract")
	gt.Error(t, err)
}
