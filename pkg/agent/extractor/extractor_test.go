package extractor_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/pcscout-dev/pcscout/pkg/adapter"
	"github.com/pcscout-dev/pcscout/pkg/agent/extractor"
	"github.com/pcscout-dev/pcscout/pkg/repository"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

type mockGemini struct {
	adapter.Gemini
	generateFunc func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	embedFunc    func(ctx context.Context, text string, dimension int) ([]float32, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.generateFunc(ctx, contents, config)
}

func (m *mockGemini) Embedding(ctx context.Context, text string, dimension int) ([]float32, error) {
	return m.embedFunc(ctx, text, dimension)
}

type noopTool struct{}

func (noopTool) Flags() []cli.Flag                 { return nil }
func (noopTool) Prompt(ctx context.Context) string { return "" }
func (noopTool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{Name: "fetch_page", Description: "stub"},
		},
	}
}
func (noopTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	return &genai.FunctionResponse{Name: fc.Name, Response: map[string]any{"content": ""}}, nil
}

func finalText(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role:  genai.RoleModel,
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

const extractionJSON = `{
  "date_time": "2026-08-31T10:00:00Z",
  "store_name": "Links",
  "items": [
    {"price": "599.00", "description": "RTX 4070 12GB", "item_code": "VGA-1"},
    {"price": "649.00", "description": "RTX 4070 SUPER", "item_code": "VGA-2"},
    {"price": "299.00", "description": "RTX 4060 Ti", "item_code": "VGA-3"}
  ]
}`

func TestProcessLinkCommitsItems(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory(3)

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return finalText(extractionJSON), nil
		},
		embedFunc: func(ctx context.Context, text string, dimension int) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		},
	}

	x, err := extractor.New(gemini, repo,
		extractor.WithDimension(3),
		extractor.WithTools(noopTool{}))
	gt.NoError(t, err)

	extracted, err := x.ProcessLink(ctx, "https://www.links.hr/hr/search?q=rtx")
	gt.NoError(t, err)
	gt.Equal(t, extracted.StoreName, "Links")
	gt.A(t, extracted.Items).Length(3)

	results, err := repo.QueryByVector(ctx, []float32{1, 0, 0}, 10)
	gt.NoError(t, err)
	gt.A(t, results).Length(3)
}

func TestProcessLinkSkipsFailingItem(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory(3)

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return finalText(extractionJSON), nil
		},
		embedFunc: func(ctx context.Context, text string, dimension int) ([]float32, error) {
			if text == "RTX 4070 SUPER" {
				return nil, goerr.New("embedding backend unavailable")
			}
			return []float32{0, 1, 0}, nil
		},
	}

	x, err := extractor.New(gemini, repo,
		extractor.WithDimension(3),
		extractor.WithTools(noopTool{}))
	gt.NoError(t, err)

	// One item failing to embed never aborts the batch
	extracted, err := x.ProcessLink(ctx, "https://www.links.hr/hr/search?q=rtx")
	gt.NoError(t, err)
	gt.A(t, extracted.Items).Length(3)

	results, err := repo.QueryByVector(ctx, []float32{0, 1, 0}, 10)
	gt.NoError(t, err)
	gt.A(t, results).Length(2)
}

func TestProcessLinkZeroItems(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory(3)

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return finalText(`{"date_time": "2026-08-31T10:00:00Z", "store_name": "Protis", "items": []}`), nil
		},
		embedFunc: func(ctx context.Context, text string, dimension int) ([]float32, error) {
			t.Fatal("embedding must not be called for an empty extraction")
			return nil, nil
		},
	}

	x, err := extractor.New(gemini, repo,
		extractor.WithDimension(3),
		extractor.WithTools(noopTool{}))
	gt.NoError(t, err)

	extracted, err := x.ProcessLink(ctx, "https://www.protis.hr/products/search?exp=nothing")
	gt.NoError(t, err)
	gt.A(t, extracted.Items).Length(0)
}

func TestProcessLinkRepeatedCallsStoreSeparateRecords(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory(3)

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return finalText(`{"date_time": "2026-08-31T10:00:00Z", "store_name": "Links", "items": [{"price": "10.00", "description": "fan", "item_code": "F-1"}]}`), nil
		},
		embedFunc: func(ctx context.Context, text string, dimension int) ([]float32, error) {
			return []float32{0, 0, 1}, nil
		},
	}

	x, err := extractor.New(gemini, repo,
		extractor.WithDimension(3),
		extractor.WithTools(noopTool{}))
	gt.NoError(t, err)

	_, err = x.ProcessLink(ctx, "https://www.links.hr/hr/search?q=fan")
	gt.NoError(t, err)
	_, err = x.ProcessLink(ctx, "https://www.links.hr/hr/search?q=fan")
	gt.NoError(t, err)

	// Same store item extracted twice yields two observation records
	results, err := repo.QueryByVector(ctx, []float32{0, 0, 1}, 10)
	gt.NoError(t, err)
	gt.A(t, results).Length(2)
	gt.NotEqual(t, results[0].ID, results[1].ID)
	gt.Equal(t, results[0].ItemCode, results[1].ItemCode)
}
