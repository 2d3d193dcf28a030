package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const (
	protisToolName   = "get_protis_data"
	protisSearchBase = "https://www.protis.hr/products/search?exp="
)

type protisInput struct {
	Query string `json:"query"`
}

// Protis searches the protis.hr computer components store. The store
// search takes only a phrase, price filtering is not supported.
type Protis struct {
	extractor Extractor
}

// NewProtis creates a protis.hr provider tool
func NewProtis(extractor Extractor) *Protis {
	return &Protis{extractor: extractor}
}

// Name returns the provider name
func (x *Protis) Name() string {
	return "protis"
}

// Flags returns CLI flags for this tool
func (x *Protis) Flags() []cli.Flag {
	return nil
}

// Prompt returns additional information to be added to the system prompt
func (x *Protis) Prompt(ctx context.Context) string {
	return "Use the get_protis_data tool to look up current prices of computer components at the Protis store. Prices are in EUR."
}

// Spec returns the tool specification for Gemini function calling
func (x *Protis) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        protisToolName,
				Description: "Searches the Protis computer components store for items matching a query and returns the extracted items",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "Search phrase for the item, e.g. 'rtx 4070' or 'ddr5 32gb'",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *Protis) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	extracted, err := x.GetData(ctx, fc.Args)
	if err != nil {
		return nil, err
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: extractedResponse(extracted),
	}, nil
}

// GetData searches protis.hr with the given parameters and returns the
// extracted items
func (x *Protis) GetData(ctx context.Context, params map[string]any) (*model.ExtractedData, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input protisInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Query == "" {
		return nil, goerr.New("query parameter is required")
	}

	return x.extractor.ProcessLink(ctx, x.searchURL(input.Query))
}

// searchURL joins query words with plus signs, matching the store's
// own search form encoding
func (x *Protis) searchURL(query string) string {
	return protisSearchBase + strings.Join(strings.Fields(query), "+")
}
