package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const (
	linksToolName     = "get_links_data"
	linksDefaultMin   = 0
	linksDefaultMax   = 10000
	linksSearchFormat = "https://www.links.hr/hr/search?orderby=10&pagesize=100&viewmode=grid&q=%s&price=%d-%d"
)

type linksInput struct {
	Query    string `json:"query"`
	MinPrice *int   `json:"min_price"`
	MaxPrice *int   `json:"max_price"`
}

// Links searches the links.hr computer components store. Results are
// extracted into structured items and committed to the item memory as
// a side effect of each call.
type Links struct {
	extractor Extractor
}

// NewLinks creates a links.hr provider tool
func NewLinks(extractor Extractor) *Links {
	return &Links{extractor: extractor}
}

// Name returns the provider name
func (x *Links) Name() string {
	return "links"
}

// Flags returns CLI flags for this tool
func (x *Links) Flags() []cli.Flag {
	return nil
}

// Prompt returns additional information to be added to the system prompt
func (x *Links) Prompt(ctx context.Context) string {
	return "Use the get_links_data tool to look up current prices of computer components at the Links store. Prices are in EUR."
}

// Spec returns the tool specification for Gemini function calling
func (x *Links) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        linksToolName,
				Description: "Searches the Links computer components store for items matching a query within a price range and returns the extracted items",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "Search phrase for the item, e.g. 'rtx 4070' or 'ddr5 32gb'",
						},
						"min_price": {
							Type:        genai.TypeInteger,
							Description: "Lower price bound in EUR (default 0)",
						},
						"max_price": {
							Type:        genai.TypeInteger,
							Description: "Upper price bound in EUR (default 10000)",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *Links) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	extracted, err := x.GetData(ctx, fc.Args)
	if err != nil {
		return nil, err
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: extractedResponse(extracted),
	}, nil
}

// GetData searches links.hr with the given parameters and returns the
// extracted items
func (x *Links) GetData(ctx context.Context, params map[string]any) (*model.ExtractedData, error) {
	input, err := parseLinksInput(params)
	if err != nil {
		return nil, err
	}

	return x.extractor.ProcessLink(ctx, x.searchURL(input))
}

func (x *Links) searchURL(input *linksInput) string {
	minPrice := linksDefaultMin
	if input.MinPrice != nil {
		minPrice = *input.MinPrice
	}
	maxPrice := linksDefaultMax
	if input.MaxPrice != nil {
		maxPrice = *input.MaxPrice
	}

	return fmt.Sprintf(linksSearchFormat, url.QueryEscape(input.Query), minPrice, maxPrice)
}

func parseLinksInput(params map[string]any) (*linksInput, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input linksInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Query == "" {
		return nil, goerr.New("query parameter is required")
	}

	return &input, nil
}

// extractedResponse flattens extraction results into a function
// response payload
func extractedResponse(extracted *model.ExtractedData) map[string]any {
	items := make([]map[string]any, 0, len(extracted.Items))
	for _, item := range extracted.Items {
		items = append(items, map[string]any{
			"price":       item.Price,
			"description": item.Description,
			"item_code":   item.ItemCode,
		})
	}

	return map[string]any{
		"store_name": extracted.StoreName,
		"date_time":  extracted.DateTime,
		"items":      items,
	}
}
