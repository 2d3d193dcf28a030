package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/net/html"
	"google.golang.org/genai"
)

const searchBaseURL = "https://html.duckduckgo.com/html/"

// maxResults caps the number of search hits returned to the model
const maxResults = 10

type searchInput struct {
	Query string `json:"query"`
}

type result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Search performs a web search using the DuckDuckGo HTML endpoint
type Search struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new web search tool
func New() *Search {
	return &Search{
		baseURL: searchBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Flags returns CLI flags for this tool
func (x *Search) Flags() []cli.Flag {
	return nil
}

// Prompt returns additional information to be added to the system prompt
func (x *Search) Prompt(ctx context.Context) string {
	return "Use the web_search tool to look up information on the web, for example to find retailer pages for a component."
}

// Spec returns the tool specification for Gemini function calling
func (x *Search) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "web_search",
				Description: "Performs a web search and returns result titles, URLs and snippets",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "Search query to look up",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *Search) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input searchInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Query == "" {
		return nil, goerr.New("query parameter is required")
	}

	results, err := x.query(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	resultJSON, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal results")
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"results": string(resultJSON)},
	}, nil
}

func (x *Search) query(ctx context.Context, query string) ([]result, error) {
	logging.From(ctx).Info("web search", "query", query)

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, goerr.New("search returned error",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	return parseResults(resp.Body)
}

// parseResults extracts result links from the DuckDuckGo HTML page.
// Results are anchors with class "result__a"; the following snippet
// node has class "result__snippet".
func parseResults(r io.Reader) ([]result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse search response")
	}

	var results []result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			results = append(results, result{
				Title: textContent(n),
				URL:   attr(n, "href"),
			})
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") && len(results) > 0 {
			results[len(results)-1].Snippet = textContent(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return strings.TrimSpace(b.String())
}
