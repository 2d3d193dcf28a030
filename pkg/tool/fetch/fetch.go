package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/adapter"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// maxBodySize bounds the page size read from a retailer; anything
// beyond this is cut off before text extraction.
const maxBodySize = 4 * 1024 * 1024

type fetchInput struct {
	URL string `json:"url"`
}

// Fetch retrieves a web page and returns its content as plain text.
// When a storage adapter is configured, the raw HTML is archived as a
// snapshot keyed by fetch time.
type Fetch struct {
	httpClient *http.Client
	archive    adapter.Storage
	userAgent  string
}

type Option func(*Fetch)

// WithArchive enables raw page snapshots in the given storage
func WithArchive(storage adapter.Storage) Option {
	return func(x *Fetch) {
		x.archive = storage
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(x *Fetch) {
		x.httpClient = client
	}
}

// New creates a new page fetch tool
func New(opts ...Option) *Fetch {
	x := &Fetch{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "pcscout/0.1",
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Flags returns CLI flags for this tool
func (x *Fetch) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "fetch-user-agent",
			Sources:     cli.EnvVars("PCSCOUT_FETCH_USER_AGENT"),
			Usage:       "User-Agent header for page fetches",
			Value:       "pcscout/0.1",
			Destination: &x.userAgent,
		},
	}
}

// Prompt returns additional information to be added to the system prompt
func (x *Fetch) Prompt(ctx context.Context) string {
	return "Use the fetch_page tool to retrieve the content of a web page as plain text before extracting data from it."
}

// Spec returns the tool specification for Gemini function calling
func (x *Fetch) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "fetch_page",
				Description: "Fetches a web page and returns its content as plain text without HTML markup",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"url": {
							Type:        genai.TypeString,
							Description: "URL of the page to fetch",
						},
					},
					Required: []string{"url"},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *Fetch) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input fetchInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.URL == "" {
		return nil, goerr.New("url parameter is required")
	}

	text, err := x.Get(ctx, input.URL)
	if err != nil {
		return nil, err
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"content": text},
	}, nil
}

// Get fetches the URL and returns the page content as plain text
func (x *Fetch) Get(ctx context.Context, url string) (string, error) {
	logger := logging.From(ctx)
	logger.Info("fetching page", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create request", goerr.V("url", url))
	}
	req.Header.Set("User-Agent", x.userAgent)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch page", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", goerr.New("page fetch returned error",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", goerr.Wrap(err, "failed to read page body", goerr.V("url", url))
	}

	if x.archive != nil {
		if err := x.snapshot(ctx, url, body); err != nil {
			logger.Warn("failed to archive page snapshot", "url", url, "error", err)
		}
	}

	text := htmlToText(string(body))
	logger.Debug("page fetched", "url", url, "text_len", len(text))
	return text, nil
}

func (x *Fetch) snapshot(ctx context.Context, url string, body []byte) error {
	key := fmt.Sprintf("snapshots/%s.html", time.Now().UTC().Format("20060102T150405.000000000Z"))

	w, err := x.archive.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open snapshot writer", goerr.V("key", key))
	}

	header := fmt.Sprintf("<!-- source: %s -->\n", url)
	if _, err := w.Write(append([]byte(header), body...)); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write snapshot", goerr.V("key", key))
	}
	return w.Close()
}
