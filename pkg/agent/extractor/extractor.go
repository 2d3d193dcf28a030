package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/adapter"
	"github.com/pcscout-dev/pcscout/pkg/agent"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/pcscout-dev/pcscout/pkg/repository"
	"github.com/pcscout-dev/pcscout/pkg/session"
	"github.com/pcscout-dev/pcscout/pkg/tool"
	"github.com/pcscout-dev/pcscout/pkg/tool/clock"
	"github.com/pcscout-dev/pcscout/pkg/tool/fetch"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
)

const systemPrompt = `You will be given a link to a web page of a computer components store.
Fetch the page to obtain its data. The page consists of a store menu, service information and search results.
Extract the store name and the search result items in a structured way; no other information is needed.
Use the current_time tool to timestamp the extraction.`

// Extractor is an agent specialization that turns a retailer search
// page into validated structured records and commits them to the
// long-term memory. Its tool set is restricted to page fetch and
// clock, and its terminal answer is schema-bound to ExtractedData.
type Extractor struct {
	agent     *agent.Agent
	gemini    adapter.Gemini
	repo      repository.Repository
	sessions  *session.Manager
	dimension int
}

// Option is a functional option for Extractor
type Option func(*config)

type config struct {
	dimension int
	tools     []tool.Tool
	agentOpts []agent.Option
}

// WithDimension sets the embedding dimension for committed items
func WithDimension(n int) Option {
	return func(c *config) {
		c.dimension = n
	}
}

// WithTools replaces the default fetch and clock tools
func WithTools(tools ...tool.Tool) Option {
	return func(c *config) {
		c.tools = tools
	}
}

// WithAgentOptions passes options through to the underlying agent
func WithAgentOptions(opts ...agent.Option) Option {
	return func(c *config) {
		c.agentOpts = append(c.agentOpts, opts...)
	}
}

// New creates an extraction sub-agent
func New(gemini adapter.Gemini, repo repository.Repository, opts ...Option) (*Extractor, error) {
	cfg := &config{
		dimension: 768,
		tools:     []tool.Tool{fetch.New(), clock.New()},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	schemaOpt, err := agent.WithOutputSchema[model.ExtractedData]()
	if err != nil {
		return nil, err
	}

	agentOpts := append([]agent.Option{
		agent.WithSystemPrompt(systemPrompt),
		schemaOpt,
	}, cfg.agentOpts...)

	return &Extractor{
		agent:     agent.New(gemini, tool.New(cfg.tools...), agentOpts...),
		gemini:    gemini,
		repo:      repo,
		sessions:  session.NewManager(),
		dimension: cfg.dimension,
	}, nil
}

// ProcessLink runs the extraction loop against the given store page
// and commits each extracted item to the repository. Commits are
// best-effort per item: a failed item is logged and skipped, it never
// aborts the batch. Zero extracted items is an empty result, not an
// error.
func (x *Extractor) ProcessLink(ctx context.Context, link string) (*model.ExtractedData, error) {
	logger := logging.From(ctx)

	// Each extraction runs in its own session so concurrent provider
	// runs never share loop state
	sess := x.sessions.Get(model.SessionID("extract_" + string(model.NewItemID())))

	message := fmt.Sprintf("Extract items from the following store page: %s", link)
	result, err := x.agent.Execute(ctx, sess, message)
	if err != nil {
		return nil, goerr.Wrap(err, "extraction loop failed", goerr.V("link", link))
	}

	var extracted model.ExtractedData
	if err := json.Unmarshal(result.Data, &extracted); err != nil {
		return nil, goerr.Wrap(err, "failed to decode extracted data", goerr.V("link", link))
	}
	if err := extracted.Validate(); err != nil {
		return nil, goerr.Wrap(err, "extracted data is incomplete", goerr.V("link", link))
	}

	if len(extracted.Items) == 0 {
		logger.Warn("no items were extracted", "link", link)
		return &extracted, nil
	}

	committed := x.commit(ctx, &extracted)
	logger.Info("extraction completed",
		"link", link,
		"store", extracted.StoreName,
		"extracted", len(extracted.Items),
		"committed", committed)

	return &extracted, nil
}

// commit writes each extracted item to the repository and returns the
// number of successful writes
func (x *Extractor) commit(ctx context.Context, extracted *model.ExtractedData) int {
	logger := logging.From(ctx)
	committed := 0

	for _, item := range extracted.Items {
		stored := extracted.ToStoredItem(item)

		embedding, err := x.gemini.Embedding(ctx, stored.Description, x.dimension)
		if err != nil {
			logger.Warn("failed to embed item description, skipping",
				"item_code", stored.ItemCode, "error", err)
			continue
		}
		if len(embedding) == 0 {
			logger.Warn("empty embedding for item description, skipping",
				"item_code", stored.ItemCode)
			continue
		}
		stored.Embedding = firestore.Vector32(embedding)

		if err := x.repo.PutItem(ctx, stored); err != nil {
			logger.Warn("failed to store item, skipping",
				"item_code", stored.ItemCode, "error", err)
			continue
		}
		committed++
	}

	return committed
}
