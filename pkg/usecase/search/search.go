// Package search implements similarity retrieval over the extracted
// item memory.
package search

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/adapter"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/pcscout-dev/pcscout/pkg/repository"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
)

// DefaultMaxResults bounds a retrieval when the caller does not say
// how many items it wants.
const DefaultMaxResults = 10

// Search embeds a free-text query and finds the nearest stored items
// by cosine distance. Scores sort ascending; lower means closer.
type Search struct {
	gemini    adapter.Gemini
	repo      repository.Repository
	dimension int
}

// Option is a functional option for Search
type Option func(*Search)

// WithDimension sets the query embedding dimension. It must match the
// dimension the repository was built with.
func WithDimension(n int) Option {
	return func(x *Search) {
		x.dimension = n
	}
}

// New creates the retrieval use case
func New(gemini adapter.Gemini, repo repository.Repository, opts ...Option) *Search {
	x := &Search{
		gemini:    gemini,
		repo:      repo,
		dimension: 768,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Search returns up to maxResults stored items nearest to the query
// text, ordered by ascending similarity score. A non-positive
// maxResults selects the default bound. An empty query embedding
// yields an empty result, not an error.
func (x *Search) Search(ctx context.Context, query string, maxResults int) ([]*model.RetrievedItem, error) {
	if query == "" {
		return nil, goerr.New("query text is empty")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	embedding, err := x.gemini.Embedding(ctx, query, x.dimension)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V("query", query))
	}
	if len(embedding) == 0 {
		logging.From(ctx).Warn("query produced an empty embedding", "query", query)
		return []*model.RetrievedItem{}, nil
	}

	items, err := x.repo.QueryByVector(ctx, firestore.Vector32(embedding), maxResults)
	if err != nil {
		return nil, goerr.Wrap(err, "vector query failed", goerr.V("query", query))
	}

	return items, nil
}
