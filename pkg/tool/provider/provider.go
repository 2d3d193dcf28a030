// Package provider implements retailer-specific data source tools.
// Each provider knows how to build a search URL for one store and
// delegates page understanding to the extraction agent, so adding a
// store means adding one URL builder.
package provider

import (
	"context"

	"github.com/pcscout-dev/pcscout/pkg/model"
)

// Extractor turns a store search page into structured item records.
// It is implemented by the extraction sub-agent.
type Extractor interface {
	ProcessLink(ctx context.Context, link string) (*model.ExtractedData, error)
}

// Provider is a named retailer data source that can be run directly,
// outside the conversation loop, with raw parameters.
type Provider interface {
	Name() string
	GetData(ctx context.Context, params map[string]any) (*model.ExtractedData, error)
}
