// Package provider implements the data source orchestrator. It runs
// every registered retailer provider concurrently with the same
// parameters and collects whatever succeeds.
package provider

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/pcscout-dev/pcscout/pkg/tool/provider"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Result pairs a provider name with the data it extracted.
type Result struct {
	Provider string               `json:"provider"`
	Data     *model.ExtractedData `json:"data"`
}

// Orchestrator fans a parameter set out to all registered providers.
// One provider failing never affects the others; failures are logged
// and their slot is dropped from the result.
type Orchestrator struct {
	providers []provider.Provider
}

// New creates an orchestrator over the given providers
func New(providers ...provider.Provider) *Orchestrator {
	return &Orchestrator{providers: providers}
}

// Names lists the registered provider names in registration order
func (x *Orchestrator) Names() []string {
	names := make([]string, 0, len(x.providers))
	for _, p := range x.providers {
		names = append(names, p.Name())
	}
	return names
}

// Get returns the provider with the given name
func (x *Orchestrator) Get(name string) (provider.Provider, error) {
	for _, p := range x.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, goerr.New("unknown provider", goerr.V("name", name))
}

// RunAll runs every provider with the same parameters and returns the
// successful results in registration order. Providers that fail are
// excluded; when all fail the result is empty with no error.
func (x *Orchestrator) RunAll(ctx context.Context, params map[string]any) ([]*Result, error) {
	logger := logging.From(ctx)

	// Each goroutine writes only its own slot
	slots := make([]*Result, len(x.providers))

	var eg errgroup.Group
	for i, p := range x.providers {
		eg.Go(func() error {
			data, err := p.GetData(ctx, params)
			if err != nil {
				logger.Warn("provider failed, excluding from results",
					"provider", p.Name(), "error", err)
				return nil
			}
			slots[i] = &Result{Provider: p.Name(), Data: data}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, r)
		}
	}
	return results, nil
}
