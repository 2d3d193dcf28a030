package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/adapter"
	"github.com/pcscout-dev/pcscout/pkg/agent"
	"github.com/pcscout-dev/pcscout/pkg/agent/extractor"
	"github.com/pcscout-dev/pcscout/pkg/repository"
	"github.com/pcscout-dev/pcscout/pkg/service/mcp"
	"github.com/pcscout-dev/pcscout/pkg/tool"
	"github.com/pcscout-dev/pcscout/pkg/tool/clock"
	"github.com/pcscout-dev/pcscout/pkg/tool/fetch"
	"github.com/pcscout-dev/pcscout/pkg/tool/provider"
	"github.com/pcscout-dev/pcscout/pkg/tool/search"
	provideruc "github.com/pcscout-dev/pcscout/pkg/usecase/provider"
	queryuc "github.com/pcscout-dev/pcscout/pkg/usecase/query"
	searchuc "github.com/pcscout-dev/pcscout/pkg/usecase/search"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values shared across commands
type config struct {
	logLevel string

	// Gemini
	geminiProject  string
	geminiLocation string
	geminiModel    string
	embeddingModel string

	// Firestore
	firestoreProject  string
	firestoreDatabase string
	collection        string

	// Snapshot archive
	bucket string

	dimension     int
	windowSize    int
	maxIterations int

	mcpConfig string
}

// globalFlags returns common flags with destinations in cfg
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("PCSCOUT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Generative model name",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("PCSCOUT_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("PCSCOUT_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for Firestore",
			Sources:     cli.EnvVars("FIRESTORE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Firestore collection for extracted items",
			Value:       "extracted_items",
			Sources:     cli.EnvVars("PCSCOUT_COLLECTION"),
			Destination: &cfg.collection,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "GCS bucket for raw page snapshots (optional)",
			Sources:     cli.EnvVars("PCSCOUT_SNAPSHOT_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Value:       768,
			Sources:     cli.EnvVars("PCSCOUT_EMBEDDING_DIMENSION"),
			Destination: &cfg.dimension,
		},
		&cli.IntFlag{
			Name:        "window-size",
			Usage:       "Number of history messages handed to the model",
			Value:       50,
			Sources:     cli.EnvVars("PCSCOUT_WINDOW_SIZE"),
			Destination: &cfg.windowSize,
		},
		&cli.IntFlag{
			Name:        "max-iterations",
			Usage:       "Model call limit per agent run",
			Value:       16,
			Sources:     cli.EnvVars("PCSCOUT_MAX_ITERATIONS"),
			Destination: &cfg.maxIterations,
		},
		&cli.StringFlag{
			Name:        "mcp-config",
			Usage:       "Path to MCP servers configuration file (optional)",
			Sources:     cli.EnvVars("PCSCOUT_MCP_CONFIG"),
			Destination: &cfg.mcpConfig,
		},
	}
}

// newGemini creates a Gemini adapter from the configuration
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithGenerativeModel(cfg.geminiModel),
		adapter.WithEmbeddingModel(cfg.embeddingModel))
}

// newRepository creates the Firestore item repository
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.firestoreProject == "" {
		return nil, goerr.New("firestore-project is required")
	}
	if cfg.firestoreDatabase == "" {
		return nil, goerr.New("firestore-database is required")
	}

	repo, err := repository.NewFirestore(ctx, cfg.firestoreProject, cfg.firestoreDatabase, cfg.collection, cfg.dimension)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newStorage creates the snapshot archive. It returns nil without
// error when no bucket is configured.
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// runtime is the assembled application: adapters, tools and use cases
type runtime struct {
	gemini       adapter.Gemini
	repo         repository.Repository
	query        *queryuc.Query
	search       *searchuc.Search
	orchestrator *provideruc.Orchestrator
}

// build wires the full application from the configuration
func (cfg *config) build(ctx context.Context) (*runtime, error) {
	logging.SetDefault(logging.New(cfg.logLevel, nil))

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}

	var fetchOpts []fetch.Option
	if storage != nil {
		fetchOpts = append(fetchOpts, fetch.WithArchive(storage))
	}

	ext, err := extractor.New(gemini, repo,
		extractor.WithDimension(cfg.dimension),
		extractor.WithTools(fetch.New(fetchOpts...), clock.New()),
		extractor.WithAgentOptions(agent.WithMaxIterations(cfg.maxIterations)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create extractor")
	}

	links := provider.NewLinks(ext)
	protis := provider.NewProtis(ext)

	tools := []tool.Tool{
		clock.New(),
		search.New(),
		links,
		protis,
	}

	mcpTool, err := mcp.LoadAndConnect(ctx, cfg.mcpConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to set up MCP servers")
	}
	if mcpTool != nil {
		tools = append(tools, mcpTool)
	}

	return &runtime{
		gemini: gemini,
		repo:   repo,
		query: queryuc.New(gemini, tool.New(tools...),
			agent.WithWindowSize(cfg.windowSize),
			agent.WithMaxIterations(cfg.maxIterations)),
		search:       searchuc.New(gemini, repo, searchuc.WithDimension(cfg.dimension)),
		orchestrator: provideruc.New(links, protis),
	}, nil
}
