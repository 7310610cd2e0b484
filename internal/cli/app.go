package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sagecor-solutions/resumeintel/internal/config"
	"github.com/sagecor-solutions/resumeintel/internal/extract"
	"github.com/sagecor-solutions/resumeintel/internal/openai"
	"github.com/sagecor-solutions/resumeintel/internal/service"
	"github.com/sagecor-solutions/resumeintel/internal/storage"
	"github.com/sagecor-solutions/resumeintel/internal/store"
	"github.com/sagecor-solutions/resumeintel/internal/telemetry"
)

// App wires configuration, the language model client, and the store manager
// into the services the commands run against.
type App struct {
	Config  *config.Config
	Stores  *store.Manager
	Ingest  *service.IngestService
	Query   *service.QueryService
	Ranking *service.RankingService

	shutdown []func()
}

// NewApp builds the full application from environment configuration. The
// caller must Close it to release cached store handles.
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppWithConfig(ctx, cfg)
}

// NewAppWithConfig builds the application from an explicit configuration.
func NewAppWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	if cfg.HasSentry() {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:         cfg.SentryDSN,
			Environment: "development",
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			app.shutdown = append(app.shutdown, shutdownTelemetry)
		}
	}

	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("RESUMEINTEL_OPENAI_API_KEY is required")
	}
	llm := openai.NewClientWithConfig(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})

	app.Stores = store.NewManager(store.DefaultOpener{})
	app.shutdown = append(app.shutdown, func() {
		if err := app.Stores.Close(); err != nil {
			log.Printf("closing stores: %v", err)
		}
	})

	opts := service.IngestOptions{LLMParsing: cfg.LLMParsing}
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		opts.Archiver = s3Client
	}

	var parsingModel service.Completer
	if cfg.LLMParsing {
		parsingModel = llm
	}
	enricher := service.NewEnricher(parsingModel)
	chunker := service.NewChunker(parsingModel, service.DefaultChunkConfig())

	app.Ingest = service.NewIngestService(
		extract.NewRegistry(),
		enricher,
		chunker,
		llm,
		app.Stores,
		cfg.StoreLocation,
		cfg.Collection,
		opts,
	)
	app.Query = service.NewQueryService(llm, llm, app.Stores, cfg.StoreLocation, cfg.Collection)
	app.Ranking = service.NewRankingService(llm, llm, app.Stores, cfg.StoreLocation, cfg.Collection)

	return app, nil
}

// WatchInterval returns the configured directory poll interval.
func (a *App) WatchInterval() time.Duration {
	return time.Duration(a.Config.WatchInterval) * time.Second
}

// Close releases everything the app holds, in reverse wiring order.
func (a *App) Close() {
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		a.shutdown[i]()
	}
}
