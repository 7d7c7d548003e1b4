package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/courseloom/backend/internal/config"
	"github.com/courseloom/backend/internal/core"
	db "github.com/courseloom/backend/internal/core/database"
	"github.com/courseloom/backend/internal/core/extract"
	"github.com/courseloom/backend/internal/core/ingest"
	"github.com/courseloom/backend/internal/core/llm"
	"github.com/courseloom/backend/internal/core/objectstore"
)

// App owns every long-lived dependency. All clients are constructed here and
// injected downward; nothing holds package-level state.
type App struct {
	DBClient   core.DbClient
	Embedder   *llm.GeminiEmbedder
	Worker     *ingest.Worker
	Reconciler *ingest.Reconciler
	Server     *Server

	cfg *config.Config
	log *zap.SugaredLogger
}

func NewApp(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(initCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized and bootstrapped")

	objClient, err := objectstore.NewS3Client(initCtx, cfg, log)
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewGeminiEmbedder(initCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
	}

	pdfExtractor, err := extract.NewPdftotextExtractor(cfg.PdftotextPath, log)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the pdf extractor: %w", err)
	}
	extractors := extract.NewSelector(pdfExtractor, extract.NewDocconvExtractor())

	batcher := ingest.NewBatcher(embedder, cfg.EmbedBatchSize, cfg.EmbedDim, log)
	pipeline := ingest.NewPipeline(dbClient, objClient, batcher, extractors, ingest.Config{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Bucket:       cfg.BucketName,
		Timeout:      cfg.PipelineTimeout,
	}, log)

	worker := ingest.NewWorker(pipeline, 64, log)
	reconciler := ingest.NewReconciler(dbClient, cfg.StuckTTL, cfg.ReconcileInterval, log)

	server := NewServer(cfg, dbClient, worker, log)

	return &App{
		DBClient:   dbClient,
		Embedder:   embedder,
		Worker:     worker,
		Reconciler: reconciler,
		Server:     server,
		cfg:        cfg,
		log:        log,
	}, nil
}

// Start launches the ingest workers, the reconciler, and the HTTP server.
// It returns immediately; cancel the context to begin shutdown.
func (a *App) Start(ctx context.Context) {
	a.Worker.Start(ctx, a.cfg.IngestWorkers)
	go a.Reconciler.Run(ctx)
	go a.Server.Start()
}

// Close drains workers and releases clients.
func (a *App) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.log.Warnw("server shutdown failed", "error", err)
		}
	}
	if a.Worker != nil {
		_ = a.Worker.Wait()
	}
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
