package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courseloom/backend/internal/core"
	"github.com/courseloom/backend/internal/models"
)

// Job carries everything the pipeline needs for one material. The upload
// handler has already created the course_materials row with status
// "processing" and assigned the storage key before the job is enqueued.
type Job struct {
	MaterialID  string
	LocalPath   string
	StorageKey  string
	ContentType string
}

// finalizeTimeout bounds the failure-path writes that run on a context
// detached from the per-job deadline.
const finalizeTimeout = 10 * time.Second

// ExtractorSelector picks the text extractor for a content type.
type ExtractorSelector interface {
	For(contentType string) core.TextExtractor
}

// Config tunes one pipeline instance.
//
// ChunkSize/ChunkOverlap: character window over normalized text.
// Bucket:                 archival destination for original bytes.
// Timeout:                per-job deadline threaded through every step.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Bucket       string
	Timeout      time.Duration
}

// Pipeline sequences extraction, archival, chunking, embedding and
// persistence for one material, and owns the temp file for the duration of
// the run. One invocation per upload; never re-entered for the same material.
type Pipeline struct {
	db         core.DbClient
	obj        core.ObjectClient
	batcher    *Batcher
	extractors ExtractorSelector
	cfg        Config
	log        *zap.SugaredLogger
}

func NewPipeline(db core.DbClient, obj core.ObjectClient, batcher *Batcher, extractors ExtractorSelector, cfg Config, log *zap.SugaredLogger) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	return &Pipeline{db: db, obj: obj, batcher: batcher, extractors: extractors, cfg: cfg, log: log}
}

// ProcessOne runs the full pipeline for a single job. The temp file is
// removed exactly once whatever the outcome; a deletion failure is logged,
// not escalated. Errors are terminal for the upload attempt: the material is
// flipped to "error" (best effort) with a durable event row, and nothing is
// retried.
func (p *Pipeline) ProcessOne(ctx context.Context, job Job) error {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	defer func() {
		if err := os.Remove(job.LocalPath); err != nil && !os.IsNotExist(err) {
			p.log.Warnw("temp file cleanup failed", "material_id", job.MaterialID, "path", job.LocalPath, "error", err)
		}
	}()

	stage, err := p.run(ctx, job)
	if err == nil {
		p.log.Infow("material ingested", "material_id", job.MaterialID)
		return nil
	}

	p.log.Errorw("ingestion failed", "material_id", job.MaterialID, "stage", stage, "error", err)

	// The finalize writes must survive the per-job deadline: when the run
	// failed because that deadline expired, the job context is already dead.
	// Detach from it, with a short deadline of its own.
	fctx, fcancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer fcancel()

	// Durable failure record first, then the best-effort status flip. Either
	// write may fail on its own; the reconciler catches materials left in
	// "processing".
	ev := &models.MaterialEvent{
		ID:         uuid.NewString(),
		MaterialID: job.MaterialID,
		Stage:      stage,
		Detail:     err.Error(),
	}
	if evErr := p.db.RecordMaterialEvent(fctx, ev); evErr != nil {
		p.log.Warnw("failure event write failed", "material_id", job.MaterialID, "error", evErr)
	}
	if stErr := p.db.UpdateMaterialStatus(fctx, job.MaterialID, models.StatusError); stErr != nil {
		p.log.Warnw("error-status update failed", "material_id", job.MaterialID, "error", stErr)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// run executes the steps in order and reports which stage failed.
func (p *Pipeline) run(ctx context.Context, job Job) (string, error) {
	text, err := p.extractors.For(job.ContentType).ExtractText(ctx, job.LocalPath)
	if err != nil {
		return StageExtract, err
	}

	if err := p.archive(ctx, job); err != nil {
		return StageArchive, err
	}

	parts := ChunkText(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(parts) == 0 {
		return StageChunk, ErrEmptyDocument
	}

	vecs, err := p.batcher.EmbedAll(ctx, parts)
	if err != nil {
		return StageEmbed, err
	}

	chunks := make([]models.Chunk, len(parts))
	for i := range parts {
		chunks[i] = models.Chunk{
			ID:         uuid.NewString(),
			MaterialID: job.MaterialID,
			Position:   i,
			Content:    parts[i],
			Embedding:  vecs[i],
		}
	}
	if err := p.db.InsertChunksMarkReady(ctx, job.MaterialID, chunks); err != nil {
		return StagePersist, err
	}
	return "", nil
}

// archive streams the original upload bytes to object storage under the
// already-assigned key.
func (p *Pipeline) archive(ctx context.Context, job Job) error {
	f, err := os.Open(job.LocalPath)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	return p.obj.UploadFile(ctx, p.cfg.Bucket, job.StorageKey, f, job.ContentType)
}
