package ingest

import "errors"

// Pipeline stages, recorded on material_events rows when a run fails.
const (
	StageExtract   = "extract"
	StageArchive   = "archive"
	StageChunk     = "chunk"
	StageEmbed     = "embed"
	StagePersist   = "persist"
	StageReconcile = "reconcile"
)

// ErrEmptyDocument means extraction succeeded but produced no chunkable
// text. Terminal for the upload attempt.
var ErrEmptyDocument = errors.New("no extractable text")
