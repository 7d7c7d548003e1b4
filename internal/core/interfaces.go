package core

import (
	"context"
	"io"
	"time"

	"github.com/courseloom/backend/internal/models"
)

// DbClient defines all persistence operations the ingestion pipeline and the
// API handlers need. It abstracts Postgres/pgvector so higher layers never
// depend on a specific DB and so tests can substitute fakes.
type DbClient interface {
	CreateMaterial(ctx context.Context, m *models.Material) error
	GetMaterialByID(ctx context.Context, id string) (*models.Material, error)
	ListMaterialsByOrg(ctx context.Context, orgID string) ([]models.Material, error)
	UpdateMaterialStatus(ctx context.Context, id string, status string) error

	// InsertChunksMarkReady inserts every chunk row and flips the material to
	// "ready" inside a single transaction. On any failure the transaction is
	// rolled back and zero chunk rows survive.
	InsertChunksMarkReady(ctx context.Context, materialID string, chunks []models.Chunk) error
	GetChunksByMaterial(ctx context.Context, materialID string) ([]models.Chunk, error)

	RecordMaterialEvent(ctx context.Context, ev *models.MaterialEvent) error

	// FailStuckMaterials flips materials that have sat in "processing" longer
	// than ttl to "error" and returns their IDs.
	FailStuckMaterials(ctx context.Context, ttl time.Duration) ([]string, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) error
	DeleteFile(ctx context.Context, bucket, key string) error
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// EmbeddingProvider turns a batch of texts into one vector per text, in the
// same order. Implementations must not reorder results within a batch.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TextExtractor produces the full plain-text content of a document on local
// storage. It never mutates or deletes the file.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}
