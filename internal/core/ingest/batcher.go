package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/courseloom/backend/internal/core"
)

// DefaultEmbedBatchSize bounds how many chunk texts go into one embedding
// request; the service caps input count per call.
const DefaultEmbedBatchSize = 100

// Batcher partitions an ordered chunk sequence into contiguous groups of at
// most batchSize and requests embeddings for each group sequentially. Output
// index i always corresponds to input index i.
type Batcher struct {
	provider  core.EmbeddingProvider
	batchSize int
	embedDim  int
	log       *zap.SugaredLogger
}

// NewBatcher builds a batcher. embedDim > 0 enables per-vector dimension
// validation against the model's expected output width.
func NewBatcher(provider core.EmbeddingProvider, batchSize, embedDim int, log *zap.SugaredLogger) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &Batcher{provider: provider, batchSize: batchSize, embedDim: embedDim, log: log}
}

// EmbedAll returns one vector per input text, in input order. Any batch
// failure aborts the whole operation; no partial result is returned.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		group := texts[start:end]
		batchIdx := start / b.batchSize

		b.log.Debugw("embedding batch", "batch", batchIdx, "items", len(group))

		vecs, err := b.provider.EmbedTexts(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w", batchIdx, err)
		}
		if len(vecs) != len(group) {
			return nil, fmt.Errorf("embed batch %d: size mismatch: got %d want %d", batchIdx, len(vecs), len(group))
		}
		if b.embedDim > 0 {
			for i, v := range vecs {
				if len(v) != b.embedDim {
					return nil, fmt.Errorf("embed batch %d: vector %d has dimension %d, want %d", batchIdx, i, len(v), b.embedDim)
				}
			}
		}
		out = append(out, vecs...)
	}
	return out, nil
}
