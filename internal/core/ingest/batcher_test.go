package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// indexProvider returns, for input "t-<n>", the vector [n, 2n]. It records
// every call so tests can assert on batch boundaries.
type indexProvider struct {
	calls   [][]string
	failAt  int // batch index to fail on, -1 for never
	badDims bool
}

func (p *indexProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	batchIdx := len(p.calls)
	p.calls = append(p.calls, texts)
	if p.failAt >= 0 && batchIdx == p.failAt {
		return nil, errors.New("quota exceeded")
	}
	out := make([][]float32, len(texts))
	for i, txt := range texts {
		n, err := strconv.Atoi(strings.TrimPrefix(txt, "t-"))
		if err != nil {
			return nil, err
		}
		if p.badDims {
			out[i] = []float32{float32(n)}
		} else {
			out[i] = []float32{float32(n), float32(2 * n)}
		}
	}
	return out, nil
}

func inputs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t-%d", i)
	}
	return out
}

func TestEmbedAllSingleBatch(t *testing.T) {
	p := &indexProvider{failAt: -1}
	b := NewBatcher(p, 100, 2, zap.NewNop().Sugar())

	vecs, err := b.EmbedAll(context.Background(), inputs(5))
	require.NoError(t, err)
	require.Len(t, vecs, 5)
	require.Len(t, p.calls, 1)

	for i, v := range vecs {
		assert.Equal(t, []float32{float32(i), float32(2 * i)}, v)
	}
}

func TestEmbedAllOrderAcrossBatches(t *testing.T) {
	p := &indexProvider{failAt: -1}
	b := NewBatcher(p, 100, 2, zap.NewNop().Sugar())

	vecs, err := b.EmbedAll(context.Background(), inputs(250))
	require.NoError(t, err)
	require.Len(t, vecs, 250)

	require.Len(t, p.calls, 3)
	assert.Len(t, p.calls[0], 100)
	assert.Len(t, p.calls[1], 100)
	assert.Len(t, p.calls[2], 50)

	for i, v := range vecs {
		assert.Equal(t, float32(i), v[0], "vector %d out of order", i)
	}
}

func TestEmbedAllBatchFailureAborts(t *testing.T) {
	p := &indexProvider{failAt: 1}
	b := NewBatcher(p, 100, 2, zap.NewNop().Sugar())

	vecs, err := b.EmbedAll(context.Background(), inputs(250))
	require.Error(t, err)
	assert.Nil(t, vecs)
	// Sequential issue: the failing batch is the last one attempted.
	assert.Len(t, p.calls, 2)
}

func TestEmbedAllDimensionMismatch(t *testing.T) {
	p := &indexProvider{failAt: -1, badDims: true}
	b := NewBatcher(p, 100, 2, zap.NewNop().Sugar())

	vecs, err := b.EmbedAll(context.Background(), inputs(3))
	require.Error(t, err)
	assert.Nil(t, vecs)
	assert.Contains(t, err.Error(), "dimension")
}

func TestEmbedAllEmptyInput(t *testing.T) {
	p := &indexProvider{failAt: -1}
	b := NewBatcher(p, 100, 2, zap.NewNop().Sugar())

	vecs, err := b.EmbedAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
	assert.Empty(t, p.calls)
}
