package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// text without whitespace so normalization is the identity and offsets are
// easy to reason about.
func syntheticText(n int) string {
	r := make([]rune, n)
	for i := range r {
		r[i] = rune('a' + i%26)
	}
	return string(r)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "foo bar baz", NormalizeText("  foo\n\n bar\tbaz \r\n"))
	assert.Equal(t, "", NormalizeText(" \t\n "))
	assert.Equal(t, "single", NormalizeText("single"))
}

func TestChunkTextOffsets(t *testing.T) {
	// 2500 chars, size 1000, overlap 100 -> starts at 0, 900, 1800.
	text := syntheticText(2500)
	chunks := ChunkText(text, 1000, 100)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 700)

	runes := []rune(text)
	assert.Equal(t, string(runes[0:1000]), chunks[0])
	assert.Equal(t, string(runes[900:1900]), chunks[1])
	assert.Equal(t, string(runes[1800:2500]), chunks[2])
}

func TestChunkTextDeterministic(t *testing.T) {
	text := syntheticText(3123)
	first := ChunkText(text, 1000, 100)
	second := ChunkText(text, 1000, 100)
	assert.Equal(t, first, second)
}

func TestChunkTextCoverage(t *testing.T) {
	// Placing every chunk at its known start offset must reconstruct the
	// normalized text exactly.
	for _, n := range []int{1, 999, 1000, 1001, 1850, 2500, 5407} {
		text := syntheticText(n)
		chunks := ChunkText(text, 1000, 100)
		require.NotEmpty(t, chunks, "n=%d", n)

		step := 1000 - 100
		rebuilt := make([]rune, n)
		for i, ch := range chunks {
			copy(rebuilt[i*step:], []rune(ch))
		}
		assert.Equal(t, text, string(rebuilt), "n=%d", n)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, ChunkText("", 1000, 100))
	assert.Empty(t, ChunkText("   \n\t  ", 1000, 100))
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("tiny", 1000, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny", chunks[0])
}

func TestChunkTextNormalizesBeforeChunking(t *testing.T) {
	text := strings.Repeat("word \n", 300) // 1500 normalized chars
	chunks := ChunkText(text, 1000, 100)
	for _, ch := range chunks {
		assert.NotContains(t, ch, "\n")
		assert.NotContains(t, ch, "  ")
	}
}
