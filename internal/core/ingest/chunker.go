package ingest

import (
	"strings"
)

// Default chunking knobs. A chunk is a fixed-size window over the normalized
// text; consecutive windows share overlap characters of context.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// NormalizeText collapses every whitespace run (spaces, tabs, line breaks)
// into a single space and trims the ends. Chunk boundaries therefore never
// align with the original line breaks.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ChunkText normalizes text and slices it into fixed-size overlapping
// substrings. Offsets advance by size-overlap each step; the final chunk may
// be shorter than size. Pure character (rune) arithmetic: a chunk may split
// a word or sentence. Empty or whitespace-only input yields a nil slice,
// which callers treat as "no extractable text".
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 10
		}
	}

	runes := []rune(NormalizeText(text))
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
