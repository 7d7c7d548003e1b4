package extract

import (
	"strings"

	"github.com/courseloom/backend/internal/core"
)

// Selector routes a content type to the extractor that handles it.
type Selector struct {
	pdf      core.TextExtractor
	fallback core.TextExtractor
}

func NewSelector(pdf, fallback core.TextExtractor) *Selector {
	return &Selector{pdf: pdf, fallback: fallback}
}

func (s *Selector) For(contentType string) core.TextExtractor {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "application/pdf" {
		return s.pdf
	}
	return s.fallback
}
