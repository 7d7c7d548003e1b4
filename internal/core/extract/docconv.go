package extract

import (
	"context"
	"fmt"

	"code.sajari.com/docconv"
)

// DocconvExtractor handles the non-PDF formats docconv understands
// (DOCX, HTML, RTF, plain text, ...).
type DocconvExtractor struct{}

func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{}
}

func (e *DocconvExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("docconv: %w", err)
	}
	return res.Body, nil
}
