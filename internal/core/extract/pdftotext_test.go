package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBinary writes an executable shell script standing in for pdftotext.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdftotext-fake")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestPdftotextExtractorSuccess(t *testing.T) {
	bin := fakeBinary(t, `printf 'page one text\npage two text\n'`)
	ex, err := NewPdftotextExtractor(bin, zap.NewNop().Sugar())
	require.NoError(t, err)

	text, err := ex.ExtractText(context.Background(), "/tmp/whatever.pdf")
	require.NoError(t, err)
	assert.Equal(t, "page one text\npage two text\n", text)
}

func TestPdftotextExtractorNonZeroExit(t *testing.T) {
	bin := fakeBinary(t, `echo 'Syntax Error: broken xref' >&2
exit 3`)
	ex, err := NewPdftotextExtractor(bin, zap.NewNop().Sugar())
	require.NoError(t, err)

	_, err = ex.ExtractText(context.Background(), "/tmp/whatever.pdf")
	require.Error(t, err)

	var exErr *ExtractionError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, 3, exErr.ExitCode)
	assert.Contains(t, exErr.Stderr, "Syntax Error")
}

func TestPdftotextExtractorMissingBinary(t *testing.T) {
	_, err := NewPdftotextExtractor(filepath.Join(t.TempDir(), "nope"), zap.NewNop().Sugar())
	require.Error(t, err)
}

func TestSelectorRouting(t *testing.T) {
	pdf := &stubExtractor{name: "pdf"}
	fallback := &stubExtractor{name: "fallback"}
	s := NewSelector(pdf, fallback)

	assert.Same(t, pdf, s.For("application/pdf").(*stubExtractor))
	assert.Same(t, pdf, s.For("Application/PDF; charset=binary").(*stubExtractor))
	assert.Same(t, fallback, s.For("text/html").(*stubExtractor))
	assert.Same(t, fallback, s.For("").(*stubExtractor))
}

type stubExtractor struct{ name string }

func (s *stubExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	return s.name, nil
}
