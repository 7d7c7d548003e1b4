package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ExtractionError reports a text-extraction subprocess that exited non-zero.
// Stderr is kept for logging only, never surfaced to end users.
type ExtractionError struct {
	ExitCode int
	Stderr   string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed with exit code %d", e.ExitCode)
}

// PdftotextExtractor shells out to poppler's pdftotext and reads page text
// from its stdout. Stdout is consumed through a pipe so large PDFs never
// require a single unbounded read.
type PdftotextExtractor struct {
	binary string
	log    *zap.SugaredLogger
}

func NewPdftotextExtractor(binary string, log *zap.SugaredLogger) (*PdftotextExtractor, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "pdftotext"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", binary, err)
	}
	return &PdftotextExtractor{binary: binary, log: log}, nil
}

// ExtractText runs `pdftotext -enc UTF-8 -q <path> -` and returns the
// concatenated page text in source order. The file is only read, never
// mutated or deleted.
func (e *PdftotextExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, e.binary, "-enc", "UTF-8", "-q", path, "-")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("pdftotext stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start pdftotext: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, stdout); err != nil {
		_ = cmd.Wait()
		return "", fmt.Errorf("read pdftotext output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			diag := strings.TrimSpace(stderr.String())
			e.log.Errorw("pdftotext failed", "path", path, "exit_code", ee.ExitCode(), "stderr", diag)
			return "", &ExtractionError{ExitCode: ee.ExitCode(), Stderr: diag}
		}
		return "", fmt.Errorf("pdftotext: %w", err)
	}

	return sb.String(), nil
}
