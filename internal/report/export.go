package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/wikicrawl/internal/model"
)

// EncodeResults writes results as a JSON array with 2-space indentation.
// Non-ASCII characters and HTML-significant characters are written
// literally. A nil slice is written as [].
func EncodeResults(w io.Writer, results []model.PageResult) error {
	if results == nil {
		results = []model.PageResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// Export writes results to path, replacing any existing file. Missing
// parent directories are created.
func Export(path string, results []model.PageResult) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-specified output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := EncodeResults(f, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// ReadResults decodes a JSON array written by EncodeResults.
func ReadResults(r io.Reader) ([]model.PageResult, error) {
	var results []model.PageResult
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	return results, nil
}
