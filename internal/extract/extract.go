// Package extract provides the text-extraction collaborator used by the
// ingestion pipeline. Plain-text formats are handled directly; binary formats
// (PDF, DOCX) are registered by the embedding binary so the pipeline stays
// independent of any particular parsing library.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

// Func extracts plain text from a file of a specific format.
type Func func(path string) (string, error)

// Registry maps file extensions to extraction functions.
type Registry struct {
	byExt map[string]Func
}

// NewRegistry creates a registry with the built-in plain-text extractors.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Func)}
	r.Register(".txt", readPlainText)
	r.Register(".text", readPlainText)
	r.Register(".md", readPlainText)
	return r
}

// Register adds or replaces the extractor for an extension. The extension is
// matched case-insensitively and must include the leading dot.
func (r *Registry) Register(ext string, fn Func) {
	r.byExt[strings.ToLower(ext)] = fn
}

// Supports reports whether the path's extension has a registered extractor.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SupportedExtensions returns the registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ExtractText loads the document at path and returns its plain text.
func (r *Registry) ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := r.byExt[ext]
	if !ok {
		return "", domain.NewDomainErrorWithCause(
			domain.ErrCodeUnsupportedFormat,
			fmt.Sprintf("no extractor registered for %q", ext),
			domain.ErrUnsupportedFormat,
		)
	}
	text, err := fn(path)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", path, err)
	}
	return text, nil
}

func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
