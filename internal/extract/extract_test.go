package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe\nSecurity Engineer"), 0o644))

	r := NewRegistry()
	text, err := r.ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSecurity Engineer", text)
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	r := NewRegistry()

	_, err := r.ExtractText("resume.xyz")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRegisterCustomFormat(t *testing.T) {
	r := NewRegistry()
	r.Register(".PDF", func(path string) (string, error) {
		return "parsed pdf", nil
	})

	require.True(t, r.Supports("cv.pdf"))
	text, err := r.ExtractText("cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "parsed pdf", text)
}

func TestExtractorErrorIsWrapped(t *testing.T) {
	sentinel := errors.New("corrupt file")
	r := NewRegistry()
	r.Register(".pdf", func(path string) (string, error) {
		return "", sentinel
	})

	_, err := r.ExtractText("cv.pdf")
	assert.ErrorIs(t, err, sentinel)
}

func TestSupportedExtensions(t *testing.T) {
	r := NewRegistry()
	assert.Contains(t, r.SupportedExtensions(), ".txt")
	assert.Contains(t, r.SupportedExtensions(), ".md")
	assert.False(t, r.Supports("file.docx"))
}
