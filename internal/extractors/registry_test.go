package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// stubExtractor returns a fixed text, or panics.
type stubExtractor struct {
	types    []domain.FileType
	priority int
	text     string
	panics   bool
}

func (s *stubExtractor) FileTypes() []domain.FileType { return s.types }
func (s *stubExtractor) Priority() int                { return s.priority }

func (s *stubExtractor) Extract(_ context.Context, _ *domain.RawDocument) domain.ExtractionResult {
	if s.panics {
		panic("corrupt input")
	}
	return domain.ExtractionResult{Text: s.text, Status: domain.ExtractionSuccess}
}

func TestRegistry_PrefersHighestPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []domain.FileType{domain.FileTypeTXT}, priority: 5, text: "fallback"})
	r.Register(&stubExtractor{types: []domain.FileType{domain.FileTypeTXT}, priority: 60, text: "preferred"})

	result, err := r.Extract(context.Background(), &domain.RawDocument{Filename: "a.txt", Type: domain.FileTypeTXT})
	require.NoError(t, err)
	assert.Equal(t, "preferred", result.Text)
}

func TestRegistry_UnsupportedType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Extract(context.Background(), &domain.RawDocument{Filename: "a.pdf", Type: domain.FileTypePDF})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := NewRegistry().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_RecoversPanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{types: []domain.FileType{domain.FileTypePDF}, priority: 50, panics: true})

	result, err := r.Extract(context.Background(), &domain.RawDocument{Filename: "bad.pdf", Type: domain.FileTypePDF})
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionFailure, result.Status)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "corrupt input")
}

func TestNewDefaultRegistry_SupportsAllTypes(t *testing.T) {
	r := NewDefaultRegistry(domain.EntitySettings{})

	assert.ElementsMatch(t, []domain.FileType{
		domain.FileTypeCSV,
		domain.FileTypeDOCX,
		domain.FileTypeMarkdown,
		domain.FileTypePDF,
		domain.FileTypeTXT,
		domain.FileTypeXLSX,
	}, r.SupportedTypes())
}

func TestNewDefaultRegistry_ExtractsText(t *testing.T) {
	r := NewDefaultRegistry(domain.EntitySettings{})

	result, err := r.Extract(context.Background(), &domain.RawDocument{
		Filename: "notes.md",
		Type:     domain.FileTypeMarkdown,
		Content:  []byte("# Title\n\nSome notes."),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionSuccess, result.Status)
	assert.Contains(t, result.Text, "Some notes.")
}
