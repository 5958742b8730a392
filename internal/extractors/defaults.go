package extractors

import (
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/extractors/csv"
	"github.com/custodia-labs/docrag/internal/extractors/docx"
	"github.com/custodia-labs/docrag/internal/extractors/pdf"
	"github.com/custodia-labs/docrag/internal/extractors/plaintext"
	"github.com/custodia-labs/docrag/internal/extractors/xlsx"
)

// RegisterDefaults registers all built-in extractors with the registry.
// The entity settings configure the tabular entity-score scan.
func RegisterDefaults(r *Registry, entities domain.EntitySettings) {
	r.Register(plaintext.New())
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(csv.New(csv.WithEntities(entities.Label, entities.Names)))
	r.Register(xlsx.New())
}

// NewDefaultRegistry returns a registry with all built-in extractors.
func NewDefaultRegistry(entities domain.EntitySettings) *Registry {
	r := NewRegistry()
	RegisterDefaults(r, entities)
	return r
}
