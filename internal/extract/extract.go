package extract

import (
	"context"
	"fmt"

	"MissionReady/internal/domain"
)

// Result carries the single parsed record an extractor produced. Exactly one
// of the two pointers is set on success.
type Result struct {
	Conop *domain.ParsedConop
	Draw  *domain.ParsedDraw
}

// Extractor captures a single format strategy (slide deck, risk form).
type Extractor interface {
	Kind() domain.DocumentKind
	Extract(ctx context.Context, doc domain.SourceDocument) (Result, error)
}

// Registry keeps a mapping from document kinds to their extractors.
type Registry struct {
	extractors map[domain.DocumentKind]Extractor
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: map[domain.DocumentKind]Extractor{}}
}

// Register adds or replaces an extractor implementation.
func (r *Registry) Register(extractor Extractor) {
	if r.extractors == nil {
		r.extractors = map[domain.DocumentKind]Extractor{}
	}
	r.extractors[extractor.Kind()] = extractor
}

// Resolve returns an extractor by document kind or an error if it is absent.
func (r *Registry) Resolve(kind domain.DocumentKind) (Extractor, error) {
	if extractor, ok := r.extractors[kind]; ok {
		return extractor, nil
	}
	return nil, fmt.Errorf("no extractor registered for kind %s", kind)
}
