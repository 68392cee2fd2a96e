package extract

import (
	"context"
	"testing"

	"MissionReady/internal/domain"
)

type stubExtractor struct {
	kind domain.DocumentKind
	id   int
}

func (s stubExtractor) Kind() domain.DocumentKind { return s.kind }

func (s stubExtractor) Extract(ctx context.Context, doc domain.SourceDocument) (Result, error) {
	return Result{}, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(stubExtractor{kind: domain.KindConop})

	if _, err := registry.Resolve(domain.KindConop); err != nil {
		t.Fatalf("Resolve registered kind: %v", err)
	}
	if _, err := registry.Resolve(domain.KindDraw); err == nil {
		t.Fatal("expected an error for an unregistered kind")
	}
}

func TestRegistryReplaces(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	first := stubExtractor{kind: domain.KindDraw, id: 1}
	second := stubExtractor{kind: domain.KindDraw, id: 2}
	registry.Register(first)
	registry.Register(second)

	got, err := registry.Resolve(domain.KindDraw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != second {
		t.Fatal("later registration must replace the earlier one")
	}
}
