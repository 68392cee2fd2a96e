package ports

import (
	"context"
	"time"

	"MissionReady/internal/domain"
)

// DocumentSource discovers conop/draw files under the configured base
// directories with directory identities already frozen.
type DocumentSource interface {
	Discover(ctx context.Context) ([]domain.SourceDocument, error)
}

// ArtifactStore persists per-file records, merged records, and the aggregate
// skip report as JSON artifacts.
type ArtifactStore interface {
	WriteConop(conop domain.ParsedConop) error
	WriteDraw(draw domain.ParsedDraw) error
	WriteMerged(record domain.MergedRecord) error
	WriteSynthesized(directoryID int, slug string, draw domain.SynthesizedDraw) error
	WriteSkipReport(report domain.SkipReport) error
}

// PairRepository stores merged records and conop→draw training pairs in the
// relational store and retrieves similar pairs for few-shot prompting.
type PairRepository interface {
	SaveMerged(ctx context.Context, record domain.MergedRecord) error
	SavePair(ctx context.Context, record domain.MergedRecord, embedding []float64) error
	SimilarPairs(ctx context.Context, embedding []float64, limit int) ([]domain.TrainingPair, error)
}

// Embedder turns conop section text into a vector for similarity retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// DrawSynthesizer asks a generation collaborator to produce a draw for a
// conop that has none. The pipeline never depends on this path succeeding.
type DrawSynthesizer interface {
	Synthesize(ctx context.Context, conop domain.ParsedConop, examples []domain.TrainingPair) (domain.SynthesizedDraw, error)
}

// Notifier publishes the end-of-batch summary to an external channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when batch runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
