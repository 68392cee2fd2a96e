package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"MissionReady/internal/domain"
	"MissionReady/internal/extract"
	"MissionReady/internal/ports"
)

const similarPairLimit = 5

// PipelineDeps wires all driven adapters into the batch orchestrator.
// Source, Registry, and Artifacts are required; everything else is optional
// and skipped when nil.
type PipelineDeps struct {
	Source      ports.DocumentSource
	Registry    *extract.Registry
	Artifacts   ports.ArtifactStore
	Repository  ports.PairRepository
	Embedder    ports.Embedder
	Synthesizer ports.DrawSynthesizer
	Notifier    ports.Notifier
	Logger      *slog.Logger
	Workers     int
	FileTimeout time.Duration
}

// Pipeline implements the batch extraction workflow: discover, extract in
// parallel, persist artifacts, merge, report.
type Pipeline struct {
	source      ports.DocumentSource
	registry    *extract.Registry
	artifacts   ports.ArtifactStore
	repository  ports.PairRepository
	embedder    ports.Embedder
	synthesizer ports.DrawSynthesizer
	notifier    ports.Notifier
	logger      *slog.Logger
	workers     int
	fileTimeout time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers <= 0 {
		workers = 4
	}
	fileTimeout := deps.FileTimeout
	if fileTimeout <= 0 {
		fileTimeout = 30 * time.Second
	}
	return &Pipeline{
		source:      deps.Source,
		registry:    deps.Registry,
		artifacts:   deps.Artifacts,
		repository:  deps.Repository,
		embedder:    deps.Embedder,
		synthesizer: deps.Synthesizer,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		workers:     workers,
		fileTimeout: fileTimeout,
	}
}

// ProcessBatch runs one full batch. Identity assignment happens entirely
// inside Discover and is frozen before any extraction worker starts. Every
// discovered file ends up in exactly one bucket of the result: a parsed
// record or a skip record. A single bad file never aborts the run.
func (p *Pipeline) ProcessBatch(ctx context.Context, now time.Time) error {
	if p.source == nil {
		return nil
	}

	docs, err := p.source.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover documents: %w", err)
	}
	p.info("discovery complete", "documents", len(docs))

	result := p.extractAll(ctx, docs)

	for _, conop := range result.Conops {
		if err := p.artifacts.WriteConop(conop); err != nil {
			return fmt.Errorf("write conop artifact: %w", err)
		}
	}
	for _, draw := range result.Draws {
		if err := p.artifacts.WriteDraw(draw); err != nil {
			return fmt.Errorf("write draw artifact: %w", err)
		}
	}

	outcome := MergeRecords(result.Conops, result.Draws)
	for _, warning := range outcome.Warnings {
		p.warn("ambiguous pairing", "detail", warning)
	}
	for _, record := range outcome.Records {
		if err := p.artifacts.WriteMerged(record); err != nil {
			return fmt.Errorf("write merged artifact: %w", err)
		}
		if p.repository != nil {
			if err := p.repository.SaveMerged(ctx, record); err != nil {
				p.warn("merged record upload failed", "directory_id", record.SourceDirectoryID, "error", err)
			}
		}
	}

	p.ingestTrainingPairs(ctx, outcome.Records)
	p.synthesizeMissingDraws(ctx, outcome.Records)

	report := domain.SkipReport{
		GeneratedAt:      now.UTC().Format(time.RFC3339),
		RunID:            uuid.NewString(),
		TotalDirectories: countDirectories(docs),
		SkippedCount:     len(result.Skipped),
		Skipped:          result.Skipped,
	}
	if err := p.artifacts.WriteSkipReport(report); err != nil {
		return fmt.Errorf("write skip report: %w", err)
	}

	summary := fmt.Sprintf("batch complete: %d conops, %d draws, %d merged, %d skipped",
		len(result.Conops), len(result.Draws), len(outcome.Records), len(result.Skipped))
	p.info(summary,
		"conops", len(result.Conops),
		"draws", len(result.Draws),
		"merged", len(outcome.Records),
		"skipped", len(result.Skipped))
	if p.notifier != nil {
		if err := p.notifier.PublishSummary(ctx, summary); err != nil {
			p.warn("summary notification failed", "error", err)
		}
	}

	return nil
}

// extractAll fans extraction out over a bounded worker pool. Appends to the
// shared result are the only cross-worker state and are serialized by one
// mutex. Output slices are sorted afterwards so artifacts and the skip
// report do not depend on worker scheduling.
func (p *Pipeline) extractAll(ctx context.Context, docs []domain.SourceDocument) domain.BatchResult {
	var (
		mu     sync.Mutex
		result domain.BatchResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			res, err := p.extractOne(gctx, doc)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				p.warn("file skipped", "path", doc.Path, "reason", err)
				result.Skipped = append(result.Skipped, domain.SkipRecord{
					FilePath:            doc.Path,
					Kind:                doc.Kind,
					Reason:              err.Error(),
					SourceDirectoryName: doc.SourceDirectoryName,
					SourceDirectoryID:   doc.SourceDirectoryID,
				})
			case res.Conop != nil:
				result.Conops = append(result.Conops, *res.Conop)
			case res.Draw != nil:
				result.Draws = append(result.Draws, *res.Draw)
			default:
				result.Skipped = append(result.Skipped, domain.SkipRecord{
					FilePath:            doc.Path,
					Kind:                doc.Kind,
					Reason:              "extractor produced no record",
					SourceDirectoryName: doc.SourceDirectoryName,
					SourceDirectoryID:   doc.SourceDirectoryID,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(result.Conops, func(i, j int) bool {
		if result.Conops[i].SourceDirectoryID != result.Conops[j].SourceDirectoryID {
			return result.Conops[i].SourceDirectoryID < result.Conops[j].SourceDirectoryID
		}
		return result.Conops[i].SourceFileName < result.Conops[j].SourceFileName
	})
	sort.SliceStable(result.Draws, func(i, j int) bool {
		if result.Draws[i].SourceDirectoryID != result.Draws[j].SourceDirectoryID {
			return result.Draws[i].SourceDirectoryID < result.Draws[j].SourceDirectoryID
		}
		return result.Draws[i].SourceFileName < result.Draws[j].SourceFileName
	})
	sort.SliceStable(result.Skipped, func(i, j int) bool {
		if result.Skipped[i].SourceDirectoryID != result.Skipped[j].SourceDirectoryID {
			return result.Skipped[i].SourceDirectoryID < result.Skipped[j].SourceDirectoryID
		}
		return result.Skipped[i].FilePath < result.Skipped[j].FilePath
	})

	return result
}

// extractOne resolves the extractor for the document kind and bounds the
// call with the per-file timeout. A timeout is a skip-worthy failure, not a
// run-aborting one.
func (p *Pipeline) extractOne(ctx context.Context, doc domain.SourceDocument) (extract.Result, error) {
	extractor, err := p.registry.Resolve(doc.Kind)
	if err != nil {
		return extract.Result{}, err
	}

	fctx, cancel := context.WithTimeout(ctx, p.fileTimeout)
	defer cancel()

	type outcome struct {
		res extract.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, extractErr := extractor.Extract(fctx, doc)
		done <- outcome{res: res, err: extractErr}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-fctx.Done():
		return extract.Result{}, fmt.Errorf("extraction timed out after %s", p.fileTimeout)
	}
}

// ingestTrainingPairs stores complete conop→draw pairs with embeddings so
// future synthesis calls can retrieve them as few-shot examples.
func (p *Pipeline) ingestTrainingPairs(ctx context.Context, records []domain.MergedRecord) {
	if p.repository == nil || p.embedder == nil {
		return
	}

	for _, record := range records {
		if record.Conop == nil || record.Draw == nil {
			continue
		}
		embedding, err := p.embedder.Embed(ctx, conopText(*record.Conop))
		if err != nil {
			p.warn("embedding failed", "directory_id", record.SourceDirectoryID, "error", err)
			continue
		}
		if err := p.repository.SavePair(ctx, record, embedding); err != nil {
			p.warn("training pair insert failed", "directory_id", record.SourceDirectoryID, "error", err)
		}
	}
}

// synthesizeMissingDraws asks the generation collaborator for a draw wherever
// a directory produced only a conop. Failures are logged and skipped; the
// batch never depends on this path.
func (p *Pipeline) synthesizeMissingDraws(ctx context.Context, records []domain.MergedRecord) {
	if p.synthesizer == nil {
		return
	}

	for _, record := range records {
		if record.Conop == nil || record.Draw != nil {
			continue
		}

		var examples []domain.TrainingPair
		if p.repository != nil && p.embedder != nil {
			if embedding, err := p.embedder.Embed(ctx, conopText(*record.Conop)); err == nil {
				examples, err = p.repository.SimilarPairs(ctx, embedding, similarPairLimit)
				if err != nil {
					p.warn("similar pair retrieval failed", "directory_id", record.SourceDirectoryID, "error", err)
				}
			}
		}

		synthesized, err := p.synthesizer.Synthesize(ctx, *record.Conop, examples)
		if err != nil {
			p.warn("draw synthesis failed", "directory_id", record.SourceDirectoryID, "error", err)
			continue
		}
		if err := p.artifacts.WriteSynthesized(record.SourceDirectoryID, record.Conop.Slug, synthesized); err != nil {
			p.warn("synthesized draw write failed", "directory_id", record.SourceDirectoryID, "error", err)
			continue
		}
		p.info("draw synthesized",
			"directory_id", record.SourceDirectoryID,
			"confidence", synthesized.Assessment.ConfidenceScore)
	}
}

// conopText flattens the section mapping in its recorded order for embedding.
func conopText(conop domain.ParsedConop) string {
	parts := make([]string, 0, len(conop.SectionOrder))
	for _, key := range conop.SectionOrder {
		if text := conop.Sections[key]; text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func countDirectories(docs []domain.SourceDocument) int {
	seen := map[int]struct{}{}
	for _, doc := range docs {
		seen[doc.SourceDirectoryID] = struct{}{}
	}
	return len(seen)
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
