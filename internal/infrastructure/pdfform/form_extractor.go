package pdfform

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ledongthuc/pdf"

	"MissionReady/internal/domain"
	"MissionReady/internal/extract"
)

// FormExtractor turns one risk/approval form into a normalized ParsedDraw.
//
// Extraction is a small state machine:
//
//	START → XFA_ATTEMPT → {XFA_SUCCESS | TEXT_ATTEMPT} → {TEXT_SUCCESS | FAILED}
//
// FAILED is reached only when neither strategy can get at any text at all;
// a form with text but zero entries is a validly-empty form, not a failure.
type FormExtractor struct {
	norm   Normalizer
	logger *slog.Logger
}

var _ extract.Extractor = (*FormExtractor)(nil)

// NewFormExtractor wires the value normalizer.
func NewFormExtractor(norm Normalizer, logger *slog.Logger) *FormExtractor {
	return &FormExtractor{norm: norm, logger: logger}
}

// Kind identifies the strategy inside the registry.
func (e *FormExtractor) Kind() domain.DocumentKind {
	return domain.KindDraw
}

// Extract runs the strategy pipeline over doc. ExtractionMethod on the result
// always names the branch that actually produced the data.
func (e *FormExtractor) Extract(ctx context.Context, doc domain.SourceDocument) (extract.Result, error) {
	if err := ctx.Err(); err != nil {
		return extract.Result{}, err
	}

	file, reader, err := openReader(doc.Path)
	if err != nil {
		return extract.Result{}, fmt.Errorf("%w: open pdf %s: %v", domain.ErrUnreadableDocument, doc.Path, err)
	}
	defer file.Close()

	draw, ok := e.attemptXFA(reader)
	if ok {
		draw.ExtractionMethod = domain.MethodXFA
		e.debug("xfa extraction succeeded", "path", doc.Path, "risks", len(draw.Risks))
	} else {
		draw, err = e.attemptText(reader)
		if err != nil {
			return extract.Result{}, fmt.Errorf("%w: %s", domain.ErrUnreadableDocument, doc.Path)
		}
		draw.ExtractionMethod = domain.MethodText
		e.debug("text extraction used", "path", doc.Path, "risks", len(draw.Risks))
	}

	draw.SourceFileName = doc.Path
	draw.SourceDirectoryID = doc.SourceDirectoryID
	draw.SourceDirectoryName = doc.SourceDirectoryName
	draw.SourceBaseDirectory = doc.SourceBaseDirectory
	return extract.Result{Draw: &draw}, nil
}

// openReader shields callers from the parser's panic-on-malformed behavior.
func openReader(path string) (file *os.File, reader *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			if file != nil {
				file.Close()
			}
			file, reader = nil, nil
			err = fmt.Errorf("pdf parser panic: %v", p)
		}
	}()
	return pdf.Open(path)
}

func (e *FormExtractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
