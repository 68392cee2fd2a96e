package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"MissionReady/internal/domain"
	"MissionReady/internal/ports"
)

// DirectorySource walks the configured base directories, classifies files
// into conop/draw candidates, and assigns stable per-run directory IDs.
type DirectorySource struct {
	baseDirs []string
	logger   *slog.Logger
}

var _ ports.DocumentSource = (*DirectorySource)(nil)

// NewDirectorySource wires the base directory paths in invocation order.
func NewDirectorySource(baseDirs []string, logger *slog.Logger) *DirectorySource {
	return &DirectorySource{baseDirs: baseDirs, logger: logger}
}

// Discover enumerates immediate subdirectories of each base path in
// lexicographic order and assigns IDs 1..n monotonically across bases.
// The assignment is a pure function of the enumeration order, so rerunning
// over unchanged inputs reproduces it exactly.
func (s *DirectorySource) Discover(ctx context.Context) ([]domain.SourceDocument, error) {
	var docs []domain.SourceDocument
	nextID := 0

	for _, base := range s.baseDirs {
		entries, err := os.ReadDir(base)
		if err != nil {
			return nil, fmt.Errorf("read base dir %s: %w", base, err)
		}

		// os.ReadDir already sorts by name
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !entry.IsDir() {
				continue
			}

			nextID++
			dir := filepath.Join(base, entry.Name())
			slug := domain.Slugify(entry.Name())

			files, err := os.ReadDir(dir)
			if err != nil {
				s.warn("cannot list subdirectory", "dir", dir, "error", err)
				continue
			}

			for _, file := range files {
				if file.IsDir() {
					continue
				}
				path := filepath.Join(dir, file.Name())
				kind, ok := classify(path)
				if !ok {
					continue
				}
				docs = append(docs, domain.SourceDocument{
					Path:                path,
					Kind:                kind,
					SourceDirectoryID:   nextID,
					SourceDirectoryName: entry.Name(),
					SourceBaseDirectory: base,
					Slug:                slug,
				})
			}
		}
	}

	s.debug("discovery complete", "directories", nextID, "documents", len(docs))
	return docs, nil
}

// classify decides conop/draw by extension, falling back to a content
// signature for files without a known one. Unmatched files are ignored.
func classify(path string) (domain.DocumentKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pptx":
		return domain.KindConop, true
	case ".pdf":
		return domain.KindDraw, true
	}

	magic, err := readMagic(path)
	if err != nil {
		return "", false
	}
	switch {
	case strings.HasPrefix(magic, "PK\x03\x04"):
		return domain.KindConop, true
	case strings.HasPrefix(magic, "%PDF"):
		return domain.KindDraw, true
	}
	return "", false
}

func readMagic(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 4)
	n, err := f.Read(buf)
	if n == 0 {
		return "", err
	}
	return string(buf[:n]), nil
}

func (s *DirectorySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *DirectorySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
