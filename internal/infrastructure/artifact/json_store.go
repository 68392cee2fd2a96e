package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"MissionReady/internal/domain"
	"MissionReady/internal/ports"
)

// JSONStore writes one artifact per parsed record plus the batch skip report.
// Artifact names follow <4-digit-directory-id>-<slug>-{conop|draw}.json and
// <directory-id>-merged.json.
type JSONStore struct {
	outputDir      string
	skipReportPath string
}

var _ ports.ArtifactStore = (*JSONStore)(nil)

// NewJSONStore wires the output directory and the skip report destination.
func NewJSONStore(outputDir, skipReportPath string) *JSONStore {
	return &JSONStore{outputDir: outputDir, skipReportPath: skipReportPath}
}

// WriteConop persists one parsed conop.
func (s *JSONStore) WriteConop(conop domain.ParsedConop) error {
	name := fmt.Sprintf("%04d-%s-conop.json", conop.SourceDirectoryID, conop.Slug)
	return s.write(name, conop)
}

// WriteDraw persists one parsed draw.
func (s *JSONStore) WriteDraw(draw domain.ParsedDraw) error {
	slug := domain.Slugify(draw.SourceDirectoryName)
	name := fmt.Sprintf("%04d-%s-draw.json", draw.SourceDirectoryID, slug)
	return s.write(name, draw)
}

// WriteMerged persists one merged record.
func (s *JSONStore) WriteMerged(record domain.MergedRecord) error {
	name := fmt.Sprintf("%d-merged.json", record.SourceDirectoryID)
	return s.write(name, record)
}

// WriteSynthesized persists a collaborator-generated draw next to the
// extracted artifacts, clearly marked as generated.
func (s *JSONStore) WriteSynthesized(directoryID int, slug string, draw domain.SynthesizedDraw) error {
	name := fmt.Sprintf("%04d-%s-draw-generated.json", directoryID, slug)
	return s.write(name, draw)
}

// WriteSkipReport writes the aggregate failure report for the batch run.
func (s *JSONStore) WriteSkipReport(report domain.SkipReport) error {
	if dir := filepath.Dir(s.skipReportPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create skip report dir: %w", err)
		}
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal skip report: %w", err)
	}
	if err := os.WriteFile(s.skipReportPath, raw, 0o644); err != nil {
		return fmt.Errorf("write skip report: %w", err)
	}
	return nil
}

func (s *JSONStore) write(name string, v any) error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(s.outputDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
