package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"MissionReady/internal/domain"
)

func TestJSONStoreArtifactNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reportPath := filepath.Join(dir, "skip_report.json")
	store := NewJSONStore(dir, reportPath)

	err := store.WriteConop(domain.ParsedConop{
		SourceDirectoryID:   3,
		SourceDirectoryName: "Alpha Mission",
		Slug:                "alpha-mission",
		Sections:            map[string]string{"mission": "train"},
		SectionOrder:        []string{"mission"},
	})
	if err != nil {
		t.Fatalf("WriteConop: %v", err)
	}
	err = store.WriteDraw(domain.ParsedDraw{
		SourceDirectoryID:   3,
		SourceDirectoryName: "Alpha Mission",
		ExtractionMethod:    domain.MethodXFA,
	})
	if err != nil {
		t.Fatalf("WriteDraw: %v", err)
	}
	err = store.WriteMerged(domain.MergedRecord{SourceDirectoryID: 3})
	if err != nil {
		t.Fatalf("WriteMerged: %v", err)
	}
	err = store.WriteSynthesized(3, "alpha-mission", domain.SynthesizedDraw{})
	if err != nil {
		t.Fatalf("WriteSynthesized: %v", err)
	}

	for _, name := range []string{
		"0003-alpha-mission-conop.json",
		"0003-alpha-mission-draw.json",
		"3-merged.json",
		"0003-alpha-mission-draw-generated.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestJSONStoreSkipReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reportPath := filepath.Join(dir, "reports", "skip_report.json")
	store := NewJSONStore(dir, reportPath)

	report := domain.SkipReport{
		GeneratedAt:      "2024-05-01T00:00:00Z",
		RunID:            "run-1",
		TotalDirectories: 2,
		SkippedCount:     1,
		Skipped: []domain.SkipRecord{{
			FilePath: "bravo/broken.pdf",
			Kind:     domain.KindDraw,
			Reason:   "unreadable document",
		}},
	}
	if err := store.WriteSkipReport(report); err != nil {
		t.Fatalf("WriteSkipReport: %v", err)
	}

	raw, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded domain.SkipReport
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.RunID != "run-1" || decoded.SkippedCount != 1 {
		t.Fatalf("report did not survive the round trip: %+v", decoded)
	}
	if decoded.Skipped[0].FilePath != "bravo/broken.pdf" {
		t.Fatalf("unexpected skip record: %+v", decoded.Skipped[0])
	}
}

func TestJSONStoreConopContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewJSONStore(dir, filepath.Join(dir, "skip.json"))

	conop := domain.ParsedConop{
		SourceDirectoryID:   1,
		SourceDirectoryName: "unit",
		Slug:                "unit",
		Sections:            map[string]string{"mission": "conduct training"},
		SectionOrder:        []string{"mission"},
	}
	if err := store.WriteConop(conop); err != nil {
		t.Fatalf("WriteConop: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "0001-unit-conop.json"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var decoded domain.ParsedConop
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if decoded.Sections["mission"] != "conduct training" {
		t.Fatalf("section content lost: %+v", decoded)
	}
	if len(decoded.SectionOrder) != 1 || decoded.SectionOrder[0] != "mission" {
		t.Fatalf("section order lost: %+v", decoded)
	}
}
