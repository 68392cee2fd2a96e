package domain

import "encoding/json"

// DocumentKind distinguishes the two source formats handled by the pipeline.
type DocumentKind string

const (
	KindConop DocumentKind = "conop"
	KindDraw  DocumentKind = "draw"
)

// ExtractionMethod records which form-extraction strategy produced the data.
type ExtractionMethod string

const (
	MethodXFA  ExtractionMethod = "xfa"
	MethodText ExtractionMethod = "text"
)

// Severity is the fixed risk-level enumeration every source value is folded into.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
	SeverityUnknown  Severity = "unknown"
)

// SourceDocument is a discovered file with its directory identity resolved.
// Built during directory grouping and immutable afterwards.
type SourceDocument struct {
	Path                string       `json:"path"`
	Kind                DocumentKind `json:"kind"`
	SourceDirectoryID   int          `json:"source_directory_id"`
	SourceDirectoryName string       `json:"source_directory_name"`
	SourceBaseDirectory string       `json:"source_base_directory"`
	Slug                string       `json:"slug"`
}

// ParsedConop is the normalized record extracted from one planning slide deck.
// SectionOrder preserves first-seen slide order; Sections never holds an
// empty-string value for any key.
type ParsedConop struct {
	SourceFileName      string            `json:"source_file_name"`
	Slug                string            `json:"slug"`
	Sections            map[string]string `json:"sections"`
	SectionOrder        []string          `json:"section_order"`
	SourceDirectoryID   int               `json:"source_directory_id"`
	SourceDirectoryName string            `json:"source_directory_name"`
	SourceBaseDirectory string            `json:"source_base_directory"`
}

// RiskEntry is a single normalized row of the risk table.
type RiskEntry struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Mitigation  string   `json:"mitigation"`
}

// ApprovalEntry captures one signature block. Date is ISO-8601 or nil when the
// source value could not be parsed.
type ApprovalEntry struct {
	Role string  `json:"role"`
	Name string  `json:"name"`
	Date *string `json:"date"`
}

// ParsedDraw is the normalized record extracted from one risk/approval form.
type ParsedDraw struct {
	SourceFileName      string           `json:"source_file_name"`
	ExtractionMethod    ExtractionMethod `json:"extraction_method"`
	Risks               []RiskEntry      `json:"risks"`
	Approvals           []ApprovalEntry  `json:"approvals"`
	SourceDirectoryID   int              `json:"source_directory_id"`
	SourceDirectoryName string           `json:"source_directory_name"`
	SourceBaseDirectory string           `json:"source_base_directory"`
}

// SkipRecord documents one file the batch could not extract. Append-only;
// never silently dropped.
type SkipRecord struct {
	FilePath            string       `json:"file_path"`
	Kind                DocumentKind `json:"kind"`
	Reason              string       `json:"reason"`
	SourceDirectoryName string       `json:"source_directory_name"`
	SourceDirectoryID   int          `json:"source_directory_id"`
}

// MergedRecord pairs the conop and draw of one directory. At least one side
// is always non-nil.
type MergedRecord struct {
	SourceDirectoryID   int          `json:"source_directory_id"`
	SourceDirectoryName string       `json:"source_directory_name"`
	Conop               *ParsedConop `json:"conop"`
	Draw                *ParsedDraw  `json:"draw"`
}

// BatchResult partitions every processed file into exactly one bucket.
type BatchResult struct {
	Conops  []ParsedConop `json:"conops"`
	Draws   []ParsedDraw  `json:"draws"`
	Skipped []SkipRecord  `json:"skipped"`
}

// SkipReport is the aggregate failure surface written once per batch run.
type SkipReport struct {
	GeneratedAt      string       `json:"generated_at"`
	RunID            string       `json:"run_id"`
	TotalDirectories int          `json:"total_directories"`
	SkippedCount     int          `json:"skipped_count"`
	Skipped          []SkipRecord `json:"skipped"`
}

// DrawAssessment is the confidence block a synthesis collaborator must attach
// to a generated draw.
type DrawAssessment struct {
	ConfidenceScore int      `json:"confidence_score"`
	AreasForReview  []string `json:"areas_for_review"`
	Rationale       string   `json:"rationale"`
}

// SynthesizedDraw is a draw produced by the generation collaborator rather
// than extracted from a source file.
type SynthesizedDraw struct {
	Draw       ParsedDraw     `json:"draw"`
	Assessment DrawAssessment `json:"ai_assessment"`
}

// TrainingPair is a persisted conop→draw exemplar retrieved for few-shot
// prompting.
type TrainingPair struct {
	Conop json.RawMessage `json:"conop"`
	Draw  json.RawMessage `json:"draw"`
}
