package pdfform

import (
	"strings"
	"time"

	"MissionReady/internal/domain"
)

// Normalizer folds free-text severity and date values into the fixed target
// shapes. Built once from config and shared; it holds no mutable state.
type Normalizer struct {
	severities  map[string]domain.Severity
	dateFormats []string
}

// NewNormalizer compiles the severity alias table and accepted date formats.
func NewNormalizer(aliases map[string]string, dateFormats []string) Normalizer {
	severities := make(map[string]domain.Severity, len(aliases))
	for alias, target := range aliases {
		key := strings.ToLower(strings.TrimSpace(alias))
		if key == "" {
			continue
		}
		switch domain.Severity(strings.ToLower(strings.TrimSpace(target))) {
		case domain.SeverityLow:
			severities[key] = domain.SeverityLow
		case domain.SeverityMedium:
			severities[key] = domain.SeverityMedium
		case domain.SeverityHigh:
			severities[key] = domain.SeverityHigh
		case domain.SeverityCritical:
			severities[key] = domain.SeverityCritical
		}
	}
	return Normalizer{severities: severities, dateFormats: dateFormats}
}

// Severity maps raw text onto the enumeration; unrecognized text becomes
// unknown rather than an error.
func (n Normalizer) Severity(raw string) domain.Severity {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return domain.SeverityUnknown
	}
	if severity, ok := n.severities[key]; ok {
		return severity
	}
	return domain.SeverityUnknown
}

// Date parses raw against the accepted formats and normalizes to ISO-8601.
// Unparseable input yields nil, never an error.
func (n Normalizer) Date(raw string) *string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	for _, format := range n.dateFormats {
		if parsed, err := time.Parse(format, value); err == nil {
			iso := parsed.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}
