package pdfform

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"MissionReady/internal/domain"
)

// yTolerance groups positioned text items into one visual line.
const yTolerance = 2.0

var (
	riskAnchors     = []string{"risk:", "hazard:"}
	approvalAnchors = []string{"approved by:", "prepared by:", "reviewed by:"}

	// column delimiters inside a risk row: em/en dashes, or a hyphen
	// standing alone between spaces
	columnDelimExpr = regexp.MustCompile(`\s*[—–]\s*|\s+-\s+`)
)

// attemptText extracts raw page text in reading order and locates risk rows
// and approval signatures by anchor-keyword search. It fails only when the
// document yields no text at all.
func (e *FormExtractor) attemptText(reader *pdf.Reader) (domain.ParsedDraw, error) {
	lines := pageLines(reader)
	if len(lines) == 0 {
		return domain.ParsedDraw{}, domain.ErrUnreadableDocument
	}

	var draw domain.ParsedDraw
	draw.Risks, draw.Approvals = e.parseLines(lines)
	return draw, nil
}

// pageLines reassembles reading-order lines from the positioned text items of
// every page: top to bottom, then left to right.
func pageLines(reader *pdf.Reader) []string {
	var lines []string
	for num := 1; num <= reader.NumPage(); num++ {
		lines = append(lines, contentLines(reader.Page(num))...)
	}
	return lines
}

func contentLines(page pdf.Page) (lines []string) {
	defer func() {
		if recover() != nil {
			lines = nil
		}
	}()

	if page.V.Kind() == pdf.Null {
		return nil
	}

	texts := page.Content().Text
	if len(texts) == 0 {
		return nil
	}

	sort.SliceStable(texts, func(i, j int) bool {
		if texts[i].Y != texts[j].Y {
			return texts[i].Y > texts[j].Y // PDF origin is bottom-left
		}
		return texts[i].X < texts[j].X
	})

	var (
		b     strings.Builder
		lineY = texts[0].Y
	)
	flush := func() {
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
		b.Reset()
	}
	for _, t := range texts {
		if lineY-t.Y > yTolerance {
			flush()
			lineY = t.Y
		}
		b.WriteString(t.S)
	}
	flush()
	return lines
}

// parseLines runs the anchor-keyword scan. A line starting with a risk anchor
// opens a new RiskEntry; following lines extend it until the next anchor or a
// blank line. Approval anchors always close the open risk.
func (e *FormExtractor) parseLines(lines []string) ([]domain.RiskEntry, []domain.ApprovalEntry) {
	var (
		risks     []domain.RiskEntry
		approvals []domain.ApprovalEntry
		open      *domain.RiskEntry
	)
	closeRisk := func() {
		if open != nil {
			risks = append(risks, *open)
			open = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			closeRisk()
			continue
		}
		lower := strings.ToLower(trimmed)

		if rest, _, ok := matchAnchor(lower, trimmed, riskAnchors); ok {
			closeRisk()
			entry := e.parseRiskRow(rest)
			open = &entry
			continue
		}

		if rest, label, ok := matchAnchor(lower, trimmed, approvalAnchors); ok {
			closeRisk()
			approvals = append(approvals, e.parseApproval(label, rest))
			continue
		}

		if open != nil {
			// continuation lines extend mitigation once it exists,
			// the description otherwise
			if open.Mitigation != "" {
				open.Mitigation += "\n" + trimmed
			} else if open.Description != "" {
				open.Description += "\n" + trimmed
			} else {
				open.Description = trimmed
			}
		}
	}
	closeRisk()

	return risks, approvals
}

// matchAnchor reports whether the line starts with one of the anchors and
// returns the text after it plus the anchor label in its original casing.
func matchAnchor(lower, original string, anchors []string) (rest, label string, ok bool) {
	for _, anchor := range anchors {
		if strings.HasPrefix(lower, anchor) {
			rest = strings.TrimSpace(original[len(anchor):])
			label = strings.TrimSuffix(original[:len(anchor)], ":")
			return rest, label, true
		}
	}
	return "", "", false
}

// parseRiskRow splits a risk line into its columns. Column order follows the
// form layout: category, severity, description, mitigation.
func (e *FormExtractor) parseRiskRow(rest string) domain.RiskEntry {
	entry := domain.RiskEntry{Severity: domain.SeverityUnknown}

	fields := columnDelimExpr.Split(rest, -1)
	cleaned := fields[:0]
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	if len(cleaned) > 0 {
		entry.Category = cleaned[0]
	}
	if len(cleaned) > 1 {
		entry.Severity = e.norm.Severity(cleaned[1])
	}
	if len(cleaned) > 2 {
		entry.Description = cleaned[2]
	}
	if len(cleaned) > 3 {
		entry.Mitigation = strings.Join(cleaned[3:], " — ")
	}
	return entry
}

// parseApproval splits "NAME, DATE" after an approval anchor. A trailing
// segment is the date only when it actually parses as one.
func (e *FormExtractor) parseApproval(role, rest string) domain.ApprovalEntry {
	entry := domain.ApprovalEntry{Role: role, Name: rest}

	if idx := strings.LastIndex(rest, ","); idx >= 0 {
		if date := e.norm.Date(rest[idx+1:]); date != nil {
			entry.Name = strings.TrimSpace(rest[:idx])
			entry.Date = date
		}
	}
	return entry
}
