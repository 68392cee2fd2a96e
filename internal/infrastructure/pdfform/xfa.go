package pdfform

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/ledongthuc/pdf"

	"MissionReady/internal/domain"
)

// Static field table for the DD2977 datasets tree (data/form1/Page1):
//
//	Two                       prepared date
//	A                         preparer name
//	C                         preparer duty title
//	Part4thru9/Row1 rows      risk table
//	  Subtask-Substep         category
//	  Hazard                  description
//	  InitialRiskLevel / RRL  severity
//	  Control                 mitigation
//
// A field absent in the source yields unknown/nil in the target, not a failure.

// attemptXFA inspects the document for an embedded structured-form segment
// and maps its field tree. Returns false when no readable segment exists,
// handing control to the text strategy.
func (e *FormExtractor) attemptXFA(reader *pdf.Reader) (domain.ParsedDraw, bool) {
	packet, ok := datasetsPacket(reader)
	if !ok {
		return domain.ParsedDraw{}, false
	}
	draw, err := e.parseDatasets(packet)
	if err != nil {
		e.debug("xfa packet unparseable, falling back to text", "error", err)
		return domain.ParsedDraw{}, false
	}
	return draw, true
}

// datasetsPacket locates Root→AcroForm→XFA and returns the datasets stream.
// The XFA entry is either a single packet stream or an array of name/stream
// pairs.
func datasetsPacket(reader *pdf.Reader) (packet []byte, ok bool) {
	defer func() {
		if recover() != nil {
			packet, ok = nil, false
		}
	}()

	xfa := reader.Trailer().Key("Root").Key("AcroForm").Key("XFA")
	switch xfa.Kind() {
	case pdf.Stream:
		return readStream(xfa)
	case pdf.Array:
		for i := 0; i+1 < xfa.Len(); i += 2 {
			name := xfa.Index(i)
			if name.Kind() != pdf.String || name.RawString() != "datasets" {
				continue
			}
			return readStream(xfa.Index(i + 1))
		}
	}
	return nil, false
}

func readStream(value pdf.Value) ([]byte, bool) {
	if value.Kind() != pdf.Stream {
		return nil, false
	}
	rc := value.Reader()
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// parseDatasets maps the datasets XML onto RiskEntry/ApprovalEntry slots via
// the static field table. Namespace prefixes vary between producers, so the
// walk matches local tag names only.
func (e *FormExtractor) parseDatasets(packet []byte) (domain.ParsedDraw, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(packet); err != nil {
		return domain.ParsedDraw{}, fmt.Errorf("parse datasets xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return domain.ParsedDraw{}, fmt.Errorf("datasets packet has no root element")
	}

	page := findByTag(root, "Page1")
	if page == nil {
		return domain.ParsedDraw{}, fmt.Errorf("datasets packet has no Page1 node")
	}

	var draw domain.ParsedDraw

	date := e.norm.Date(childText(page, "Two"))
	if name := strings.TrimSpace(childText(page, "A")); name != "" {
		role := "Prepared by"
		if title := strings.TrimSpace(childText(page, "C")); title != "" {
			role = title
		}
		draw.Approvals = append(draw.Approvals, domain.ApprovalEntry{
			Role: role,
			Name: name,
			Date: date,
		})
	}

	if part := findByTag(page, "Part4thru9"); part != nil {
		for _, row := range part.ChildElements() {
			if row.Tag != "Row1" {
				continue
			}
			entry := domain.RiskEntry{
				Category:    strings.TrimSpace(childText(row, "Subtask-Substep")),
				Description: strings.TrimSpace(childText(row, "Hazard")),
				Mitigation:  strings.TrimSpace(childText(row, "Control")),
			}
			level := childText(row, "InitialRiskLevel")
			if strings.TrimSpace(level) == "" {
				level = childText(row, "RRL")
			}
			entry.Severity = e.norm.Severity(level)

			// untouched template rows carry no content at all
			if entry.Category == "" && entry.Description == "" && entry.Mitigation == "" {
				continue
			}
			draw.Risks = append(draw.Risks, entry)
		}
	}

	return draw, nil
}

// findByTag returns the first descendant with the given local tag name,
// depth-first in document order.
func findByTag(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
		if found := findByTag(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// childText returns the text of the first direct child with the given tag.
func childText(el *etree.Element, tag string) string {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child.Text()
		}
	}
	return ""
}
