package pptx

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"MissionReady/internal/domain"
	"MissionReady/internal/extract"
)

var slideEntryExpr = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// SlideExtractor turns one PPTX slide deck into an ordered section mapping.
type SlideExtractor struct {
	vocab  Vocabulary
	logger *slog.Logger
}

var _ extract.Extractor = (*SlideExtractor)(nil)

// NewSlideExtractor wires the compiled vocabulary table.
func NewSlideExtractor(vocab Vocabulary, logger *slog.Logger) *SlideExtractor {
	return &SlideExtractor{vocab: vocab, logger: logger}
}

// Kind identifies the strategy inside the registry.
func (e *SlideExtractor) Kind() domain.DocumentKind {
	return domain.KindConop
}

// Extract parses the deck at doc.Path and classifies every slide into the
// section vocabulary. Assignment depends only on the input bytes.
func (e *SlideExtractor) Extract(ctx context.Context, doc domain.SourceDocument) (extract.Result, error) {
	if err := ctx.Err(); err != nil {
		return extract.Result{}, err
	}

	slides, err := readDeck(doc.Path)
	if err != nil {
		return extract.Result{}, err
	}

	sections := map[string]string{}
	var order []string
	hasText := false

	for _, slide := range slides {
		title, body := splitTitle(slide)
		if title == "" && body == "" {
			continue
		}
		hasText = true

		key, matched := e.vocab.Match(title)
		text := body
		if !matched {
			key = Unclassified
			// keep the unmatched title line, it is content too
			text = strings.TrimSpace(title + "\n" + body)
		}
		if text == "" {
			continue
		}

		if existing, ok := sections[key]; ok {
			sections[key] = existing + "\n\n" + text
		} else {
			sections[key] = text
			order = append(order, key)
		}
	}

	if !hasText {
		return extract.Result{}, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, doc.Path)
	}

	e.debug("deck parsed", "path", doc.Path, "slides", len(slides), "sections", len(order))

	conop := domain.ParsedConop{
		SourceFileName:      doc.Path,
		Slug:                doc.Slug,
		Sections:            sections,
		SectionOrder:        order,
		SourceDirectoryID:   doc.SourceDirectoryID,
		SourceDirectoryName: doc.SourceDirectoryName,
		SourceBaseDirectory: doc.SourceBaseDirectory,
	}
	return extract.Result{Conop: &conop}, nil
}

// shape is one text-bearing shape of a slide, in document order.
type shape struct {
	isTitle bool
	text    string
}

func readDeck(path string) ([][]shape, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pptx %s: %v", domain.ErrUnreadableDocument, path, err)
	}
	defer archive.Close()

	type entry struct {
		num  int
		file *zip.File
	}
	var entries []entry
	for _, f := range archive.File {
		m := slideEntryExpr.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, convErr := strconv.Atoi(m[1])
		if convErr != nil {
			continue
		}
		entries = append(entries, entry{num: num, file: f})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s has no slide entries", domain.ErrUnreadableDocument, path)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].num < entries[j].num })

	slides := make([][]shape, 0, len(entries))
	for _, en := range entries {
		rc, openErr := en.file.Open()
		if openErr != nil {
			return nil, fmt.Errorf("%w: open slide %s: %v", domain.ErrUnreadableDocument, en.file.Name, openErr)
		}
		raw, readErr := io.ReadAll(rc)
		rc.Close()
		if readErr != nil {
			return nil, fmt.Errorf("%w: read slide %s: %v", domain.ErrUnreadableDocument, en.file.Name, readErr)
		}

		shapes, parseErr := parseSlide(raw)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: parse slide %s: %v", domain.ErrUnreadableDocument, en.file.Name, parseErr)
		}
		slides = append(slides, shapes)
	}

	return slides, nil
}

func parseSlide(raw []byte) ([]shape, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("slide has no root element")
	}

	var shapes []shape
	walkElements(root, func(el *etree.Element) bool {
		if el.Tag != "sp" {
			return true
		}
		shapes = append(shapes, shape{
			isTitle: isTitleShape(el),
			text:    shapeText(el),
		})
		return false // shapes do not nest
	})
	return shapes, nil
}

// walkElements visits elements depth-first in document order. The visitor
// returns false to stop descending into the current element.
func walkElements(el *etree.Element, visit func(*etree.Element) bool) {
	for _, child := range el.ChildElements() {
		if visit(child) {
			walkElements(child, visit)
		}
	}
}

func isTitleShape(sp *etree.Element) bool {
	title := false
	walkElements(sp, func(el *etree.Element) bool {
		if el.Tag == "ph" {
			switch el.SelectAttrValue("type", "") {
			case "title", "ctrTitle":
				title = true
			}
		}
		return true
	})
	return title
}

// shapeText joins the a:t runs of each paragraph, paragraphs newline-separated.
func shapeText(sp *etree.Element) string {
	var paragraphs []string
	walkElements(sp, func(el *etree.Element) bool {
		if el.Tag == "p" && el.Space == "a" {
			if text := runText(el); text != "" {
				paragraphs = append(paragraphs, text)
			}
			return false
		}
		return true
	})
	if len(paragraphs) == 0 {
		// some generators emit bare a:t runs without paragraph wrappers
		if text := runText(sp); text != "" {
			return text
		}
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n"))
}

func runText(el *etree.Element) string {
	var b strings.Builder
	walkElements(el, func(child *etree.Element) bool {
		if child.Tag == "t" {
			b.WriteString(child.Text())
			return false
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

// splitTitle picks the slide's candidate title (the first title placeholder,
// or the first non-empty line otherwise) and the remaining slide text.
func splitTitle(shapes []shape) (title, body string) {
	var rest []string
	for _, s := range shapes {
		if s.text == "" {
			continue
		}
		if s.isTitle && title == "" {
			head, tail := headLine(s.text)
			title = head
			if tail != "" {
				rest = append(rest, tail)
			}
			continue
		}
		rest = append(rest, s.text)
	}

	if title == "" && len(rest) > 0 {
		title, body = headLine(strings.Join(rest, "\n"))
		return title, body
	}

	return title, strings.TrimSpace(strings.Join(rest, "\n"))
}

// headLine splits text into its first non-empty line and everything after it.
func headLine(text string) (head, tail string) {
	lines := strings.Split(text, "\n")
	var remainder []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if head == "" {
			head = trimmed
			continue
		}
		remainder = append(remainder, line)
	}
	return head, strings.TrimSpace(strings.Join(remainder, "\n"))
}

func (e *SlideExtractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
