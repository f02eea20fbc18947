// Package extractor turns a Wikipedia article page into a ScrapedArticle.
package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wiki-quiz/internal/domain/entity"
	"wiki-quiz/internal/utils/text"
)

const (
	// UnknownTitle is used when the page has no top-level heading.
	UnknownTitle = "Unknown Title"

	// SummaryScanLimit is how many leading paragraphs are considered for the summary.
	SummaryScanLimit = 5
	// SummaryMinLength is the exclusive lower bound on a summary paragraph's length.
	SummaryMinLength = 50
	// SummaryMaxParagraphs caps the paragraphs joined into the summary.
	SummaryMaxParagraphs = 3
	// MaxSections caps the section heading list.
	MaxSections = 15
	// FullTextMinLength is the exclusive lower bound on a body paragraph's length.
	FullTextMinLength = 30

	contentSelector   = "div#mw-content-text"
	coordinatesPrefix = "Coordinates:"
)

var (
	editMarker     = regexp.MustCompile(`\[edit\]`)
	citationMarker = regexp.MustCompile(`\[\d+\]`)

	excludedSections = map[string]struct{}{
		"Contents":       {},
		"See also":       {},
		"References":     {},
		"External links": {},
		"Notes":          {},
	}
)

// Extractor parses raw article markup. It holds no state and is safe for concurrent use.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses rawHTML into a ScrapedArticle.
// Missing parts degrade to placeholders or empty values rather than failing.
func (e *Extractor) Extract(rawHTML string) (*entity.ScrapedArticle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse article html: %w", err)
	}

	content := doc.Find(contentSelector).First()

	return &entity.ScrapedArticle{
		Title:    extractTitle(doc),
		Summary:  extractSummary(content),
		Sections: extractSections(doc),
		FullText: extractFullText(content),
		RawHTML:  rawHTML,
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	heading := doc.Find("h1#firstHeading").First()
	if heading.Length() == 0 {
		heading = doc.Find("h1").First()
	}
	if heading.Length() == 0 {
		return UnknownTitle
	}
	if title := strings.TrimSpace(heading.Text()); title != "" {
		return title
	}
	return UnknownTitle
}

func extractSummary(content *goquery.Selection) string {
	if content.Length() == 0 {
		return ""
	}

	paragraphs := make([]string, 0, SummaryMaxParagraphs)
	candidates := content.Find("p")
	if candidates.Length() > SummaryScanLimit {
		candidates = candidates.Slice(0, SummaryScanLimit)
	}
	candidates.EachWithBreak(func(_ int, p *goquery.Selection) bool {
		t := strings.TrimSpace(p.Text())
		if text.CountRunes(t) > SummaryMinLength && !strings.HasPrefix(t, coordinatesPrefix) {
			paragraphs = append(paragraphs, t)
		}
		return len(paragraphs) < SummaryMaxParagraphs
	})

	return strings.Join(paragraphs, " ")
}

func extractSections(doc *goquery.Document) []string {
	sections := make([]string, 0, MaxSections)
	doc.Find("h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		name := strings.TrimSpace(editMarker.ReplaceAllString(h.Text(), ""))
		if name == "" {
			return true
		}
		if _, skip := excludedSections[name]; skip {
			return true
		}
		sections = append(sections, name)
		return len(sections) < MaxSections
	})
	return sections
}

func extractFullText(content *goquery.Selection) string {
	if content.Length() == 0 {
		return ""
	}

	var paragraphs []string
	content.Find("p").Each(func(_ int, p *goquery.Selection) {
		t := strings.TrimSpace(p.Text())
		if text.CountRunes(t) <= FullTextMinLength {
			return
		}
		t = text.CollapseSpace(citationMarker.ReplaceAllString(t, ""))
		if t != "" {
			paragraphs = append(paragraphs, t)
		}
	})

	return strings.Join(paragraphs, "\n\n")
}
