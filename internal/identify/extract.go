// Package identify derives title, year, and DOI candidates from loaded
// documents.
package identify

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/matsen/retitle/internal/pdf"
)

var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// placeholderMarkers disqualify a metadata title outright. Word
// processors and scanners write these instead of real titles.
var placeholderMarkers = []string{"microsoft word", "untitled", "doi", "title"}

// Extractor runs the candidate strategies over a document.
type Extractor struct {
	maxYear int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxYear sets the upper bound of the plausible year range.
// Defaults to next year.
func WithMaxYear(year int) Option {
	return func(e *Extractor) {
		e.maxYear = year
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{maxYear: time.Now().Year() + 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs every strategy over the document. Strategies are
// independent: each contributes at most one candidate, and a document
// with nothing usable simply yields an empty candidate list.
func (e *Extractor) Extract(doc *pdf.Document) Extraction {
	var out Extraction

	stem := strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path))
	if title, ok := metadataTitle(doc.Metadata, stem); ok {
		out.Candidates = append(out.Candidates, Candidate{
			Title:      title,
			Source:     SourceMetadata,
			Confidence: 2,
		})
	}
	if year, ok := e.metadataYear(doc.Metadata); ok {
		out.Candidates = append(out.Candidates, Candidate{
			Year:       year,
			Source:     SourceMetadata,
			Confidence: 2,
		})
	}

	text := doc.Text()
	if title, ok := bodyTitle(text); ok {
		out.Candidates = append(out.Candidates, Candidate{
			Title:      title,
			Source:     SourceBodyText,
			Confidence: 1,
		})
	}
	if year, ok := e.bodyYear(text); ok {
		out.Candidates = append(out.Candidates, Candidate{
			Year:       year,
			Source:     SourceBodyText,
			Confidence: 1,
		})
	}

	out.DOI = FindDOI(doc)
	return out
}

// metadataTitle accepts the Title field unless it is short, a known
// placeholder, or just the filename stem echoed back.
func metadataTitle(meta map[string]string, stem string) (string, bool) {
	title := strings.TrimSpace(meta["Title"])
	if utf8.RuneCountInString(title) < 8 {
		return "", false
	}
	lower := strings.ToLower(title)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return "", false
		}
	}
	if normalizeForCompare(title) == normalizeForCompare(stem) {
		return "", false
	}
	return title, true
}

func (e *Extractor) metadataYear(meta map[string]string) (int, bool) {
	for _, key := range []string{"CreationDate", "ModDate"} {
		if year, ok := e.pdfDateYear(meta[key]); ok {
			return year, true
		}
	}
	return 0, false
}

// pdfDateYear pulls the year out of a PDF date string (D:YYYYMMDDHHmmSS
// with optional timezone), tolerating truncated or junk-suffixed values.
func (e *Extractor) pdfDateYear(value string) (int, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "D:")
	if len(value) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(value[:4])
	if err != nil || !e.plausibleYear(year) {
		return 0, false
	}
	return year, true
}

// bodyTitle returns the first title-like line of the body text: long
// enough to be a title, mostly letters, and not obvious boilerplate.
func bodyTitle(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n < 20 || n > 200 {
			continue
		}
		if !mostlyLetters(line) {
			continue
		}
		if isBoilerplate(line) {
			continue
		}
		return line, true
	}
	return "", false
}

// bodyYear returns the most recent plausible 4-digit year in the text.
func (e *Extractor) bodyYear(text string) (int, bool) {
	best := 0
	for _, match := range yearPattern.FindAllString(text, -1) {
		year, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if e.plausibleYear(year) && year > best {
			best = year
		}
	}
	return best, best != 0
}

func (e *Extractor) plausibleYear(year int) bool {
	return year >= 1900 && year <= e.maxYear
}

func mostlyLetters(line string) bool {
	letters, total := 0, 0
	for _, r := range line {
		total++
		if unicode.IsLetter(r) || r == ' ' {
			letters++
		}
	}
	return total > 0 && float64(letters)/float64(total) >= 0.6
}

// isBoilerplate checks if a line is a running header, banner, or venue
// stamp rather than a title.
func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range []string{"arxiv:", "doi:", "http://", "https://", "www.", "issn", "isbn", "vol.", "no."} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	if strings.Contains(lower, "arxiv") {
		return true
	}
	if strings.Contains(lower, "journal") {
		return true
	}
	if strings.Contains(lower, "volume") && strings.Contains(lower, "issue") {
		return true
	}
	if strings.Contains(lower, "copyright") || strings.Contains(lower, "©") {
		return true
	}
	if strings.Contains(lower, "proceedings") || strings.Contains(lower, "conference on") {
		return true
	}
	if strings.Contains(lower, "preprint") || strings.Contains(lower, "under review") {
		return true
	}
	return false
}

func normalizeForCompare(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
