package identify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/matsen/retitle/internal/pdf"
)

// DOI pattern: 10.XXXX/... where XXXX is 4-9 registrant digits,
// suffix restricted to the characters DOIs actually use.
var doiPattern = regexp.MustCompile(`(?i)10\.\d{4,9}/[-._;()/:a-z0-9]+`)

// FindDOI scans metadata values then early body text; first match wins.
// Metadata keys are visited in sorted order so results are stable.
func FindDOI(doc *pdf.Document) string {
	keys := make([]string, 0, len(doc.Metadata))
	for key := range doc.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if doi := findDOI(doc.Metadata[key]); doi != "" {
			return doi
		}
	}
	return findDOI(doc.Text())
}

// findDOI finds the first valid DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		// Sentence punctuation rides along with the match.
		match = strings.TrimRight(match, ".),;")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	if slashIdx == -1 || slashIdx >= len(doi)-1 {
		return false
	}
	return true
}
