package identify

// Source names where a candidate came from.
type Source string

const (
	SourceMetadata  Source = "metadata"
	SourceBodyText  Source = "body-text"
	SourceDOILookup Source = "doi-lookup"
)

// Priority orders sources for per-field selection. Higher wins.
func (s Source) Priority() int {
	switch s {
	case SourceDOILookup:
		return 3
	case SourceMetadata:
		return 2
	case SourceBodyText:
		return 1
	default:
		return 0
	}
}

// Candidate is a tentative title and/or year for one document. A
// candidate may carry only one of the two fields; Year 0 means unknown.
type Candidate struct {
	Title      string
	Year       int
	Source     Source
	Confidence int
}

// Extraction bundles everything one pass pulled out of a document.
type Extraction struct {
	Candidates []Candidate
	DOI        string
}
