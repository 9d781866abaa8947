package filename

import (
	"unicode/utf8"

	"github.com/matsen/retitle/internal/identify"
)

// Select reduces a candidate list to one title and one year. Each field
// is chosen independently: source priority first, confidence second,
// then title length / year recency as the final tie-break. ok is false
// when no candidate carries a title; a year alone never names a file.
func Select(candidates []identify.Candidate) (title string, year int, ok bool) {
	var bestTitle, bestYear *identify.Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Title != "" && betterTitle(c, bestTitle) {
			bestTitle = c
		}
		if c.Year != 0 && betterYear(c, bestYear) {
			bestYear = c
		}
	}

	if bestTitle == nil {
		return "", 0, false
	}
	if bestYear != nil {
		year = bestYear.Year
	}
	return bestTitle.Title, year, true
}

func betterTitle(c, cur *identify.Candidate) bool {
	if cur == nil {
		return true
	}
	if p, q := c.Source.Priority(), cur.Source.Priority(); p != q {
		return p > q
	}
	if c.Confidence != cur.Confidence {
		return c.Confidence > cur.Confidence
	}
	return utf8.RuneCountInString(c.Title) > utf8.RuneCountInString(cur.Title)
}

func betterYear(c, cur *identify.Candidate) bool {
	if cur == nil {
		return true
	}
	if p, q := c.Source.Priority(), cur.Source.Priority(); p != q {
		return p > q
	}
	if c.Confidence != cur.Confidence {
		return c.Confidence > cur.Confidence
	}
	return c.Year > cur.Year
}
