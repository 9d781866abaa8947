// Package filename turns selected title/year candidates into legal,
// length-bounded filenames.
package filename

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Extension is the only extension this tool produces.
const Extension = ".pdf"

// invalidChars cannot appear in filenames on at least one supported
// platform.
const invalidChars = `<>:"/\|?*`

// Sanitize makes a title safe to use as a filename stem: whitespace and
// control characters collapse to single spaces, illegal characters
// become spaces, the result is NFC-normalized and stripped of trailing
// dots. An empty result means the title was never usable.
func Sanitize(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r == utf8.RuneError || unicode.IsControl(r):
			b.WriteRune(' ')
		case strings.ContainsRune(invalidChars, r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	s := strings.Join(strings.Fields(b.String()), " ")
	s = norm.NFC.String(s)
	s = strings.TrimRight(s, ". ")
	return s
}

// Build assembles the complete filename for a title, optional year
// (0 = omit), and collision marker n (effective from 2 up). The title
// is the only part that truncation may shorten: the year segment, the
// marker, and the extension always survive intact. Returns "" when no
// usable name fits within maxLen.
func Build(title string, year, n int, style Style, maxLen int) string {
	title = titleCaseIfShouting(Sanitize(title))
	if title == "" {
		return ""
	}

	var prefix, yearSeg string
	if year != 0 {
		switch style {
		case StyleSuffix:
			yearSeg = fmt.Sprintf(" (%d)", year)
		default:
			prefix = fmt.Sprintf("%d - ", year)
		}
	}
	marker := ""
	if n >= 2 {
		marker = fmt.Sprintf(" (%d)", n)
	}

	fixed := utf8.RuneCountInString(prefix) + utf8.RuneCountInString(yearSeg) +
		utf8.RuneCountInString(marker) + utf8.RuneCountInString(Extension)
	budget := maxLen - fixed
	if budget < 1 {
		return ""
	}

	title = truncateAtWordBoundary(title, budget)
	if title == "" {
		return ""
	}
	return prefix + title + yearSeg + marker + Extension
}

// truncateAtWordBoundary cuts s down to max runes, backing up to the
// last space so words stay whole. A single word longer than the budget
// is cut mid-word: there is no boundary to respect.
func truncateAtWordBoundary(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " .,;:-")
}

// titleCaseIfShouting rewrites titles that arrive fully uppercased,
// a common artifact of publisher metadata. Mixed-case titles pass
// through untouched so acronyms keep their casing.
func titleCaseIfShouting(s string) string {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < 8 || upper*10 < letters*9 {
		return s
	}
	return cases.Title(language.Und).String(strings.ToLower(s))
}
