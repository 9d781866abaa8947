package filename

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "  A   Study\t of\n Things ", "A Study of Things"},
		{"replaces illegal characters", `Graphs: Theory/Practice?`, "Graphs Theory Practice"},
		{"every reserved character", `a<b>c:d"e/f\g|h?i*j`, "a b c d e f g h i j"},
		{"strips trailing dots", "Elements of Style...", "Elements of Style"},
		{"drops control characters", "Line\x00One\x01Two", "Line One Two"},
		{"empty stays empty", "   ", ""},
		{"only punctuation collapses to empty", " .. . ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuild_StyleAndYearPlacement(t *testing.T) {
	tests := []struct {
		name  string
		title string
		year  int
		n     int
		style Style
		want  string
	}{
		{"suffix with year", "Attention Is All You Need", 2017, 1, StyleSuffix, "Attention Is All You Need (2017).pdf"},
		{"prefix with year", "Attention Is All You Need", 2017, 1, StylePrefix, "2017 - Attention Is All You Need.pdf"},
		{"no year omits segment", "Attention Is All You Need", 0, 1, StylePrefix, "Attention Is All You Need.pdf"},
		{"no year suffix style", "Notes on Typography", 0, 1, StyleSuffix, "Notes on Typography.pdf"},
		{"collision marker", "Notes on Typography", 0, 2, StyleSuffix, "Notes on Typography (2).pdf"},
		{"marker after year segment", "Notes on Typography", 2019, 3, StyleSuffix, "Notes on Typography (2019) (3).pdf"},
		{"marker with prefix style", "Notes on Typography", 2019, 2, StylePrefix, "2019 - Notes on Typography (2).pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.title, tt.year, tt.n, tt.style, 140)
			if got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuild_TruncatesTitleAtWordBoundary(t *testing.T) {
	title := "The Quick Brown Fox Jumps Over The Lazy Dog Repeatedly"
	got := Build(title, 2020, 1, StyleSuffix, 40)

	if got != "The Quick Brown Fox Jumps (2020).pdf" {
		t.Errorf("Build() = %q, want %q", got, "The Quick Brown Fox Jumps (2020).pdf")
	}
	if utf8.RuneCountInString(got) > 40 {
		t.Errorf("len = %d, exceeds bound 40", utf8.RuneCountInString(got))
	}
}

func TestBuild_BoundAlwaysHolds(t *testing.T) {
	long := strings.Repeat("Word ", 60)
	for _, maxLen := range []int{20, 47, 80, 140} {
		for _, style := range []Style{StylePrefix, StyleSuffix} {
			for _, year := range []int{0, 2024} {
				for _, n := range []int{1, 2, 12} {
					got := Build(long, year, n, style, maxLen)
					if got == "" {
						continue
					}
					if utf8.RuneCountInString(got) > maxLen {
						t.Errorf("Build(maxLen=%d, style=%s, year=%d, n=%d) = %q: length %d exceeds bound",
							maxLen, style, year, n, got, utf8.RuneCountInString(got))
					}
					if !strings.HasSuffix(got, Extension) {
						t.Errorf("Build() = %q: extension trimmed", got)
					}
					if year != 0 && !strings.Contains(got, "2024") {
						t.Errorf("Build() = %q: year segment trimmed", got)
					}
					if n >= 2 && !strings.Contains(got, "("+strconv.Itoa(n)+")") {
						t.Errorf("Build() = %q: collision marker trimmed", got)
					}
				}
			}
		}
	}
}

func TestBuild_SingleOverlongWordIsCutMidWord(t *testing.T) {
	got := Build(strings.Repeat("x", 300), 0, 1, StylePrefix, 24)
	want := strings.Repeat("x", 20) + ".pdf"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuild_UnusableTitleReturnsEmpty(t *testing.T) {
	if got := Build("  ...  ", 2020, 1, StylePrefix, 140); got != "" {
		t.Errorf("Build() = %q, want empty for unusable title", got)
	}
	// A bound too tight for anything but the fixed segments.
	if got := Build("Real Title Here", 2020, 10, StyleSuffix, 16); got != "" {
		t.Errorf("Build() = %q, want empty when nothing fits", got)
	}
}

func TestBuild_RewritesShoutingTitles(t *testing.T) {
	got := Build("ATTENTION IS ALL YOU NEED", 2017, 1, StyleSuffix, 140)
	if got != "Attention Is All You Need (2017).pdf" {
		t.Errorf("Build() = %q, want title-cased name", got)
	}

	// Mixed case is left alone, acronyms included.
	got = Build("BERT Rediscovers the Classical NLP Pipeline", 2019, 1, StyleSuffix, 140)
	if got != "BERT Rediscovers the Classical NLP Pipeline (2019).pdf" {
		t.Errorf("Build() = %q, want mixed case preserved", got)
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"prefix", StylePrefix, false},
		{"suffix", StyleSuffix, false},
		{"SUFFIX", StyleSuffix, false},
		{"", StylePrefix, false},
		{"infix", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStyle(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStyle(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
