package filename

import (
	"fmt"
	"strings"
)

// Style places the year relative to the title.
type Style string

const (
	// StylePrefix builds "2017 - Title.pdf".
	StylePrefix Style = "prefix"
	// StyleSuffix builds "Title (2017).pdf".
	StyleSuffix Style = "suffix"
)

// ParseStyle converts user input to a Style. Empty input means prefix.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prefix", "":
		return StylePrefix, nil
	case "suffix":
		return StyleSuffix, nil
	default:
		return "", fmt.Errorf("unknown style %q (valid: prefix, suffix)", s)
	}
}
