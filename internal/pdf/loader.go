// Package pdf loads document metadata and body text for title inference.
package pdf

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrCorrupt marks documents the parser cannot make sense of, encrypted
// files included. ErrAccessDenied marks files the OS refused to read.
// Both are per-file conditions: callers record them and move on.
var (
	ErrCorrupt      = errors.New("corrupt or unreadable document")
	ErrAccessDenied = errors.New("access denied")
)

// Document is one loaded PDF: the Info-dictionary text fields and the
// plain text of the first pages, in page order. Immutable once returned.
type Document struct {
	Path     string
	Metadata map[string]string
	Pages    []string
}

// Text returns the loaded pages joined into one string.
func (d *Document) Text() string {
	return strings.Join(d.Pages, "\n")
}

// Loader reads documents from disk, capped at a fixed page count.
type Loader struct {
	pages int
}

// NewLoader creates a loader reading at most pages pages per document.
func NewLoader(pages int) *Loader {
	if pages < 1 {
		pages = 1
	}
	return &Loader{pages: pages}
}

// Load reads the Info dictionary and up to the configured number of
// pages of text. Failures extracting a single page skip that page;
// failures reading the Info dictionary leave Metadata empty. Only a
// document that cannot be opened at all is an error.
func (l *Loader) Load(path string) (doc *Document, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %s: %v", ErrCorrupt, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}
	defer f.Close()

	doc = &Document{
		Path:     path,
		Metadata: readInfo(r),
	}

	maxPages := l.pages
	if n := r.NumPage(); n < maxPages {
		maxPages = n
	}
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		doc.Pages = append(doc.Pages, text)
	}

	return doc, nil
}

func classifyOpenError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s", ErrAccessDenied, path)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %v", ErrAccessDenied, path, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
}

// readInfo copies the string and name fields out of the trailer's Info
// dictionary. A malformed dictionary yields whatever was read before
// the parser gave up.
func readInfo(r *pdf.Reader) (meta map[string]string) {
	defer func() {
		if recover() != nil && meta == nil {
			meta = map[string]string{}
		}
	}()

	info := r.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return map[string]string{}
	}

	meta = make(map[string]string, len(info.Keys()))
	for _, key := range info.Keys() {
		v := info.Key(key)
		switch v.Kind() {
		case pdf.String:
			if text := strings.TrimSpace(v.Text()); text != "" {
				meta[key] = text
			}
		case pdf.Name:
			if name := strings.TrimSpace(v.Name()); name != "" {
				meta[key] = name
			}
		}
	}
	return meta
}

// IsCorrupt reports whether err came from an unparseable document.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}

// IsAccessDenied reports whether err came from the OS refusing access.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
