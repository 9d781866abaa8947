package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestPDF builds a one-page PDF with an Info dictionary and a body
// line, computing cross-reference offsets from the buffer as it grows.
func writeTestPDF(t *testing.T, path, title, creationDate, bodyText string) {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int, 7)

	buf.WriteString("%PDF-1.4\n")

	obj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	obj(1, "<</Type /Catalog /Pages 2 0 R>>")
	obj(2, "<</Type /Pages /Kids [3 0 R] /Count 1>>")
	obj(3, "<</Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
		"/Resources <</Font <</F1 5 0 R>>>> /Contents 4 0 R>>")

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", bodyText)
	offsets[4] = buf.Len()
	fmt.Fprintf(&buf, "4 0 obj\n<</Length %d>>\nstream\n%s\nendstream\nendobj\n", len(content), content)

	obj(5, "<</Type /Font /Subtype /Type1 /BaseFont /Helvetica>>")
	obj(6, fmt.Sprintf("<</Title (%s) /CreationDate (%s) /Producer (testwriter)>>", title, creationDate))

	xrefStart := buf.Len()
	buf.WriteString("xref\n0 7\n")
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= 6; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<</Size 7 /Root 1 0 R /Info 6 0 R>>\nstartxref\n%d\n%%%%EOF\n", xrefStart)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing test PDF: %v", err)
	}
}

func TestLoad_ReadsMetadataAndBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	writeTestPDF(t, path, "Attention Is All You Need", "D:20170612080000Z", "Hello World")

	doc, err := NewLoader(2).Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if doc.Metadata["Title"] != "Attention Is All You Need" {
		t.Errorf("Title = %q, want %q", doc.Metadata["Title"], "Attention Is All You Need")
	}
	if doc.Metadata["CreationDate"] != "D:20170612080000Z" {
		t.Errorf("CreationDate = %q, want %q", doc.Metadata["CreationDate"], "D:20170612080000Z")
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page of text, got %d", len(doc.Pages))
	}
	if !strings.Contains(doc.Text(), "Hello World") {
		t.Errorf("body text %q does not contain %q", doc.Text(), "Hello World")
	}
}

func TestLoad_GarbageFileIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(2).Load(path)
	if err == nil {
		t.Fatal("expected error for garbage file")
	}
	if !IsCorrupt(err) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoad_TruncatedFileIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.pdf")
	writeTestPDF(t, full, "Some Title Here", "D:20200101000000Z", "Body")

	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatal(err)
	}
	truncated := filepath.Join(dir, "truncated.pdf")
	if err := os.WriteFile(truncated, data[:len(data)/3], 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(2).Load(truncated); err == nil {
		t.Fatal("expected error for truncated file")
	} else if !IsCorrupt(err) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoad_EmptyFileIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(2).Load(path)
	if !IsCorrupt(err) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoad_MissingFileIsAccessDenied(t *testing.T) {
	_, err := NewLoader(2).Load(filepath.Join(t.TempDir(), "nope.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !IsAccessDenied(err) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestLoad_UnreadableFileIsAccessDenied(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("file modes are not enforced for root")
	}

	path := filepath.Join(t.TempDir(), "locked.pdf")
	writeTestPDF(t, path, "Locked Away Title", "D:20200101000000Z", "Body")
	if err := os.Chmod(path, 0o000); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(2).Load(path)
	if !IsAccessDenied(err) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestLoad_PageCapLimitsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	writeTestPDF(t, path, "A Perfectly Fine Title", "D:20190301120000Z", "First page text")

	doc, err := NewLoader(5).Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Errorf("expected page count capped at document length, got %d", len(doc.Pages))
	}
}
