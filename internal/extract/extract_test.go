package extract_test

import (
	"errors"
	"strings"
	"testing"

	"wordreel/internal/extract"
	"wordreel/internal/services"
)

func TestFromUploadPlainText(t *testing.T) {
	got, err := extract.FromUpload("notes.txt", []byte("hello world\n"))
	if err != nil {
		t.Fatalf("FromUpload failed: %v", err)
	}
	if got != "hello world\n" {
		t.Fatalf("plain text should pass through unchanged, got %q", got)
	}
}

func TestFromUploadNoExtensionTreatedAsText(t *testing.T) {
	got, err := extract.FromUpload("README", []byte("just text"))
	if err != nil {
		t.Fatalf("FromUpload failed: %v", err)
	}
	if got != "just text" {
		t.Fatalf("got %q", got)
	}
}

func TestFromUploadInvalidUTF8(t *testing.T) {
	_, err := extract.FromUpload("bad.txt", []byte{0xFF, 0xFE, 0x00})
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestFromUploadUnsupportedType(t *testing.T) {
	_, err := extract.FromUpload("report.pdf", []byte("%PDF-1.4"))
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestFromUploadMarkdownStripsFormatting(t *testing.T) {
	src := "# Heading\n\nSome **bold** and *italic* text with [a link](https://example.com).\n\n- first\n- second\n"
	got, err := extract.FromUpload("doc.md", []byte(src))
	if err != nil {
		t.Fatalf("FromUpload failed: %v", err)
	}
	for _, marker := range []string{"#", "**", "*", "[", "](", "https://example.com", "- "} {
		if strings.Contains(got, marker) {
			t.Errorf("markdown syntax %q survived extraction: %q", marker, got)
		}
	}
	for _, word := range []string{"Heading", "bold", "italic", "a link", "first", "second"} {
		if !strings.Contains(got, word) {
			t.Errorf("expected %q in output %q", word, got)
		}
	}
}

func TestFromUploadMarkdownCodeBlock(t *testing.T) {
	src := "Before\n\n```\ncode line\n```\n\nAfter\n"
	got, err := extract.FromUpload("doc.md", []byte(src))
	if err != nil {
		t.Fatalf("FromUpload failed: %v", err)
	}
	if !strings.Contains(got, "code line") {
		t.Fatalf("code block content missing from %q", got)
	}
	if strings.Contains(got, "```") {
		t.Fatalf("fence markers survived extraction: %q", got)
	}
}
