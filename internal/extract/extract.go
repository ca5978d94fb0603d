// Package extract pulls plain text out of uploaded documents so the timing
// engine only ever sees clean prose. Plain text passes through after a UTF-8
// check; markdown is parsed and flattened so formatting syntax never shows up
// as display units.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"wordreel/internal/services"
)

// FromUpload converts an uploaded file to plain text, dispatching on the
// filename extension. Unsupported types are an extraction error so the API
// can report them distinctly from malformed content.
func FromUpload(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", "":
		return fromPlainText(data)
	case ".md", ".markdown":
		return fromMarkdown(data)
	default:
		return "", services.Wrap(services.ErrExtraction, "extract", "dispatch",
			fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)), nil)
	}
}

func fromPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", services.Wrap(services.ErrExtraction, "extract", "plain text", "file is not valid UTF-8", nil)
	}
	return string(data), nil
}

// fromMarkdown walks the parsed document and collects only text content.
// Rendering to HTML and stripping tags would leave entities behind; the AST
// walk avoids that entirely.
func fromMarkdown(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", services.Wrap(services.ErrExtraction, "extract", "markdown", "file is not valid UTF-8", nil)
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(data))
	var b bytes.Buffer
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(data))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.AutoLink:
			b.Write(node.URL(data))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(data))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", services.Wrap(services.ErrExtraction, "extract", "markdown", "walk document", err)
	}
	return strings.TrimSpace(b.String()), nil
}
