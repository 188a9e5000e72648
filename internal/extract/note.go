// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/kb-ingest/pkg/types"
)

// NoteExtractor reads Markdown and plain-text notes. Markdown is reduced to
// its visible text; plain text is split into pages on form feeds.
type NoteExtractor struct {
	md goldmark.Markdown
}

// NewNoteExtractor returns a note extractor with GFM tables and
// strikethrough enabled.
func NewNoteExtractor() *NoteExtractor {
	return &NoteExtractor{
		md: goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
	}
}

// Extract returns the note's pages. Markdown notes are always one page.
func (e *NoteExtractor) Extract(ctx context.Context, path string) ([]types.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading note %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return []types.Page{{Number: 1, Text: e.PlainText(data)}}, nil
	default:
		return splitFormFeeds(string(data)), nil
	}
}

// PlainText renders Markdown source as plain text. Block elements end with
// a newline; inline markup is dropped and its text kept.
func (e *NoteExtractor) PlainText(src []byte) string {
	doc := e.md.Parser().Parse(text.NewReader(src))

	var b bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				ensureNewline(&b)
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

func ensureNewline(b *bytes.Buffer) {
	if b.Len() > 0 && b.Bytes()[b.Len()-1] != '\n' {
		b.WriteByte('\n')
	}
}
