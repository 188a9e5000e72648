// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/kb-ingest/pkg/types"
)

// PDFExtractor reads PDF text in-process. It needs no external tools but
// recovers only text drawn with standard encodings; scanned pages come back
// empty.
type PDFExtractor struct{}

// NewPDFExtractor returns the native PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns one page per PDF page, including pages without text.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (pages []types.Page, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parsing PDF %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]types.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := types.Page{Number: i}
		p := r.Page(i)
		if !p.V.IsNull() {
			text, err := p.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("reading page %d of %s: %w", i, path, err)
			}
			page.Text = text
		}
		pages = append(pages, page)
	}
	return pages, nil
}
