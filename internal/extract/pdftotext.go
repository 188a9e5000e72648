// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/kb-ingest/internal/container"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

// DefaultPdftotextImage is the image used when none is configured. Its
// entrypoint must be pdftotext.
const DefaultPdftotextImage = "pdftotext:latest"

// pdftotextArgs reads the PDF from stdin and writes UTF-8 text to stdout,
// one form feed after each page.
var pdftotextArgs = []string{"-layout", "-enc", "UTF-8", "-", "-"}

// PdftotextExtractor pipes PDFs through poppler's pdftotext inside a
// container.
type PdftotextExtractor struct {
	runtime container.Runtime
	image   string
}

// NewPdftotextExtractor checks that image exists in rt and returns an
// extractor that runs it. An empty image selects DefaultPdftotextImage.
func NewPdftotextExtractor(rt container.Runtime, image string) (*PdftotextExtractor, error) {
	if image == "" {
		image = DefaultPdftotextImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("pdftotext image not available in %s: %w", rt.Name(), err)
	}
	return &PdftotextExtractor{runtime: rt, image: image}, nil
}

// Extract runs pdftotext on the PDF at path and splits its output into pages.
func (e *PdftotextExtractor) Extract(ctx context.Context, path string) ([]types.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := e.runtime.Run(ctx, e.image, pdftotextArgs, f, &out); err != nil {
		return nil, fmt.Errorf("extracting %s with pdftotext: %w", path, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("pdftotext produced empty output for %s", path)
	}

	return splitFormFeeds(out.String()), nil
}
