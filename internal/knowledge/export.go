// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Format selects an export encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

const exportLimit = 1000000

// Export writes the index, or the subset matching opts, to
// <index>/export.yaml or export.json and returns the path written. A zero
// opts.MaxResults exports every match.
func (s *Store) Export(ctx context.Context, opts QueryOptions, format Format) (string, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}
	if results == nil {
		results = []QueryResult{}
	}

	var data []byte
	switch format {
	case FormatYAML, "":
		format = FormatYAML
		data, err = yaml.Marshal(results)
	case FormatJSON:
		data, err = json.MarshalIndent(results, "", "  ")
	default:
		return "", fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", format, err)
	}

	path := filepath.Join(s.indexDir, "export."+string(format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
