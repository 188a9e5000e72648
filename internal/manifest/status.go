// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"fmt"
	"sort"

	"github.com/pdiddy/kb-ingest/pkg/types"
)

// State classifies a source relative to the manifest.
type State string

const (
	StateNew     State = "new"
	StateChanged State = "changed"
	StateCurrent State = "current"
	StateFailed  State = "failed"
	StateMissing State = "missing"
)

// SourceStatus is one row of a status report.
type SourceStatus struct {
	ID    string `json:"id" yaml:"id"`
	File  string `json:"file" yaml:"file"`
	State State  `json:"state" yaml:"state"`
}

// Report compares the sources on disk with the manifest. Sources on disk
// are new, changed, failed or current; manifest entries without a file on
// disk are missing. Rows are sorted by ID.
func (m *Manifest) Report(sources []types.Source, c types.Chunking) ([]SourceStatus, error) {
	seen := make(map[string]bool, len(sources))
	rows := make([]SourceStatus, 0, len(sources))

	for _, src := range sources {
		seen[src.ID] = true
		row := SourceStatus{ID: src.ID, File: src.Name}

		e, ok := m.Lookup(src.ID)
		switch {
		case !ok:
			row.State = StateNew
		case e.Status == types.EntryFailed:
			row.State = StateFailed
		default:
			sum, err := Checksum(src.Path)
			if err != nil {
				return nil, fmt.Errorf("checking %s: %w", src.Name, err)
			}
			if m.IsCurrent(src, sum, c) {
				row.State = StateCurrent
			} else {
				row.State = StateChanged
			}
		}
		rows = append(rows, row)
	}

	for _, e := range m.Sources {
		if !seen[e.ID] {
			rows = append(rows, SourceStatus{ID: e.ID, File: e.File, State: StateMissing})
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// Count tallies rows by state.
func Count(rows []SourceStatus) map[State]int {
	counts := make(map[State]int)
	for _, r := range rows {
		counts[r.State]++
	}
	return counts
}
