// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"sort"

	"github.com/pdiddy/cot-engine/pkg/types"
)

// Result is one question's outcome as delivered by a worker, in completion
// order.
type Result struct {
	Index  int
	Record types.PipelineRecord
	Err    error
}

// ToOrderedCollection packs results into a ResultSet ordered by question
// index, whatever order they completed in. A result carrying an error
// becomes a placeholder record with Error set. It makes no generation calls.
func ToOrderedCollection(results []Result) types.ResultSet {
	sorted := make([]Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	rs := make(types.ResultSet, len(sorted))
	for i, r := range sorted {
		rec := r.Record
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		rs[i] = rec
	}
	return rs
}
