// Package curate provides the pure computation core for dataset
// curation: distribution counting, grouping, quota allocation,
// stratified sampling, deduplication, and version diffing.
//
// All functions are simple: records in, results out. No side effects,
// no hidden state, and identical input always yields identical output.
package curate

import (
	"sort"

	"github.com/mwhitby/quarry/internal/model"
)

// MissingValue is the bucket for interactions that do not carry a
// dimension key at all. An empty-string value is a real value and is
// counted under "", never under this sentinel.
const MissingValue = "__missing__"

// Stats summarizes how interactions distribute across dimension values
// and tags.
type Stats struct {
	Total       int                       `json:"total"`
	ByDimension map[string]map[string]int `json:"by_dimension,omitempty"`
	TagCounts   map[string]int            `json:"tag_counts,omitempty"`
}

// ComputeStats counts interactions per value for each requested
// dimension key, plus tag frequencies.
//
// With no keys given, every key observed anywhere in the input is
// counted. Interactions lacking a key fall into the MissingValue
// bucket for that key. Empty input yields zero-valued stats, never an
// error.
func ComputeStats(items []model.Interaction, keys []string) Stats {
	if len(keys) == 0 {
		keys = DimensionKeys(items)
	}

	stats := Stats{
		Total:       len(items),
		ByDimension: make(map[string]map[string]int, len(keys)),
		TagCounts:   make(map[string]int),
	}
	for _, key := range keys {
		stats.ByDimension[key] = make(map[string]int)
	}

	for _, item := range items {
		for _, key := range keys {
			value, ok := item.Dimensions[key]
			if !ok {
				value = MissingValue
			}
			stats.ByDimension[key][value]++
		}
		for _, tag := range item.Tags {
			stats.TagCounts[tag]++
		}
	}

	return stats
}

// DimensionKeys returns every dimension key observed across items,
// sorted ascending.
func DimensionKeys(items []model.Interaction) []string {
	seen := make(map[string]bool)
	for _, item := range items {
		for key := range item.Dimensions {
			seen[key] = true
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
