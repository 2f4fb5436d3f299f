package curate

import (
	"sort"

	"github.com/mwhitby/quarry/internal/model"
)

// Snapshot is one dataset version's content, keyed by interaction id.
type Snapshot struct {
	Name         string
	Interactions map[string]model.Interaction
	Labels       map[string]model.Label
}

// NewSnapshot indexes version content by interaction id. Duplicate ids
// collapse to the last occurrence.
func NewSnapshot(name string, items []model.Interaction, labels []model.Label) Snapshot {
	s := Snapshot{
		Name:         name,
		Interactions: make(map[string]model.Interaction, len(items)),
		Labels:       make(map[string]model.Label, len(labels)),
	}
	for _, item := range items {
		s.Interactions[item.ID] = item
	}
	for _, l := range labels {
		s.Labels[l.InteractionID] = l
	}
	return s
}

// Delta is one count moving between two versions.
type Delta struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Delta int `json:"delta"`
}

// LabelDiff summarizes how labels moved between two versions. Verdict
// changes are keyed "from->to".
type LabelDiff struct {
	Added          int            `json:"added"`
	Removed        int            `json:"removed"`
	VerdictChanges map[string]int `json:"verdict_changes,omitempty"`
}

// DatasetDiff is the full comparison of two versions.
type DatasetDiff struct {
	From string `json:"from"`
	To   string `json:"to"`

	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Unchanged []string `json:"unchanged"`

	Dimensions map[string]map[string]Delta `json:"dimensions,omitempty"`
	Tags       map[string]Delta            `json:"tags,omitempty"`

	Labels LabelDiff `json:"labels"`
}

// Diff compares two dataset versions.
//
// Membership is by interaction id; the id lists come back sorted
// ascending. Dimension and tag movement covers each side's full
// content, with values at zero on both sides dropped. With no keys
// given, the key set is the union observed across both versions.
// Verdict changes count only ids present in both versions and labeled
// in both, where the verdict differs. Labels pointing at ids outside
// their own version are ignored.
func Diff(from, to Snapshot, keys []string) DatasetDiff {
	d := DatasetDiff{
		From:      from.Name,
		To:        to.Name,
		Added:     []string{},
		Removed:   []string{},
		Unchanged: []string{},
	}

	for id := range to.Interactions {
		if _, ok := from.Interactions[id]; ok {
			d.Unchanged = append(d.Unchanged, id)
		} else {
			d.Added = append(d.Added, id)
		}
	}
	for id := range from.Interactions {
		if _, ok := to.Interactions[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Unchanged)

	fromItems := snapshotItems(from)
	toItems := snapshotItems(to)
	if len(keys) == 0 {
		combined := make([]model.Interaction, 0, len(fromItems)+len(toItems))
		combined = append(combined, fromItems...)
		combined = append(combined, toItems...)
		keys = DimensionKeys(combined)
	}

	fromStats := ComputeStats(fromItems, keys)
	toStats := ComputeStats(toItems, keys)

	d.Dimensions = make(map[string]map[string]Delta, len(keys))
	for _, key := range keys {
		deltas := diffCounts(fromStats.ByDimension[key], toStats.ByDimension[key])
		if len(deltas) > 0 {
			d.Dimensions[key] = deltas
		}
	}
	d.Tags = diffCounts(fromStats.TagCounts, toStats.TagCounts)
	d.Labels = diffLabels(from, to, d.Unchanged)

	return d
}

// diffCounts merges two histograms into per-value movement, dropping
// values at zero on both sides.
func diffCounts(from, to map[string]int) map[string]Delta {
	result := make(map[string]Delta)
	for value, n := range from {
		result[value] = Delta{From: n, To: to[value], Delta: to[value] - n}
	}
	for value, n := range to {
		if _, ok := result[value]; !ok {
			result[value] = Delta{From: 0, To: n, Delta: n}
		}
	}
	for value, d := range result {
		if d.From == 0 && d.To == 0 {
			delete(result, value)
		}
	}
	return result
}

func diffLabels(from, to Snapshot, unchanged []string) LabelDiff {
	ld := LabelDiff{VerdictChanges: make(map[string]int)}

	fromLabels := validLabels(from)
	toLabels := validLabels(to)

	for id := range toLabels {
		if _, ok := fromLabels[id]; !ok {
			ld.Added++
		}
	}
	for id := range fromLabels {
		if _, ok := toLabels[id]; !ok {
			ld.Removed++
		}
	}

	for _, id := range unchanged {
		before, okFrom := fromLabels[id]
		after, okTo := toLabels[id]
		if !okFrom || !okTo {
			continue
		}
		if before.Verdict != after.Verdict {
			ld.VerdictChanges[before.Verdict+"->"+after.Verdict]++
		}
	}

	return ld
}

// validLabels drops labels whose interaction is not in the snapshot.
func validLabels(s Snapshot) map[string]model.Label {
	valid := make(map[string]model.Label, len(s.Labels))
	for id, l := range s.Labels {
		if _, ok := s.Interactions[id]; ok {
			valid[id] = l
		}
	}
	return valid
}

// snapshotItems flattens a snapshot's interactions for counting.
func snapshotItems(s Snapshot) []model.Interaction {
	items := make([]model.Interaction, 0, len(s.Interactions))
	for _, item := range s.Interactions {
		items = append(items, item)
	}
	return items
}
