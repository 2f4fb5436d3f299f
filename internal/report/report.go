// Package report renders stats and diffs as plain text for the
// terminal. All functions build strings; callers decide where they go.
// JSON output paths marshal the underlying structs directly and skip
// this package.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mwhitby/quarry/internal/curate"
)

// Stats renders dimension and tag histograms. Values are ordered by
// count descending, ties by value ascending. Each key shows at most
// maxValues rows (0 or less means no cap) followed by a "... and N
// more" line for the rest.
func Stats(s curate.Stats, maxValues int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total interactions:    %d\n", s.Total)

	keys := make([]string, 0, len(s.ByDimension))
	for key := range s.ByDimension {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		counts := s.ByDimension[key]
		fmt.Fprintf(&b, "\n%s (%d values):\n", key, len(counts))
		writeCountRows(&b, counts, maxValues)
	}

	if len(s.TagCounts) > 0 {
		fmt.Fprintf(&b, "\ntags (%d):\n", len(s.TagCounts))
		writeCountRows(&b, s.TagCounts, maxValues)
	}

	return b.String()
}

// writeCountRows prints one histogram, largest first.
func writeCountRows(b *strings.Builder, counts map[string]int, maxValues int) {
	type row struct {
		value string
		count int
	}
	rows := make([]row, 0, len(counts))
	for value, count := range counts {
		rows = append(rows, row{value, count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].value < rows[j].value
	})

	shown := len(rows)
	if maxValues > 0 && shown > maxValues {
		shown = maxValues
	}
	for _, r := range rows[:shown] {
		fmt.Fprintf(b, "  %-35s %d\n", r.value, r.count)
	}
	if rest := len(rows) - shown; rest > 0 {
		fmt.Fprintf(b, "  ... and %d more\n", rest)
	}
}

// Diff renders a version comparison: membership counts, per-dimension
// deltas (largest absolute change first), tag deltas, and label
// movement. maxValues caps rows per section like Stats.
func Diff(d curate.DatasetDiff, maxValues int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s -> %s\n", d.From, d.To)
	fmt.Fprintf(&b, "  added:     %d\n", len(d.Added))
	fmt.Fprintf(&b, "  removed:   %d\n", len(d.Removed))
	fmt.Fprintf(&b, "  unchanged: %d\n", len(d.Unchanged))

	keys := make([]string, 0, len(d.Dimensions))
	for key := range d.Dimensions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		deltas := d.Dimensions[key]
		if len(deltas) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", key)
		writeDeltaRows(&b, deltas, maxValues)
	}

	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "\ntags:\n")
		writeDeltaRows(&b, d.Tags, maxValues)
	}

	if d.Labels.Added > 0 || d.Labels.Removed > 0 || len(d.Labels.VerdictChanges) > 0 {
		fmt.Fprintf(&b, "\nlabels:\n")
		fmt.Fprintf(&b, "  added:   %d\n", d.Labels.Added)
		fmt.Fprintf(&b, "  removed: %d\n", d.Labels.Removed)
		if len(d.Labels.VerdictChanges) > 0 {
			changes := make([]string, 0, len(d.Labels.VerdictChanges))
			for change := range d.Labels.VerdictChanges {
				changes = append(changes, change)
			}
			sort.Slice(changes, func(i, j int) bool {
				ci, cj := d.Labels.VerdictChanges[changes[i]], d.Labels.VerdictChanges[changes[j]]
				if ci != cj {
					return ci > cj
				}
				return changes[i] < changes[j]
			})
			for _, change := range changes {
				fmt.Fprintf(&b, "  %-35s %d\n", change, d.Labels.VerdictChanges[change])
			}
		}
	}

	return b.String()
}

// writeDeltaRows prints value deltas ordered by absolute change
// descending, ties by value ascending.
func writeDeltaRows(b *strings.Builder, deltas map[string]curate.Delta, maxValues int) {
	values := make([]string, 0, len(deltas))
	for value := range deltas {
		values = append(values, value)
	}
	sort.Slice(values, func(i, j int) bool {
		di, dj := abs(deltas[values[i]].Delta), abs(deltas[values[j]].Delta)
		if di != dj {
			return di > dj
		}
		return values[i] < values[j]
	})

	shown := len(values)
	if maxValues > 0 && shown > maxValues {
		shown = maxValues
	}
	for _, value := range values[:shown] {
		d := deltas[value]
		fmt.Fprintf(b, "  %-35s %4d -> %-4d (%+d)\n", value, d.From, d.To, d.Delta)
	}
	if rest := len(values) - shown; rest > 0 {
		fmt.Fprintf(b, "  ... and %d more\n", rest)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
