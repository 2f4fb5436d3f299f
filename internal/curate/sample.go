package curate

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"time"

	"github.com/mwhitby/quarry/internal/model"
)

// SampleOptions control a stratified draw.
type SampleOptions struct {
	// N is how many interactions to draw. The result is smaller only
	// when fewer interactions survive the Where filter.
	N int

	// By lists the dimension keys to stratify over. Empty means one
	// group, i.e. a uniform draw.
	By []string

	// Where keeps only interactions whose dimensions match every
	// listed key/value pair exactly. An interaction lacking a key
	// does not match it.
	Where map[string]string

	// Seed fixes the random stream. Negative draws a fresh seed, so
	// the run is not reproducible.
	Seed int64

	// MinPerGroup is the per-group coverage floor passed to Allocate.
	MinPerGroup int
}

// StratifiedSample draws opts.N interactions spread across the
// dimension groups named in opts.By.
//
// Filter, group, allocate, then draw from each group in ascending key
// order off a single random stream. The output length is always
// min(N, filtered): allocation shortfalls in one group flow to others
// via Allocate's top-up rather than erroring.
func StratifiedSample(items []model.Interaction, opts SampleOptions) []model.Interaction {
	filtered := Filter(items, opts.Where)
	if opts.N <= 0 || len(filtered) == 0 {
		return nil
	}

	groups := GroupBy(filtered, opts.By)
	sizes := make(map[GroupKey]int, len(groups))
	for k, members := range groups {
		sizes[k] = len(members)
	}

	target := opts.N
	if target > len(filtered) {
		target = len(filtered)
	}
	alloc := Allocate(sizes, target, opts.MinPerGroup)

	rng := newRNG(opts.Seed)
	result := make([]model.Interaction, 0, target)
	for _, k := range SortedGroupKeys(groups) {
		take := alloc[k]
		if take == 0 {
			continue
		}
		result = append(result, sampleFromGroup(groups[k], take, rng)...)
	}

	// Never return more than asked for.
	if len(result) > target {
		result = result[:target]
	}
	return result
}

// Filter keeps interactions whose dimensions match every where clause
// exactly. A nil or empty where keeps everything.
func Filter(items []model.Interaction, where map[string]string) []model.Interaction {
	if len(where) == 0 {
		return items
	}

	result := make([]model.Interaction, 0, len(items))
	for _, item := range items {
		if matchesWhere(item, where) {
			result = append(result, item)
		}
	}
	return result
}

func matchesWhere(item model.Interaction, where map[string]string) bool {
	for key, want := range where {
		got, ok := item.Dimensions[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// sampleFromGroup draws count members without replacement. Only the
// first count positions are shuffled (partial Fisher-Yates), so cost
// scales with the draw, not the group. Asking for the whole group or
// more returns it as is.
func sampleFromGroup(members []model.Interaction, count int, rng *rand.Rand) []model.Interaction {
	if count >= len(members) {
		return members
	}

	picked := make([]model.Interaction, len(members))
	copy(picked, members)
	for i := 0; i < count; i++ {
		j := i + rng.IntN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:count]
}

// newRNG builds the sampling PRNG. A non-negative seed gives a fully
// reproducible stream.
func newRNG(seed int64) *rand.Rand {
	if seed < 0 {
		return rand.New(rand.NewPCG(entropySeed(), 0))
	}
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// entropySeed draws 8 random bytes for unseeded runs.
func entropySeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.BigEndian.Uint64(b[:])
}
