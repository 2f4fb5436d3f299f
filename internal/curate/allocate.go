package curate

import "sort"

// Allocate splits target across groups proportionally to group size.
//
// Three passes, all walking keys in ascending order:
//  1. Coverage floor: every group gets up to minPerGroup (capped by
//     group size) until the target runs out.
//  2. Proportional fill: the remaining budget is distributed by the
//     largest-remainder method over group sizes, ties broken by key
//     order, never exceeding a group's size.
//  3. Top-up: slots left over from capacity caps go to groups with
//     spare room.
//
// The allocations always sum to min(target, total size), and each
// stays within [0, size]. Groups with non-positive size get zero.
func Allocate(sizes map[GroupKey]int, target, minPerGroup int) map[GroupKey]int {
	keys := SortedGroupKeys(sizes)

	alloc := make(map[GroupKey]int, len(sizes))
	total := 0
	for _, k := range keys {
		alloc[k] = 0
		if sizes[k] > 0 {
			total += sizes[k]
		}
	}
	if target <= 0 || total == 0 {
		return alloc
	}
	if target > total {
		target = total
	}

	// Pass 1: coverage floor.
	remaining := target
	if minPerGroup > 0 {
		for _, k := range keys {
			if remaining == 0 {
				break
			}
			if sizes[k] <= 0 {
				continue
			}
			floor := min(minPerGroup, sizes[k], remaining)
			alloc[k] = floor
			remaining -= floor
		}
	}

	// Pass 2: largest-remainder proportional fill of what's left.
	if remaining > 0 {
		type share struct {
			key  GroupKey
			frac float64
		}
		shares := make([]share, 0, len(keys))
		given := 0
		for _, k := range keys {
			if sizes[k] <= 0 {
				continue
			}
			exact := float64(remaining) * float64(sizes[k]) / float64(total)
			whole := int(exact)
			if alloc[k]+whole > sizes[k] {
				whole = sizes[k] - alloc[k]
			}
			alloc[k] += whole
			given += whole
			shares = append(shares, share{key: k, frac: exact - float64(int(exact))})
		}
		remaining -= given

		// Stable sort: equal remainders keep ascending key order.
		sort.SliceStable(shares, func(i, j int) bool {
			return shares[i].frac > shares[j].frac
		})
		for _, sh := range shares {
			if remaining == 0 {
				break
			}
			if alloc[sh.key] < sizes[sh.key] {
				alloc[sh.key]++
				remaining--
			}
		}
	}

	// Pass 3: top-up sweep for anything still unplaced.
	for _, k := range keys {
		if remaining == 0 {
			break
		}
		spare := sizes[k] - alloc[k]
		if spare <= 0 {
			continue
		}
		take := min(spare, remaining)
		alloc[k] += take
		remaining -= take
	}

	return alloc
}
