package curate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mwhitby/quarry/internal/model"
)

// GroupKey identifies one combination of dimension values. The encoded
// form is length-prefixed, so a value containing any would-be separator
// cannot collide with a neighboring value ("a|b","c" vs "a","b|c").
// Plain string comparison of encoded keys is the one total order used
// everywhere groups are walked.
type GroupKey string

// EncodeGroupKey builds the key for one value tuple.
func EncodeGroupKey(values []string) GroupKey {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte(';')
	}
	return GroupKey(b.String())
}

// DecodeGroupKey recovers the value tuple from an encoded key.
// Malformed input yields the values decoded up to the damage.
func DecodeGroupKey(k GroupKey) []string {
	s := string(k)
	var values []string
	for len(s) > 0 {
		colon := strings.IndexByte(s, ':')
		if colon < 0 {
			return values
		}
		n, err := strconv.Atoi(s[:colon])
		if err != nil || n < 0 || colon+1+n >= len(s) {
			return values
		}
		values = append(values, s[colon+1:colon+1+n])
		s = s[colon+1+n+1:]
	}
	return values
}

// GroupBy buckets interactions by their values for the given keys.
// Absent keys bucket under MissingValue. Members of each group are
// sorted by id, so group content depends only on what was passed in,
// never on input order. An empty key list yields a single group.
func GroupBy(items []model.Interaction, keys []string) map[GroupKey][]model.Interaction {
	groups := make(map[GroupKey][]model.Interaction)

	values := make([]string, len(keys))
	for _, item := range items {
		for i, key := range keys {
			v, ok := item.Dimensions[key]
			if !ok {
				v = MissingValue
			}
			values[i] = v
		}
		k := EncodeGroupKey(values)
		groups[k] = append(groups[k], item)
	}

	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool {
			return members[i].ID < members[j].ID
		})
	}

	return groups
}

// SortedGroupKeys returns the group keys in ascending order. Allocation
// and drawing both walk this order, so nothing downstream depends on
// map iteration.
func SortedGroupKeys[V any](m map[GroupKey]V) []GroupKey {
	keys := make([]GroupKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
