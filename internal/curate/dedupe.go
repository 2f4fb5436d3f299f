package curate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mwhitby/quarry/internal/model"
)

// ContentHash returns the fingerprint of an interaction's input text
// after canonicalization: surrounding whitespace trimmed, then
// lowercased. Interior whitespace and punctuation stay significant.
func ContentHash(text string) string {
	canon := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:])
}

// DedupeExact removes interactions whose canonical input text already
// appeared earlier in the slice. First occurrence wins; survivors keep
// their input order. Running it twice changes nothing.
func DedupeExact(items []model.Interaction) []model.Interaction {
	if len(items) == 0 {
		return []model.Interaction{}
	}

	seen := make(map[string]bool, len(items))
	result := make([]model.Interaction, 0, len(items))
	for _, item := range items {
		hash := ContentHash(item.Input.Text)
		if seen[hash] {
			continue
		}
		seen[hash] = true
		result = append(result, item)
	}
	return result
}

// DuplicateGroups clusters interaction ids sharing identical canonical
// input text. Only clusters with at least two members are returned.
// Clusters appear in order of their first member; ids within a cluster
// keep input order, so index 0 is the survivor DedupeExact would keep.
func DuplicateGroups(items []model.Interaction) [][]string {
	var order []string
	byHash := make(map[string][]string)
	for _, item := range items {
		hash := ContentHash(item.Input.Text)
		if _, ok := byHash[hash]; !ok {
			order = append(order, hash)
		}
		byHash[hash] = append(byHash[hash], item.ID)
	}

	var groups [][]string
	for _, hash := range order {
		if ids := byHash[hash]; len(ids) > 1 {
			groups = append(groups, ids)
		}
	}
	return groups
}
