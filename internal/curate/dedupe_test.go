package curate

import (
	"reflect"
	"testing"

	"github.com/mwhitby/quarry/internal/model"
)

func TestDedupeExactFirstWins(t *testing.T) {
	items := []model.Interaction{
		{ID: "a", Input: model.Input{Text: "How do I reset my password?"}},
		{ID: "b", Input: model.Input{Text: "How do I reset my password?"}},
		{ID: "c", Input: model.Input{Text: "How do I reset my password?"}},
	}

	result := DedupeExact(items)

	if len(result) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(result))
	}
	if result[0].ID != "a" {
		t.Errorf("expected first occurrence to win, got %s", result[0].ID)
	}
}

func TestDedupeExactCanonicalization(t *testing.T) {
	items := []model.Interaction{
		{ID: "1", Input: model.Input{Text: "  Hello World  "}},
		{ID: "2", Input: model.Input{Text: "hello world"}},
		{ID: "3", Input: model.Input{Text: "HELLO WORLD"}},
		{ID: "4", Input: model.Input{Text: "hello  world"}}, // interior spacing differs
	}

	result := DedupeExact(items)

	if len(result) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(result))
	}
	if result[0].ID != "1" || result[1].ID != "4" {
		t.Errorf("expected survivors 1 and 4 in order, got %v", result)
	}
}

func TestDedupeExactIdempotent(t *testing.T) {
	items := []model.Interaction{
		{ID: "1", Input: model.Input{Text: "alpha"}},
		{ID: "2", Input: model.Input{Text: "beta"}},
		{ID: "3", Input: model.Input{Text: "Alpha"}},
	}

	once := DedupeExact(items)
	twice := DedupeExact(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedupe not idempotent: %v vs %v", once, twice)
	}
}

func TestDedupeExactPreservesOrder(t *testing.T) {
	items := []model.Interaction{
		{ID: "z", Input: model.Input{Text: "third"}},
		{ID: "a", Input: model.Input{Text: "first"}},
		{ID: "m", Input: model.Input{Text: "third"}},
		{ID: "b", Input: model.Input{Text: "second"}},
	}

	result := DedupeExact(items)

	want := []string{"z", "a", "b"}
	var got []string
	for _, item := range result {
		got = append(got, item.ID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDedupeExactEmpty(t *testing.T) {
	result := DedupeExact(nil)
	if result == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(result) != 0 {
		t.Errorf("expected 0 items, got %d", len(result))
	}
}

func TestDuplicateGroups(t *testing.T) {
	items := []model.Interaction{
		{ID: "1", Input: model.Input{Text: "alpha"}},
		{ID: "2", Input: model.Input{Text: "beta"}},
		{ID: "3", Input: model.Input{Text: "ALPHA "}},
		{ID: "4", Input: model.Input{Text: "gamma"}},
		{ID: "5", Input: model.Input{Text: "beta"}},
		{ID: "6", Input: model.Input{Text: "alpha"}},
	}

	groups := DuplicateGroups(items)

	want := [][]string{
		{"1", "3", "6"},
		{"2", "5"},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("expected %v, got %v", want, groups)
	}
}

func TestDuplicateGroupsNone(t *testing.T) {
	items := []model.Interaction{
		{ID: "1", Input: model.Input{Text: "alpha"}},
		{ID: "2", Input: model.Input{Text: "beta"}},
	}

	if groups := DuplicateGroups(items); len(groups) != 0 {
		t.Errorf("expected no clusters, got %v", groups)
	}
}

func TestContentHashStable(t *testing.T) {
	a := ContentHash("  Mixed Case Text ")
	b := ContentHash("mixed case text")
	if a != b {
		t.Error("canonicalization differs between equivalent inputs")
	}
	if a == ContentHash("different text") {
		t.Error("distinct inputs hashed identically")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}
