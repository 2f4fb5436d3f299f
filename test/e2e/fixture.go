package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fixtureRecords returns JSONL input with a known dimension mix:
// 4 how_to, 2 billing, 1 bug_report, plus one exact duplicate of id-001.
func fixtureRecords() string {
	lines := []string{
		`{"id": "id-001", "input": {"text": "How do I reset my password?"}, "dimensions": {"intent": "how_to", "tier": "free"}, "tags": ["auth"]}`,
		`{"id": "id-002", "input": {"text": "How do I change my email?"}, "dimensions": {"intent": "how_to", "tier": "free"}}`,
		`{"id": "id-003", "input": {"text": "How do I export my data?"}, "dimensions": {"intent": "how_to", "tier": "pro"}}`,
		`{"id": "id-004", "input": {"text": "How do I delete my account?"}, "dimensions": {"intent": "how_to", "tier": "pro"}}`,
		`{"id": "id-005", "input": {"text": "Why was I charged twice?"}, "dimensions": {"intent": "billing", "tier": "pro"}, "tags": ["refund"]}`,
		`{"id": "id-006", "input": {"text": "Can I get an invoice?"}, "dimensions": {"intent": "billing", "tier": "free"}}`,
		`{"id": "id-007", "input": {"text": "The app crashes on startup"}, "dimensions": {"intent": "bug_report"}}`,
		`{"id": "id-008", "input": {"text": "how do i reset my password?  "}, "dimensions": {"intent": "how_to", "tier": "free"}}`,
	}
	return strings.Join(lines, "\n") + "\n"
}

// fixtureLabels returns JSONL labels for two fixture records.
func fixtureLabels() string {
	return `{"interaction_id": "id-001", "verdict": "pass"}
{"interaction_id": "id-005", "verdict": "fail", "notes": "tone"}
`
}

// extraRecords returns a second batch used to produce version drift.
func extraRecords() string {
	lines := []string{
		`{"id": "id-009", "input": {"text": "Where is the billing page?"}, "dimensions": {"intent": "billing", "tier": "free"}}`,
		`{"id": "id-010", "input": {"text": "Settings page shows an error"}, "dimensions": {"intent": "bug_report", "tier": "pro"}}`,
	}
	return strings.Join(lines, "\n") + "\n"
}

// writeFixtureFile writes content into dir and returns the path.
func writeFixtureFile(dir, name, content string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}
