package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildQuarry builds the quarry binary for testing.
// Returns the path to the binary and a cleanup function.
func buildQuarry(t *testing.T) (string, func()) {
	t.Helper()
	dir := t.TempDir()
	binPath := filepath.Join(dir, "quarry")

	// Get the project root directory
	rootDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// Assume we are in test/e2e, go up 2 levels
	rootDir = filepath.Join(rootDir, "..", "..")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/quarry")
	cmd.Dir = rootDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}

	return binPath, func() { os.RemoveAll(dir) }
}

// runQuarry runs one subcommand against an isolated data directory.
func runQuarry(t *testing.T, bin, home string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = append(os.Environ(), "QUARRY_HOME="+home)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("quarry %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

func TestE2E_CurationFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e in short mode")
	}

	binPath, cleanup := buildQuarry(t)
	defer cleanup()

	home := t.TempDir()
	workDir := t.TempDir()

	recordsPath, err := writeFixtureFile(workDir, "records.jsonl", fixtureRecords())
	if err != nil {
		t.Fatal(err)
	}
	labelsPath, err := writeFixtureFile(workDir, "labels.jsonl", fixtureLabels())
	if err != nil {
		t.Fatal(err)
	}

	// Ingest the fixture records and labels.
	out := runQuarry(t, binPath, home, "ingest", "-labels", labelsPath, recordsPath)
	if !strings.Contains(out, "Ingested 8 interactions (0 rejected)") {
		t.Fatalf("unexpected ingest output:\n%s", out)
	}
	if !strings.Contains(out, "Ingested 2 labels") {
		t.Fatalf("labels not ingested:\n%s", out)
	}

	// Stats over the working set.
	out = runQuarry(t, binPath, home, "stats")
	if !strings.Contains(out, "Total interactions:    8") {
		t.Fatalf("unexpected stats output:\n%s", out)
	}
	if !strings.Contains(out, "intent") || !strings.Contains(out, "how_to") {
		t.Fatalf("stats missing dimension breakdown:\n%s", out)
	}

	// Sampling with a fixed seed is reproducible across runs.
	first := runQuarry(t, binPath, home, "sample", "-n", "4", "-by", "intent", "-seed", "7", "-json")
	second := runQuarry(t, binPath, home, "sample", "-n", "4", "-by", "intent", "-seed", "7", "-json")
	if first != second {
		t.Fatalf("same seed produced different samples:\n%s\n---\n%s", first, second)
	}
	if lines := strings.Count(strings.TrimSpace(first), "\n") + 1; lines != 4 {
		t.Fatalf("expected 4 sampled records, got %d:\n%s", lines, first)
	}

	// Dedupe finds the near-identical password question.
	out = runQuarry(t, binPath, home, "dedupe")
	if !strings.Contains(out, "1 clusters, 1 duplicate") {
		t.Fatalf("unexpected dedupe output:\n%s", out)
	}

	// Publish the full working set as v1.
	out = runQuarry(t, binPath, home, "publish", "-name", "v1", "-desc", "baseline")
	if !strings.Contains(out, "Published v1: 8 interactions, 2 labels") {
		t.Fatalf("unexpected publish output:\n%s", out)
	}

	// Publishing the same name again must fail, and the failure must
	// still be flushed to the event log before the process exits.
	cmd := exec.Command(binPath, "publish", "-name", "v1")
	cmd.Env = append(os.Environ(), "QUARRY_HOME="+home)
	if combined, err := cmd.CombinedOutput(); err == nil {
		t.Fatalf("expected duplicate publish to fail:\n%s", combined)
	}
	out = runQuarry(t, binPath, home, "events", "-kind", "publish.error")
	if !strings.Contains(out, "publish.error") {
		t.Fatalf("publish failure not recorded in event log:\n%s", out)
	}

	// Grow the working set and publish v2 without duplicates.
	extraPath, err := writeFixtureFile(workDir, "extra.jsonl", extraRecords())
	if err != nil {
		t.Fatal(err)
	}
	runQuarry(t, binPath, home, "ingest", extraPath)
	runQuarry(t, binPath, home, "publish", "-name", "v2", "-dedupe")

	// Versions are listed oldest first.
	out = runQuarry(t, binPath, home, "versions")
	if !strings.Contains(out, "v1") || !strings.Contains(out, "v2") {
		t.Fatalf("versions listing incomplete:\n%s", out)
	}
	if strings.Index(out, "v1") > strings.Index(out, "v2") {
		t.Fatalf("expected v1 before v2:\n%s", out)
	}

	// Diff shows membership movement: v2 added 2 and dropped the dupe.
	out = runQuarry(t, binPath, home, "diff", "v1", "v2")
	if !strings.Contains(out, "v1 -> v2") {
		t.Fatalf("unexpected diff header:\n%s", out)
	}
	if !strings.Contains(out, "added:     2") || !strings.Contains(out, "removed:   1") {
		t.Fatalf("unexpected diff membership:\n%s", out)
	}

	// Export writes the snapshot back out as JSONL.
	exportPath := filepath.Join(workDir, "v1.jsonl")
	runQuarry(t, binPath, home, "export", "-version", "v1", "-out", exportPath)
	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	if lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1; lines != 8 {
		t.Fatalf("expected 8 exported records, got %d", lines)
	}

	// The event log recorded the run.
	out = runQuarry(t, binPath, home, "events", "-tail", "100")
	for _, kind := range []string{"ingest.complete", "sample.complete", "publish.complete", "diff.complete", "export.complete"} {
		if !strings.Contains(out, kind) {
			t.Fatalf("event log missing %s:\n%s", kind, out)
		}
	}
}

func TestE2E_SampleSpread(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e in short mode")
	}

	binPath, cleanup := buildQuarry(t)
	defer cleanup()

	home := t.TempDir()
	workDir := t.TempDir()

	recordsPath, err := writeFixtureFile(workDir, "records.jsonl", fixtureRecords())
	if err != nil {
		t.Fatal(err)
	}
	runQuarry(t, binPath, home, "ingest", recordsPath)

	// A floor of one per intent guarantees the rare bug_report group
	// shows up even in a small sample.
	out := runQuarry(t, binPath, home, "sample",
		"-n", "3", "-by", "intent", "-min-per-group", "1", "-seed", "1", "-json")
	if !strings.Contains(out, "bug_report") {
		t.Fatalf("coverage floor did not reach the rare group:\n%s", out)
	}
}
