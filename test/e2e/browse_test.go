package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"
)

func TestE2E_Browse(t *testing.T) {
	binPath, cleanup := buildQuarry(t)
	defer cleanup()

	// Isolated data directory so the test never touches real data
	homeDir := t.TempDir()

	recordsPath, err := writeFixtureFile(homeDir, "records.jsonl", fixtureRecords())
	if err != nil {
		t.Fatal(err)
	}
	runQuarry(t, binPath, homeDir, "ingest", recordsPath)

	cmd := exec.Command(binPath, "browse")
	cmd.Env = append(os.Environ(), "QUARRY_HOME="+homeDir)

	// Capture output for debugging
	var outputBuf bytes.Buffer

	// The TUI stalls up to 5s at startup waiting for terminal capability
	// query responses that never come, so the expect timeout must exceed
	// that.
	console, err := expect.NewConsole(
		expect.WithStdout(&outputBuf),
		expect.WithDefaultTimeout(10*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create console: %v", err)
	}
	defer console.Close()

	if err := pty.Setsize(console.Tty(), &pty.Winsize{Cols: 120, Rows: 40}); err != nil {
		t.Fatalf("failed to set pty size: %v", err)
	}

	cmd.Stdin = console.Tty()
	cmd.Stdout = console.Tty()
	cmd.Stderr = console.Tty()
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start pty: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
	}()

	// 1. Wait for the list view (all 8 fixture records)
	t.Log("Waiting for list view (1/8)...")
	if _, err := console.ExpectString("1/8"); err != nil {
		if paths, _ := filepath.Glob(filepath.Join(homeDir, "logs", "*.log")); len(paths) > 0 {
			if logs, err := os.ReadFile(paths[0]); err == nil {
				t.Logf("%s:\n%s", filepath.Base(paths[0]), logs)
			}
		}
		t.Fatalf("startup failed: '1/8' not found: %v\nScreen:\n%s", err, outputBuf.String())
	}

	// 2. Move the cursor down
	t.Log("Sending 'j'...")
	time.Sleep(500 * time.Millisecond) // Allow UI to stabilize
	if _, err := console.Send("j"); err != nil {
		t.Fatalf("failed to send 'j': %v", err)
	}
	if _, err := console.ExpectString("2/8"); err != nil {
		t.Fatalf("cursor did not move: %v\nScreen:\n%s", err, outputBuf.String())
	}

	// 3. Open the detail pane for the selected record
	t.Log("Sending Enter...")
	if _, err := console.Send("\r"); err != nil {
		t.Fatalf("failed to send Enter: %v", err)
	}
	if _, err := console.ExpectString("dimensions"); err != nil {
		t.Fatalf("detail pane not shown: %v\nScreen:\n%s", err, outputBuf.String())
	}

	// 4. Quit
	t.Log("Sending 'q'...")
	if _, err := console.Send("q"); err != nil {
		t.Fatalf("failed to send 'q': %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("browse did not exit after 'q'\nScreen:\n%s", outputBuf.String())
	}
}
