package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mwhitby/quarry/internal/curate"
	"github.com/mwhitby/quarry/internal/events"
	"github.com/mwhitby/quarry/internal/report"
)

func runDiff() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	keysFlag := fs.String("keys", "", "Comma-separated dimension keys (default: all keys on either side)")
	top := fs.Int("top", cfg.Display.TopValues, "Values shown per dimension (0 = all)")
	rawJSON := fs.Bool("json", false, "Output the diff as JSON")
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: quarry diff [-keys a,b] [-top n] [-json] <from> <to>")
		os.Exit(1)
	}
	fromName, toName := args[0], args[1]

	start := time.Now()
	fromContent, toContent, err := openVersions().LoadPair(fromName, toName)
	if err != nil {
		log.Fatalf("failed to load versions: %v", err)
	}

	diff := curate.Diff(fromContent.Snapshot(), toContent.Snapshot(), splitKeys(*keysFlag))

	ev := openEvents()
	defer ev.Close()
	ev.Emit(events.Event{
		Level:   events.LevelInfo,
		Kind:    events.KindDiffComplete,
		Comp:    "diff",
		Version: fromName + "->" + toName,
		Count:   len(diff.Added) + len(diff.Removed),
		Dur:     time.Since(start),
	})

	if *rawJSON {
		printJSON(diff)
		return
	}
	fmt.Print(report.Diff(diff, *top))
}
