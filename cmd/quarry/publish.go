package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mwhitby/quarry/internal/curate"
	"github.com/mwhitby/quarry/internal/events"
)

func runPublish() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	name := fs.String("name", "", "Version name (required)")
	desc := fs.String("desc", "", "Version description")
	n := fs.Int("n", 0, "Sample size; 0 publishes everything that matches")
	by := fs.String("by", strings.Join(cfg.Sampling.DefaultBy, ","), "Comma-separated dimension keys to stratify by")
	whereFlag := fs.String("where", "", "Exact-match filters, e.g. intent=how_to")
	seed := fs.Int64("seed", cfg.Sampling.Seed, "RNG seed; negative draws a fresh seed each run")
	minPerGroup := fs.Int("min-per-group", cfg.Sampling.MinPerGroup, "Coverage floor per non-empty group")
	dedupe := fs.Bool("dedupe", false, "Drop exact duplicates before publishing")
	fs.Parse(os.Args[1:])

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: quarry publish -name NAME [-desc text] [-n N] [-by keys] [-where filters] [-seed S] [-min-per-group M] [-dedupe]")
		os.Exit(1)
	}
	where, err := parseWhere(*whereFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	st := openDB()
	defer st.Close()

	items, err := st.ListInteractions()
	if err != nil {
		log.Fatalf("failed to list interactions: %v", err)
	}
	if *dedupe {
		items = curate.DedupeExact(items)
	}
	items = curate.Filter(items, where)

	if *n > 0 {
		items = curate.StratifiedSample(items, curate.SampleOptions{
			N:           *n,
			By:          splitKeys(*by),
			Seed:        *seed,
			MinPerGroup: *minPerGroup,
		})
	}

	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "error: nothing to publish")
		os.Exit(1)
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	labels, err := st.GetLabels(ids)
	if err != nil {
		log.Fatalf("failed to load labels: %v", err)
	}

	ev := openEvents()
	defer ev.Close()

	start := time.Now()
	meta, err := openVersions().Publish(*name, *desc, items, labels)
	if err != nil {
		ev.Emit(events.Event{
			Level:   events.LevelError,
			Kind:    events.KindPublishError,
			Comp:    "publish",
			Version: *name,
			Err:     err.Error(),
		})
		// log.Fatalf skips the deferred Close, so flush here.
		ev.Close()
		log.Fatalf("failed to publish: %v", err)
	}

	ev.Emit(events.Event{
		Level:   events.LevelInfo,
		Kind:    events.KindPublishComplete,
		Comp:    "publish",
		Version: meta.Name,
		Count:   meta.Counts.Interactions,
		Dur:     time.Since(start),
	})

	fmt.Printf("Published %s: %d interactions, %d labels\n",
		meta.Name, meta.Counts.Interactions, meta.Counts.Labels)
	if *desc != "" {
		fmt.Printf("  %s\n", *desc)
	}
}
