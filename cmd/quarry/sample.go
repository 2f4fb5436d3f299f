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
	"github.com/mwhitby/quarry/internal/model"
)

func runSample() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	n := fs.Int("n", cfg.Sampling.DefaultN, "Sample size")
	by := fs.String("by", strings.Join(cfg.Sampling.DefaultBy, ","), "Comma-separated dimension keys to stratify by")
	whereFlag := fs.String("where", "", "Exact-match filters, e.g. intent=how_to,tier=free")
	seed := fs.Int64("seed", cfg.Sampling.Seed, "RNG seed; negative draws a fresh seed each run")
	minPerGroup := fs.Int("min-per-group", cfg.Sampling.MinPerGroup, "Coverage floor per non-empty group")
	dedupe := fs.Bool("dedupe", false, "Drop exact duplicates before sampling")
	out := fs.String("out", "", "Write sampled records as JSONL to this file")
	rawJSON := fs.Bool("json", false, "Write sampled records as JSONL to stdout")
	fs.Parse(os.Args[1:])

	if *n <= 0 {
		fmt.Fprintln(os.Stderr, "error: -n must be positive")
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

	opts := curate.SampleOptions{
		N:           *n,
		By:          splitKeys(*by),
		Where:       where,
		Seed:        *seed,
		MinPerGroup: *minPerGroup,
	}

	start := time.Now()
	matched := curate.Filter(items, where)
	picked := curate.StratifiedSample(items, opts)

	ev := openEvents()
	defer ev.Close()
	ev.Emit(events.Event{
		Level:  events.LevelInfo,
		Kind:   events.KindSampleComplete,
		Comp:   "sample",
		Count:  len(picked),
		Groups: len(curate.GroupBy(picked, opts.By)),
		Seed:   opts.Seed,
		Dur:    time.Since(start),
	})

	if *rawJSON {
		if err := writeRecordsJSONL(os.Stdout, picked); err != nil {
			log.Fatalf("failed to write records: %v", err)
		}
		return
	}

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("failed to create %s: %v", *out, err)
		}
		if err := writeRecordsJSONL(f, picked); err != nil {
			f.Close()
			log.Fatalf("failed to write records: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("failed to write records: %v", err)
		}
	}

	printSampleSummary(matched, picked, opts)
	if *out != "" {
		fmt.Printf("\nWrote %d records to %s\n", len(picked), *out)
	} else {
		fmt.Println("\nUse -out FILE or -json to capture the records.")
	}
}

// printSampleSummary shows what was drawn from each group.
func printSampleSummary(matched, picked []model.Interaction, opts curate.SampleOptions) {
	seedNote := "random seed"
	if opts.Seed >= 0 {
		seedNote = fmt.Sprintf("seed %d", opts.Seed)
	}
	fmt.Printf("Sampled %d of %d matching interactions (%s)\n", len(picked), len(matched), seedNote)

	if len(opts.By) == 0 {
		return
	}

	sizes := curate.GroupBy(matched, opts.By)
	chosen := curate.GroupBy(picked, opts.By)

	fmt.Printf("\nBy %s:\n", strings.Join(opts.By, ", "))
	for _, key := range curate.SortedGroupKeys(sizes) {
		label := strings.Join(curate.DecodeGroupKey(key), " / ")
		fmt.Printf("  %-35s %d/%d\n", label, len(chosen[key]), len(sizes[key]))
	}
}
