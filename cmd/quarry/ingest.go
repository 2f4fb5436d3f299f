package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mwhitby/quarry/internal/events"
	"github.com/mwhitby/quarry/internal/ingest"
	"github.com/mwhitby/quarry/internal/model"
)

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	labelsFile := fs.String("labels", "", "JSONL label file to load alongside the records")
	dryRun := fs.Bool("dry-run", false, "Parse and validate without writing to the store")
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: quarry ingest [-labels file] [-dry-run] <records.jsonl>")
		os.Exit(1)
	}
	path := args[0]

	ev := openEvents()
	defer ev.Close()
	ev.Emit(events.Event{Level: events.LevelInfo, Kind: events.KindIngestStart, Comp: "ingest", File: path})

	start := time.Now()
	result, err := ingest.ReadInteractionsFile(path)
	if err != nil {
		ev.Error(events.KindIngestError, "ingest", err)
		ev.Close()
		log.Fatalf("%v", err)
	}
	for _, re := range result.Errors {
		fmt.Fprintf(os.Stderr, "  skipped %v\n", re)
	}

	var labels []model.Label
	if *labelsFile != "" {
		labelResult, err := ingest.ReadLabelsFile(*labelsFile)
		if err != nil {
			ev.Error(events.KindIngestError, "ingest", err)
			ev.Close()
			log.Fatalf("%v", err)
		}
		for _, re := range labelResult.Errors {
			fmt.Fprintf(os.Stderr, "  skipped label %v\n", re)
		}
		labels = labelResult.Labels
	}

	if *dryRun {
		fmt.Printf("Parsed %d interactions (%d rejected)\n", len(result.Interactions), len(result.Errors))
		if *labelsFile != "" {
			fmt.Printf("Parsed %d labels\n", len(labels))
		}
		return
	}

	st := openDB()
	defer st.Close()

	stored, err := st.UpsertInteractions(result.Interactions)
	if err != nil {
		ev.Error(events.KindStoreError, "ingest", err)
		ev.Close()
		log.Fatalf("failed to store interactions: %v", err)
	}

	labelCount := 0
	if len(labels) > 0 {
		labelCount, err = st.UpsertLabels(labels)
		if err != nil {
			ev.Error(events.KindStoreError, "ingest", err)
			ev.Close()
			log.Fatalf("failed to store labels: %v", err)
		}
	}

	ev.Emit(events.Event{
		Level:    events.LevelInfo,
		Kind:     events.KindIngestComplete,
		Comp:     "ingest",
		File:     path,
		Count:    stored,
		Rejected: len(result.Errors),
		Dur:      time.Since(start),
	})

	fmt.Printf("Ingested %d interactions (%d rejected)\n", stored, len(result.Errors))
	if *labelsFile != "" {
		fmt.Printf("Ingested %d labels\n", labelCount)
	}

	if total, err := st.InteractionCount(); err == nil {
		fmt.Printf("Working set now holds %d interactions\n", total)
	}
}
