package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mwhitby/quarry/internal/events"
	"github.com/mwhitby/quarry/internal/model"
)

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	versionName := fs.String("version", "", "Version to export (required)")
	out := fs.String("out", "", "Destination file (default: stdout)")
	labelsOut := fs.String("labels", "", "Also write the version's labels as JSONL to this file")
	fs.Parse(os.Args[1:])

	if *versionName == "" {
		fmt.Fprintln(os.Stderr, "usage: quarry export -version NAME [-out file] [-labels file]")
		os.Exit(1)
	}

	content, err := openVersions().Load(*versionName)
	if err != nil {
		log.Fatalf("failed to load version %q: %v", *versionName, err)
	}

	start := time.Now()
	dest := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("failed to create %s: %v", *out, err)
		}
		defer f.Close()
		dest = f
	}
	if err := writeRecordsJSONL(dest, content.Interactions); err != nil {
		log.Fatalf("failed to write records: %v", err)
	}

	if *labelsOut != "" {
		if err := writeLabelsJSONL(*labelsOut, content.Labels); err != nil {
			log.Fatalf("failed to write labels: %v", err)
		}
	}

	ev := openEvents()
	defer ev.Close()
	ev.Emit(events.Event{
		Level:   events.LevelInfo,
		Kind:    events.KindExportComplete,
		Comp:    "export",
		Version: *versionName,
		Count:   len(content.Interactions),
		Dur:     time.Since(start),
	})

	if *out != "" {
		fmt.Printf("Exported %d records to %s\n", len(content.Interactions), *out)
		if *labelsOut != "" {
			fmt.Printf("Exported %d labels to %s\n", len(content.Labels), *labelsOut)
		}
	}
}

func writeLabelsJSONL(path string, labels []model.Label) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, label := range labels {
		if err := enc.Encode(label); err != nil {
			return err
		}
	}
	return f.Sync()
}
