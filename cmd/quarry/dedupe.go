package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mwhitby/quarry/internal/curate"
	"github.com/mwhitby/quarry/internal/events"
)

func runDedupe() {
	fs := flag.NewFlagSet("dedupe", flag.ExitOnError)
	prune := fs.Bool("prune", false, "Delete duplicates from the working set (keeps the first of each cluster)")
	fs.Parse(os.Args[1:])

	st := openDB()
	defer st.Close()

	items, err := st.ListInteractions()
	if err != nil {
		log.Fatalf("failed to list interactions: %v", err)
	}

	start := time.Now()
	clusters := curate.DuplicateGroups(items)
	if len(clusters) == 0 {
		fmt.Println("No exact duplicates found.")
		return
	}

	duplicates := 0
	var doomed []string
	for _, cluster := range clusters {
		fmt.Printf("keep %s\n", cluster[0])
		for _, id := range cluster[1:] {
			fmt.Printf("  dup %s\n", id)
		}
		duplicates += len(cluster) - 1
		doomed = append(doomed, cluster[1:]...)
	}
	fmt.Printf("\n%d clusters, %d duplicate interactions\n", len(clusters), duplicates)

	if !*prune {
		fmt.Println("Re-run with -prune to delete them.")
		return
	}

	removed, err := st.DeleteInteractions(doomed)
	if err != nil {
		log.Fatalf("failed to delete duplicates: %v", err)
	}

	ev := openEvents()
	defer ev.Close()
	ev.Emit(events.Event{
		Level: events.LevelInfo,
		Kind:  events.KindDedupeComplete,
		Comp:  "dedupe",
		Count: removed,
		Dur:   time.Since(start),
	})

	fmt.Printf("Deleted %d duplicates\n", removed)
	if total, err := st.InteractionCount(); err == nil {
		fmt.Printf("Working set now holds %d interactions\n", total)
	}
}
