package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mwhitby/quarry/internal/curate"
	"github.com/mwhitby/quarry/internal/model"
	"github.com/mwhitby/quarry/internal/report"
)

func runStats() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	keysFlag := fs.String("keys", "", "Comma-separated dimension keys (default: all observed keys)")
	versionName := fs.String("version", "", "Compute over a published version instead of the working set")
	top := fs.Int("top", cfg.Display.TopValues, "Values shown per dimension (0 = all)")
	rawJSON := fs.Bool("json", false, "Output stats as JSON")
	fs.Parse(os.Args[1:])

	items := loadItems(*versionName)
	stats := curate.ComputeStats(items, splitKeys(*keysFlag))

	if *rawJSON {
		printJSON(stats)
		return
	}
	fmt.Print(report.Stats(stats, *top))
}

// loadItems reads interactions from a published version, or from the
// working store when name is empty.
func loadItems(name string) []model.Interaction {
	if name != "" {
		content, err := openVersions().Load(name)
		if err != nil {
			log.Fatalf("failed to load version %q: %v", name, err)
		}
		return content.Interactions
	}

	st := openDB()
	defer st.Close()

	items, err := st.ListInteractions()
	if err != nil {
		log.Fatalf("failed to list interactions: %v", err)
	}
	return items
}
