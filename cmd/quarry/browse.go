package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwhitby/quarry/internal/curate"
	"github.com/mwhitby/quarry/internal/events"
	"github.com/mwhitby/quarry/internal/model"
	"github.com/mwhitby/quarry/internal/ui"
)

func runBrowse() {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	versionName := fs.String("version", "", "Browse a published version instead of the working set")
	whereFlag := fs.String("where", "", "Exact-match filters, e.g. intent=how_to")
	fs.Parse(os.Args[1:])

	where, err := parseWhere(*whereFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var (
		title  string
		items  []model.Interaction
		labels []model.Label
	)
	if *versionName != "" {
		content, err := openVersions().Load(*versionName)
		if err != nil {
			log.Fatalf("failed to load version %q: %v", *versionName, err)
		}
		title = *versionName
		items = content.Interactions
		labels = content.Labels
	} else {
		st := openDB()
		items, err = st.ListInteractions()
		if err != nil {
			st.Close()
			log.Fatalf("failed to list interactions: %v", err)
		}
		labels, err = st.ListLabels()
		if err != nil {
			st.Close()
			log.Fatalf("failed to list labels: %v", err)
		}
		st.Close()
		title = "working set"
	}

	items = curate.Filter(items, where)

	labelsByID := make(map[string]model.Label, len(labels))
	for _, label := range labels {
		labelsByID[label.InteractionID] = label
	}

	ev := openEvents()
	defer ev.Close()
	ev.Info(events.KindStartup, "browse", title)

	p := tea.NewProgram(ui.New(title, items, labelsByID), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		ev.Error(events.KindError, "browse", err)
		ev.Close()
		log.Fatalf("browse failed: %v", err)
	}

	ev.Info(events.KindShutdown, "browse", title)
}
