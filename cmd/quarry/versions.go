package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func runVersions() {
	fs := flag.NewFlagSet("versions", flag.ExitOnError)
	rawJSON := fs.Bool("json", false, "Output version metadata as JSON")
	fs.Parse(os.Args[1:])

	metas, err := openVersions().List()
	if err != nil {
		log.Fatalf("failed to list versions: %v", err)
	}

	if *rawJSON {
		printJSON(metas)
		return
	}

	if len(metas) == 0 {
		fmt.Println("No versions published yet.")
		return
	}

	fmt.Printf("%-24s %-17s %12s %8s  %s\n", "NAME", "CREATED", "INTERACTIONS", "LABELS", "DESCRIPTION")
	for _, m := range metas {
		desc := m.Description
		if len(desc) > 40 {
			desc = truncate(desc, 40)
		}
		fmt.Printf("%-24s %-17s %12d %8d  %s\n",
			m.Name,
			m.CreatedAt.Format("2006-01-02 15:04"),
			m.Counts.Interactions,
			m.Counts.Labels,
			desc)
	}
}
