// Command quarry is the CLI for curating and versioning interaction
// datasets.
//
// Usage:
//
//	quarry ingest records.jsonl     Load interactions into the working set
//	quarry stats                    Dimension and tag distributions
//	quarry sample -n 50 -by intent  Draw a stratified sample
//	quarry dedupe                   Report or prune exact duplicates
//	quarry publish -name v1         Freeze the working set as a version
//	quarry versions                 List published versions
//	quarry diff v1 v2               Compare two versions
//	quarry export -version v1       Write a version as JSONL
//	quarry browse                   Interactive browser
//	quarry events                   JSONL event log viewer
package main

import (
	"fmt"
	"os"

	"github.com/mwhitby/quarry/internal/logging"
)

const usage = `quarry: dataset curation and versioning

Usage:
  quarry <command> [flags]

Commands:
  ingest      Load interaction records from a JSONL file
  stats       Dimension and tag distributions of the working set
  sample      Draw a deterministic stratified sample
  dedupe      Report or prune exact duplicate interactions
  publish     Freeze the current working set as a named version
  versions    List published versions
  diff        Compare two published versions
  export      Write a published version as JSONL
  browse      Interactive browser over the working set or a version
  events      JSONL event log viewer

Environment:
  QUARRY_HOME   Data directory (default: ~/.quarry)

Run 'quarry <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}
	defer logging.Close()

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "ingest":
		runIngest()
	case "stats":
		runStats()
	case "sample":
		runSample()
	case "dedupe":
		runDedupe()
	case "publish":
		runPublish()
	case "versions":
		runVersions()
	case "diff":
		runDiff()
	case "export":
		runExport()
	case "browse":
		runBrowse()
	case "events":
		runEvents()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "quarry: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
