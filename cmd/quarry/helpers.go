package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwhitby/quarry/internal/config"
	"github.com/mwhitby/quarry/internal/events"
	"github.com/mwhitby/quarry/internal/model"
	"github.com/mwhitby/quarry/internal/version"
)

// dataDir returns the quarry data directory, creating it if needed.
// QUARRY_HOME overrides the default ~/.quarry.
func dataDir() string {
	dir := os.Getenv("QUARRY_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("failed to get home directory: %v", err)
		}
		dir = filepath.Join(home, ".quarry")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	return dir
}

// dbPath returns the path to quarry.db.
func dbPath() string {
	return filepath.Join(dataDir(), "quarry.db")
}

// eventLogPath returns the path to quarry.events.jsonl.
func eventLogPath() string {
	return filepath.Join(dataDir(), "quarry.events.jsonl")
}

// versionsDir returns the directory holding published versions.
func versionsDir() string {
	return filepath.Join(dataDir(), "versions")
}

// openDB opens the working store or fatals.
func openDB() *model.Store {
	st, err := model.Open(dbPath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return st
}

// openVersions returns the snapshot store.
func openVersions() *version.Store {
	return version.NewStore(versionsDir())
}

// openEvents returns the event logger, or a null logger when the event
// file cannot be opened. Commands always Close it before exiting.
func openEvents() *events.Logger {
	l, err := events.OpenFile(eventLogPath())
	if err != nil {
		return events.NewNullLogger()
	}
	return l
}

// loadConfig returns the persisted config or defaults.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to read config: %v\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// splitKeys parses a comma-separated key list, dropping empties.
func splitKeys(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var keys []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

// parseWhere parses "key=value,key2=value2" into an exact-match filter.
// Values may be empty: "tier=" matches the empty string.
func parseWhere(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	where := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("bad filter %q: want key=value", part)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("bad filter %q: empty key", part)
		}
		where[key] = value
	}
	return where, nil
}

// writeRecordsJSONL writes one interaction per line.
func writeRecordsJSONL(w io.Writer, items []model.Interaction) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

// printJSON marshals v with indentation to stdout or fatals.
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode JSON: %v", err)
	}
	fmt.Println(string(data))
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
