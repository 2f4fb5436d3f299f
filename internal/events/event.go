// Package events provides structured observability for quarry.
//
// Events are typed structs serialized as JSONL lines in the data
// directory. The Logger writes events asynchronously via a buffered
// channel and background drain goroutine, so command paths never block
// on disk. The `quarry events` subcommand reads the same file back.
package events

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Kind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type Kind string

const (
	// Ingest events
	KindIngestStart    Kind = "ingest.start"
	KindIngestComplete Kind = "ingest.complete"
	KindIngestError    Kind = "ingest.error"

	// Curation events
	KindSampleComplete Kind = "sample.complete"
	KindDedupeComplete Kind = "dedupe.complete"

	// Version events
	KindPublishComplete Kind = "publish.complete"
	KindPublishError    Kind = "publish.error"
	KindDiffComplete    Kind = "diff.complete"
	KindExportComplete  Kind = "export.complete"

	// Store events
	KindStoreError Kind = "store.error"

	// System events
	KindStartup  Kind = "sys.startup"
	KindShutdown Kind = "sys.shutdown"
	KindError    Kind = "sys.error"
)

// Event is the universal observability record. Every field except Kind
// and Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      Kind           `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "ingest", "sample", "publish", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire command run
	Dur       time.Duration  `json:"-"`                    // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Groups    int            `json:"groups,omitempty"`
	Rejected  int            `json:"rejected,omitempty"`
	Seed      int64          `json:"seed,omitempty"`
	File      string         `json:"file,omitempty"`
	Version   string         `json:"version,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`   // free text
	Extra     map[string]any `json:"extra,omitempty"` // escape hatch for unusual fields
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
