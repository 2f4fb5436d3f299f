// Package ingest parses interaction and label records from JSONL input
// and validates them at the boundary. Everything downstream of this
// package works with typed records, never raw maps.
//
// Bad lines do not abort a file: each problem is collected as a
// RecordError with its line number, and the valid records still come
// through.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/mwhitby/quarry/internal/curate"
	"github.com/mwhitby/quarry/internal/model"
)

// maxLineBytes caps a single JSONL line.
const maxLineBytes = 1 << 20

// RecordError describes one rejected line.
type RecordError struct {
	Line  int    `json:"line"`
	Field string `json:"field,omitempty"`
	Msg   string `json:"msg"`
}

func (e RecordError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Result is a parsed interaction file: the records that made it, plus
// one error per rejected line.
type Result struct {
	Interactions []model.Interaction
	Errors       []RecordError
}

// LabelResult is a parsed label file.
type LabelResult struct {
	Labels []model.Label
	Errors []RecordError
}

// ReadInteractionsFile parses a JSONL interaction file.
func ReadInteractionsFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadInteractions(f)
}

// ReadInteractions parses one interaction per line. Records without an
// id are assigned a fresh UUID. The returned error covers read
// failures only; per-line problems land in Result.Errors.
func ReadInteractions(r io.Reader) (Result, error) {
	var result Result

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var item model.Interaction
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			result.Errors = append(result.Errors, RecordError{
				Line: line, Msg: "invalid JSON: " + err.Error(),
			})
			continue
		}

		if errs := validateInteraction(&item, line); len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		result.Interactions = append(result.Interactions, item)
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read input: %w", err)
	}

	return result, nil
}

// validateInteraction checks one decoded record in place, normalizing
// as it goes: the id is trimmed (or generated), tags are trimmed with
// empties and duplicates dropped.
func validateInteraction(item *model.Interaction, line int) []RecordError {
	var errs []RecordError

	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	if strings.TrimSpace(item.Input.Text) == "" {
		errs = append(errs, RecordError{
			Line: line, Field: "input.text", Msg: "required",
		})
	}

	for key, value := range item.Dimensions {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, RecordError{
				Line: line, Field: "dimensions", Msg: "empty key",
			})
			continue
		}
		if value == curate.MissingValue {
			errs = append(errs, RecordError{
				Line: line, Field: "dimensions." + key,
				Msg:  fmt.Sprintf("%q is reserved", curate.MissingValue),
			})
		}
	}

	if len(item.Tags) > 0 {
		seen := make(map[string]bool, len(item.Tags))
		tags := item.Tags[:0]
		for _, tag := range item.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
		item.Tags = tags
	}

	return errs
}

// ReadLabelsFile parses a JSONL label file.
func ReadLabelsFile(path string) (LabelResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return LabelResult{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLabels(f)
}

// ReadLabels parses one label per line. Both interaction_id and
// verdict are required.
func ReadLabels(r io.Reader) (LabelResult, error) {
	var result LabelResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var label model.Label
		if err := json.Unmarshal([]byte(raw), &label); err != nil {
			result.Errors = append(result.Errors, RecordError{
				Line: line, Msg: "invalid JSON: " + err.Error(),
			})
			continue
		}

		label.InteractionID = strings.TrimSpace(label.InteractionID)
		label.Verdict = strings.TrimSpace(label.Verdict)

		var errs []RecordError
		if label.InteractionID == "" {
			errs = append(errs, RecordError{Line: line, Field: "interaction_id", Msg: "required"})
		}
		if label.Verdict == "" {
			errs = append(errs, RecordError{Line: line, Field: "verdict", Msg: "required"})
		}
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		result.Labels = append(result.Labels, label)
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read input: %w", err)
	}

	return result, nil
}
