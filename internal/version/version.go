// Package version stores published dataset versions on disk.
//
// A version is an immutable snapshot of interactions and labels taken
// from the live store at publish time. Each lives in its own directory:
//
//	<root>/<name>/version.json       metadata, counts, distribution stats
//	<root>/<name>/interactions.json  full interaction content
//	<root>/<name>/labels.json        labels for the snapshot
//
// Publishing over an existing name is refused. Later edits to the live
// store never reach a published version.
package version

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mwhitby/quarry/internal/curate"
	"github.com/mwhitby/quarry/internal/logging"
	"github.com/mwhitby/quarry/internal/model"
)

// schemaVersion marks the on-disk layout, bumped on breaking changes.
const schemaVersion = 1

var (
	// ErrNotFound means the named version does not exist.
	ErrNotFound = errors.New("version not found")

	// ErrExists means a version with that name was already published.
	ErrExists = errors.New("version already exists")
)

// ParseError means a version exists on disk but its files cannot be
// read as a snapshot.
type ParseError struct {
	Version string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("version %s is unreadable: %v", e.Version, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Counts summarizes a version's size.
type Counts struct {
	Interactions int `json:"interactions"`
	Labels       int `json:"labels"`
}

// Meta is the version.json payload.
type Meta struct {
	SchemaVersion  int          `json:"schema_version"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	Counts         Counts       `json:"counts"`
	Stats          curate.Stats `json:"stats"`
	InteractionIDs []string     `json:"interaction_ids"`
}

// Content is one loaded version: metadata plus the snapshot's records,
// both slices sorted by interaction id.
type Content struct {
	Meta         Meta
	Interactions []model.Interaction
	Labels       []model.Label
}

// Snapshot indexes the content for diffing.
func (c Content) Snapshot() curate.Snapshot {
	return curate.NewSnapshot(c.Meta.Name, c.Interactions, c.Labels)
}

// Store reads and writes versions under one root directory.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir. The directory is created on
// first publish, not here.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Publish snapshots items and labels under the given name.
//
// The name must be non-empty, contain only letters, digits, '.', '_'
// and '-', and not start with a dot. Every label must reference an
// interaction in the snapshot. Publishing an existing name fails with
// ErrExists; nothing ever overwrites a published version.
func (s *Store) Publish(name, description string, items []model.Interaction, labels []model.Label) (Meta, error) {
	if !validName(name) {
		return Meta{}, fmt.Errorf("invalid version name %q", name)
	}

	ids := make([]string, 0, len(items))
	idSet := make(map[string]bool, len(items))
	for _, item := range items {
		if !idSet[item.ID] {
			ids = append(ids, item.ID)
		}
		idSet[item.ID] = true
	}
	sort.Strings(ids)

	for _, l := range labels {
		if !idSet[l.InteractionID] {
			return Meta{}, fmt.Errorf("label references interaction %s outside the snapshot", l.InteractionID)
		}
	}

	dir := filepath.Join(s.root, name)
	if _, err := os.Stat(dir); err == nil {
		return Meta{}, fmt.Errorf("version %s: %w", name, ErrExists)
	} else if !os.IsNotExist(err) {
		return Meta{}, fmt.Errorf("failed to check version %s: %w", name, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Meta{}, fmt.Errorf("failed to create version directory: %w", err)
	}

	meta := Meta{
		SchemaVersion: schemaVersion,
		Name:          name,
		Description:   description,
		CreatedAt:     time.Now(),
		Counts: Counts{
			Interactions: len(items),
			Labels:       len(labels),
		},
		Stats:          curate.ComputeStats(items, nil),
		InteractionIDs: ids,
	}

	// version.json goes last: its presence marks a complete snapshot.
	err := writeJSON(filepath.Join(dir, "interactions.json"), items)
	if err == nil {
		err = writeJSON(filepath.Join(dir, "labels.json"), labels)
	}
	if err == nil {
		err = writeJSON(filepath.Join(dir, "version.json"), meta)
	}
	if err != nil {
		os.RemoveAll(dir)
		return Meta{}, fmt.Errorf("failed to write version %s: %w", name, err)
	}

	return meta, nil
}

// Load reads one version in full.
//
// A missing version (or a directory without a complete version.json)
// yields ErrNotFound; unreadable or malformed files yield a ParseError
// naming the version.
func (s *Store) Load(name string) (Content, error) {
	if !validName(name) {
		return Content{}, fmt.Errorf("version %s: %w", name, ErrNotFound)
	}
	dir := filepath.Join(s.root, name)

	metaRaw, err := os.ReadFile(filepath.Join(dir, "version.json"))
	if os.IsNotExist(err) {
		return Content{}, fmt.Errorf("version %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return Content{}, &ParseError{Version: name, Err: err}
	}

	var c Content
	if err := json.Unmarshal(metaRaw, &c.Meta); err != nil {
		return Content{}, &ParseError{Version: name, Err: err}
	}

	if err := readJSON(filepath.Join(dir, "interactions.json"), &c.Interactions); err != nil {
		return Content{}, &ParseError{Version: name, Err: err}
	}
	if err := readJSON(filepath.Join(dir, "labels.json"), &c.Labels); err != nil {
		return Content{}, &ParseError{Version: name, Err: err}
	}

	sort.Slice(c.Interactions, func(i, j int) bool { return c.Interactions[i].ID < c.Interactions[j].ID })
	sort.Slice(c.Labels, func(i, j int) bool { return c.Labels[i].InteractionID < c.Labels[j].InteractionID })

	return c, nil
}

// LoadPair loads two versions concurrently. The first error wins, with
// the first version's error taking precedence over the second's.
func (s *Store) LoadPair(from, to string) (Content, Content, error) {
	var (
		wg       sync.WaitGroup
		contents [2]Content
		errs     [2]error
	)
	for i, name := range []string{from, to} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			contents[i], errs[i] = s.Load(name)
		}()
	}
	wg.Wait()

	if errs[0] != nil {
		return Content{}, Content{}, errs[0]
	}
	if errs[1] != nil {
		return Content{}, Content{}, errs[1]
	}
	return contents[0], contents[1], nil
}

// List returns metadata for all published versions, oldest first.
// Entries that cannot be read are skipped with a warning rather than
// failing the whole listing.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read versions directory: %w", err)
	}

	var metas []Meta
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.root, entry.Name(), "version.json"))
		if err != nil {
			logging.Warn("Skipping unreadable version", "version", entry.Name(), "error", err)
			continue
		}
		var meta Meta
		if err := json.Unmarshal(raw, &meta); err != nil {
			logging.Warn("Skipping malformed version", "version", entry.Name(), "error", err)
			continue
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].CreatedAt.Before(metas[j].CreatedAt)
		}
		return metas[i].Name < metas[j].Name
	})
	return metas, nil
}

// validName rejects names that would escape the versions directory or
// hide from listings.
func validName(name string) bool {
	if name == "" || name[0] == '.' {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
