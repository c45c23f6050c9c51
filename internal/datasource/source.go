// Package datasource discovers, validates and selects event sources in a
// content directory: SQLite databases, JSONL streams and YAML documents.
package datasource

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/vanderheijden86/chronarc/pkg/loader"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite database (events.db)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSONL is a JSONL event stream
	SourceTypeJSONL SourceType = "jsonl"
	// SourceTypeYAML is a YAML event document
	SourceTypeYAML SourceType = "yaml"
)

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite = 100
	PriorityJSONL  = 80
	PriorityYAML   = 50
)

// DatabaseName is the SQLite file looked up in a content directory.
const DatabaseName = "events.db"

// ErrNoValidSources is returned when discovery finds nothing loadable.
var ErrNoValidSources = errors.New("no valid sources discovered")

// DataSource represents a potential source of events
type DataSource struct {
	Type     SourceType `json:"type"`
	Path     string     `json:"path"`
	Priority int        `json:"priority"` // tie-break when mod times are equal
	ModTime  time.Time  `json:"mod_time"`
	// Valid and ValidationError are filled by ValidateSource.
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	EventCount      int    `json:"event_count"`
	Size            int64  `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, events=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.EventCount, status)
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// ContentDir is the content directory (auto-detected from Root if empty)
	ContentDir string
	// Root is the project root used for auto-detection (cwd if empty)
	Root string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid keeps sources that failed validation
	IncludeInvalid bool
	// Verbose enables detailed logging during discovery
	Verbose bool
	// Logger receives log messages when Verbose is true
	Logger func(msg string)
}

// DiscoverSources finds every candidate source in the content directory,
// freshest first.
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	dir := opts.ContentDir
	if dir == "" {
		var err error
		dir, err = loader.GetContentDir(opts.Root)
		if err != nil {
			return nil, err
		}
	}
	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovering sources in: %s", dir))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		typ, priority, ok := classify(name)
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, name)
		sources = append(sources, DataSource{
			Type:     typ,
			Path:     path,
			Priority: priority,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found %s: %s (mod=%s)", typ, path, info.ModTime().Format(time.RFC3339)))
		}
	}

	if opts.ValidateAfterDiscovery {
		kept := sources[:0]
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil && opts.Verbose {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
			if sources[i].Valid || opts.IncludeInvalid {
				kept = append(kept, sources[i])
			}
		}
		sources = kept
	}

	SortSources(sources)

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	}
	return sources, nil
}

// SortSources orders sources freshest first, breaking ties by priority.
func SortSources(sources []DataSource) {
	slices.SortStableFunc(sources, func(a, b DataSource) int {
		if c := b.ModTime.Compare(a.ModTime); c != 0 {
			return c
		}
		return cmp.Compare(b.Priority, a.Priority)
	})
}

// classify maps a file name to its source type. Editor and merge leftovers
// are ignored.
func classify(name string) (SourceType, int, bool) {
	if strings.Contains(name, ".backup") || strings.Contains(name, ".orig") || strings.Contains(name, ".merge") {
		return "", 0, false
	}
	if name == DatabaseName {
		return SourceTypeSQLite, PrioritySQLite, true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl":
		return SourceTypeJSONL, PriorityJSONL, true
	case ".yaml", ".yml":
		return SourceTypeYAML, PriorityYAML, true
	}
	return "", 0, false
}

// ValidateSource loads the source once, recording whether it is usable and
// how many events it holds. The returned error mirrors ValidationError.
func ValidateSource(s *DataSource) error {
	s.Valid = false
	s.ValidationError = ""
	s.EventCount = 0

	info, err := os.Stat(s.Path)
	if err != nil {
		s.ValidationError = err.Error()
		return err
	}
	if info.Size() == 0 {
		err := fmt.Errorf("%s is empty", s.Path)
		s.ValidationError = err.Error()
		return err
	}

	var n int
	switch s.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(*s)
		if err == nil {
			n, err = reader.CountEvents()
			reader.Close()
		}
		if err != nil {
			s.ValidationError = err.Error()
			return err
		}
	default:
		events, err := loader.LoadEventsFromFileWithOptions(s.Path, loader.ParseOptions{WarningHandler: func(string) {}})
		if err != nil {
			s.ValidationError = err.Error()
			return err
		}
		n = len(events)
	}

	s.Valid = true
	s.EventCount = n
	return nil
}

// SelectBestSource returns the freshest valid source.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	ordered := make([]DataSource, len(sources))
	copy(ordered, sources)
	SortSources(ordered)
	for _, s := range ordered {
		if s.Valid {
			return s, nil
		}
	}
	return DataSource{}, ErrNoValidSources
}

// SourceForPath builds an unvalidated DataSource for an explicit file path.
// Any .db file is read as SQLite.
func SourceForPath(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, err
	}
	name := filepath.Base(path)
	typ, priority, ok := classify(name)
	if !ok && strings.EqualFold(filepath.Ext(name), ".db") {
		typ, priority, ok = SourceTypeSQLite, PrioritySQLite, true
	}
	if !ok {
		return DataSource{}, fmt.Errorf("unsupported content file: %s", path)
	}
	return DataSource{
		Type:     typ,
		Path:     path,
		Priority: priority,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	}, nil
}
