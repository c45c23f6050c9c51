// Package loader finds and parses event files: JSONL streams (one event per
// line) and YAML event documents.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/chronarc/pkg/content"
	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/metrics"
	"github.com/vanderheijden86/chronarc/pkg/model"
)

// ContentDirEnvVar overrides the content directory.
const ContentDirEnvVar = "CHRONARC_CONTENT"

// QuietEnvVar silences the default warning handler when set to 1.
const QuietEnvVar = "CHRONARC_QUIET"

// DefaultDirName is the content directory looked up under a project root.
const DefaultDirName = ".chronarc"

// PreferredNames defines the lookup order for event files in a content dir.
var PreferredNames = []string{"events.jsonl", "events.yaml", "events.yml"}

// ErrNoEventsFile is returned when a content dir holds no usable event file.
var ErrNoEventsFile = errors.New("no events file found")

// GetContentDir returns the content directory, respecting CHRONARC_CONTENT.
// Otherwise it is .chronarc under root (or the working directory).
func GetContentDir(root string) (string, error) {
	if envDir := os.Getenv(ContentDirEnvVar); envDir != "" {
		return envDir, nil
	}
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	return filepath.Join(root, DefaultDirName), nil
}

// FindEventsPath locates the event file in dir.
func FindEventsPath(dir string) (string, error) {
	return FindEventsPathWithWarnings(dir, nil)
}

// FindEventsPathWithWarnings is FindEventsPath that reports skipped editor
// and merge leftovers through warnFunc.
func FindEventsPathWithWarnings(dir string, warnFunc func(msg string)) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read content directory: %w", err)
	}

	var candidates, leftovers []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !IsEventsFile(name) {
			continue
		}
		if strings.Contains(name, ".backup") || strings.Contains(name, ".orig") || strings.Contains(name, ".merge") {
			leftovers = append(leftovers, name)
			continue
		}
		candidates = append(candidates, name)
	}

	if len(leftovers) > 0 && warnFunc != nil {
		warnFunc(fmt.Sprintf("ignoring leftover files: %s", strings.Join(leftovers, ", ")))
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoEventsFile, dir)
	}

	for _, preferred := range PreferredNames {
		for _, name := range candidates {
			if name != preferred {
				continue
			}
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Size() > 0 {
				return path, nil
			}
		}
	}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}
	return filepath.Join(dir, candidates[0]), nil
}

// IsEventsFile reports whether name has an extension the loader reads.
func IsEventsFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadEvents reads events from the content directory of root.
func LoadEvents(root string) ([]model.Event, error) {
	dir, err := GetContentDir(root)
	if err != nil {
		return nil, err
	}
	path, err := FindEventsPathWithWarnings(dir, defaultWarn())
	if err != nil {
		return nil, err
	}
	return LoadEventsFromFile(path)
}

// DefaultMaxBufferSize is the default maximum JSONL line size (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ParseOptions configures parsing.
type ParseOptions struct {
	// WarningHandler receives skipped-line messages. If nil, warnings go to
	// stderr unless CHRONARC_QUIET=1.
	WarningHandler func(string)

	// BufferSize caps the JSONL line length; longer lines are skipped.
	// 0 means DefaultMaxBufferSize.
	BufferSize int

	// EventFilter keeps only events for which it returns true.
	EventFilter func(*model.Event) bool
}

// LoadEventsFromFile reads a JSONL or YAML event file.
func LoadEventsFromFile(path string) ([]model.Event, error) {
	return LoadEventsFromFileWithOptions(path, ParseOptions{})
}

// LoadEventsFromFileWithOptions reads a file with custom options. The format
// is picked from the extension; anything not YAML is parsed as JSONL.
func LoadEventsFromFileWithOptions(path string, opts ParseOptions) ([]model.Event, error) {
	defer metrics.Timer(metrics.ContentLoad)()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no events found at %s", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer file.Close()

	var events []model.Event
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		events, err = ParseYAMLWithOptions(file, opts)
	default:
		events, err = ParseEventsWithOptions(file, opts)
	}
	if err != nil {
		return nil, err
	}
	debug.Log("loaded %d events from %s", len(events), path)
	return events, nil
}

// LoadStore reads a file and indexes it. Hierarchy problems are reported as
// warnings; they do not fail the load.
func LoadStore(path string, opts ParseOptions) (*eventstore.Store, error) {
	events, err := LoadEventsFromFileWithOptions(path, opts)
	if err != nil {
		return nil, err
	}
	store, err := eventstore.New(events)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", path, err)
	}
	warn := opts.WarningHandler
	if warn == nil {
		warn = defaultWarn()
	}
	for _, problem := range store.Verify() {
		warn(problem.Error())
	}
	return store, nil
}

// ParseEvents parses JSONL events from r.
func ParseEvents(r io.Reader) ([]model.Event, error) {
	return ParseEventsWithOptions(r, ParseOptions{})
}

// ParseEventsWithOptions parses JSONL with custom options. It strips a
// leading UTF-8 BOM and skips blank, oversized, malformed and invalid lines
// with a warning.
func ParseEventsWithOptions(r io.Reader, opts ParseOptions) ([]model.Event, error) {
	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)
	warn := opts.WarningHandler
	if warn == nil {
		warn = defaultWarn()
	}

	var events []model.Event
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading events stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var e model.Event
		if err := json.Unmarshal(line, &e); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if keep(&e, opts, warn, fmt.Sprintf("line %d", lineNum)) {
			events = append(events, e)
		}
	}
	return events, nil
}

// ParseYAMLWithOptions parses a YAML event document, applying the same
// validation and filtering as the JSONL path.
func ParseYAMLWithOptions(r io.Reader, opts ParseOptions) ([]model.Event, error) {
	warn := opts.WarningHandler
	if warn == nil {
		warn = defaultWarn()
	}
	decoded, err := content.Decode(r)
	if err != nil {
		return nil, err
	}
	events := decoded[:0]
	for i := range decoded {
		if keep(&decoded[i], opts, warn, fmt.Sprintf("entry %d", i+1)) {
			events = append(events, decoded[i])
		}
	}
	return events, nil
}

func keep(e *model.Event, opts ParseOptions, warn func(string), where string) bool {
	e.Normalize()
	if err := e.Validate(); err != nil {
		warn(fmt.Sprintf("skipping invalid event on %s: %v", where, err))
		return false
	}
	return opts.EventFilter == nil || opts.EventFilter(e)
}

func defaultWarn() func(string) {
	if os.Getenv(QuietEnvVar) == "1" {
		return func(string) {}
	}
	return func(msg string) {
		debug.Warn("%s", msg)
	}
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
