// Package hooks runs user shell commands around exports and renders.
// Hooks are configured in hooks.yaml inside the content directory and run
// before the output is written (pre-export) or after it (post-export).
package hooks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the hook configuration file inside the content directory.
const FileName = "hooks.yaml"

// DefaultTimeout applies to hooks that set none.
const DefaultTimeout = 30 * time.Second

// HookPhase says when a hook runs relative to the write.
type HookPhase string

const (
	// PreExport runs before the output is written. Failure cancels it.
	PreExport HookPhase = "pre-export"
	// PostExport runs after the output is written. Failures are reported only.
	PostExport HookPhase = "post-export"
)

// OnError values.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// Timeout is a hook time limit. YAML accepts a Go duration ("5s") or a bare
// number of seconds.
type Timeout time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Timeout) UnmarshalYAML(node *yaml.Node) error {
	raw := strings.TrimSpace(node.Value)
	if d, err := time.ParseDuration(raw); err == nil {
		*t = Timeout(d)
		return nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("line %d: invalid timeout %q", node.Line, node.Value)
	}
	*t = Timeout(secs * float64(time.Second))
	return nil
}

// Hook is one shell command.
type Hook struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Timeout Timeout           `yaml:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"` // values may reference $CHRONARC_* and the process env
	OnError string            `yaml:"on_error,omitempty"`
}

// HooksByPhase lists the hooks of each phase in run order.
type HooksByPhase struct {
	PreExport  []Hook `yaml:"pre-export"`
	PostExport []Hook `yaml:"post-export"`
}

// Config is the parsed hooks.yaml.
type Config struct {
	Hooks HooksByPhase `yaml:"hooks"`
}

// Phase returns the hooks for phase, or nil for an unknown phase.
func (c *Config) Phase(phase HookPhase) []Hook {
	switch phase {
	case PreExport:
		return c.Hooks.PreExport
	case PostExport:
		return c.Hooks.PostExport
	}
	return nil
}

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return len(c.Hooks.PreExport) == 0 && len(c.Hooks.PostExport) == 0
}

// ExportContext describes the output a hook runs around. It reaches the
// hook as CHRONARC_* environment variables.
type ExportContext struct {
	ExportPath   string    // CHRONARC_EXPORT_PATH
	ExportFormat string    // CHRONARC_EXPORT_FORMAT: sqlite, json, markdown, svg or png
	EventCount   int       // CHRONARC_EVENT_COUNT: events in the exported view
	Depth        int       // CHRONARC_DEPTH: navigation depth of the exported view
	Timestamp    time.Time // CHRONARC_TIMESTAMP (RFC3339)
}

// ToEnv converts export context to environment variables
func (c ExportContext) ToEnv() []string {
	return []string{
		"CHRONARC_EXPORT_PATH=" + c.ExportPath,
		"CHRONARC_EXPORT_FORMAT=" + c.ExportFormat,
		"CHRONARC_EVENT_COUNT=" + strconv.Itoa(c.EventCount),
		"CHRONARC_DEPTH=" + strconv.Itoa(c.Depth),
		"CHRONARC_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Load reads hooks.yaml from dir. A missing file yields an empty config.
// Hooks without a command are dropped and reported in warnings.
func Load(dir string) (cfg *Config, warnings []string, err error) {
	cfg = &Config{}
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.Hooks.PreExport = withDefaults(cfg.Hooks.PreExport, PreExport, OnErrorFail, &warnings)
	cfg.Hooks.PostExport = withDefaults(cfg.Hooks.PostExport, PostExport, OnErrorContinue, &warnings)
	return cfg, warnings, nil
}

func withDefaults(hooks []Hook, phase HookPhase, onError string, warnings *[]string) []Hook {
	kept := hooks[:0]
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			*warnings = append(*warnings, fmt.Sprintf("%s hook %d has no command, skipped", phase, i+1))
			continue
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		if h.Timeout <= 0 {
			h.Timeout = Timeout(DefaultTimeout)
		}
		if h.OnError == "" {
			h.OnError = onError
		}
		kept = append(kept, h)
	}
	return kept
}
