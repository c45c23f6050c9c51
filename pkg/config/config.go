// Package config handles loading and saving chronarc configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/chronarc/config.yaml
//   - State:   ~/.local/state/chronarc/ (exports, snapshots)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const appName = "chronarc"

// ContentConfig says where events come from.
type ContentConfig struct {
	Dir     string   `yaml:"dir,omitempty"`     // Content directory (default ./.chronarc)
	Sources []string `yaml:"sources,omitempty"` // Extra event files merged after Dir, first wins
	Sample  bool     `yaml:"sample,omitempty"`  // Fall back to the built-in curriculum
}

// RenderConfig controls arc snapshots.
type RenderConfig struct {
	Width      int    `yaml:"width,omitempty"`
	Height     int    `yaml:"height,omitempty"`
	Format     string `yaml:"format,omitempty"` // svg or png
	ShowLabels bool   `yaml:"show_labels,omitempty"`
}

// UIConfig holds TUI preferences.
type UIConfig struct {
	ShowHiddenCount bool `yaml:"show_hidden_count,omitempty"`
	ConfirmQuit     bool `yaml:"confirm_quit,omitempty"`
	Watch           bool `yaml:"watch,omitempty"` // Reload content on change
}

// GameConfig tunes the attack simulation.
type GameConfig struct {
	AttackSeed   int64   `yaml:"attack_seed,omitempty"`
	AttackChance float64 `yaml:"attack_chance,omitempty"` // Per safe event, 0..1
}

// Config is the top-level configuration.
type Config struct {
	Content ContentConfig `yaml:"content,omitempty"`
	Render  RenderConfig  `yaml:"render,omitempty"`
	UI      UIConfig      `yaml:"ui,omitempty"`
	Game    GameConfig    `yaml:"game,omitempty"`
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Content: ContentConfig{Sample: true},
		Render: RenderConfig{
			Width:      1200,
			Height:     480,
			Format:     "svg",
			ShowLabels: true,
		},
		UI: UIConfig{
			ShowHiddenCount: true,
			Watch:           true,
		},
		Game: GameConfig{
			AttackSeed:   1,
			AttackChance: 0.2,
		},
	}
}

// Validate checks ranges and enums.
func (c Config) Validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("%w: render size %dx%d", ErrInvalidConfig, c.Render.Width, c.Render.Height)
	}
	switch c.Render.Format {
	case "svg", "png":
	default:
		return fmt.Errorf("%w: render format %q (want svg or png)", ErrInvalidConfig, c.Render.Format)
	}
	if c.Game.AttackChance < 0 || c.Game.AttackChance > 1 {
		return fmt.Errorf("%w: attack_chance %v outside [0, 1]", ErrInvalidConfig, c.Game.AttackChance)
	}
	return nil
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Missing fields keep their
// defaults; a missing file yields DefaultConfig.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Content.Dir = expandHome(cfg.Content.Dir)
	for i := range cfg.Content.Sources {
		cfg.Content.Sources[i] = expandHome(cfg.Content.Sources[i])
	}
	cfg.Render.Format = strings.ToLower(strings.TrimSpace(cfg.Render.Format))

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
