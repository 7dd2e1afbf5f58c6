// Package config provides configuration types and defaults for diffnav.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/log"
	"github.com/zjrosen/diffnav/internal/tracing"
)

// Config holds all configuration options for diffnav.
type Config struct {
	Diff    DiffConfig      `mapstructure:"diff"`
	Watch   WatchConfig     `mapstructure:"watch"`
	UI      UIConfig        `mapstructure:"ui"`
	Tracing tracing.Config  `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// DiffConfig controls how diffs are retrieved.
type DiffConfig struct {
	IgnoreWhitespace bool          `mapstructure:"ignore_whitespace"`
	ContextLines     int           `mapstructure:"context_lines"` // 0 keeps git's default
	Concurrency      int           `mapstructure:"concurrency"`   // concurrent per-file git calls
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`     // 0 disables the result cache
}

// WatchConfig controls live reload.
type WatchConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Debounce     time.Duration `mapstructure:"debounce"`
	IgnoreGlobs  []string      `mapstructure:"ignore_globs"`
	UseGitignore bool          `mapstructure:"use_gitignore"`
}

// UIConfig holds terminal viewer options.
type UIConfig struct {
	ViewMode diff.ViewMode `mapstructure:"view_mode"` // "unified" (default) or "split"

	// SyntaxTheme is a chroma style name; empty disables highlighting.
	SyntaxTheme string      `mapstructure:"syntax_theme"`
	Theme       ThemeConfig `mapstructure:"theme"`
}

// ThemeConfig overrides viewer colors.
type ThemeConfig struct {
	// Preset names a built-in palette ("default" or "high-contrast").
	Preset string `mapstructure:"preset"`

	// Colors allows overriding individual color tokens.
	// Supports both nested YAML structure and dot notation.
	// Example YAML:
	//   colors:
	//     line:
	//       add: "#00FF00"
	// Or quoted dot notation:
	//   colors:
	//     "line.add": "#00FF00"
	Colors map[string]any `mapstructure:"colors"`
}

// FlattenedColors returns the Colors map flattened to dot-notation keys.
// This handles both nested YAML structures and already-flat keys.
func (t ThemeConfig) FlattenedColors() map[string]string {
	result := make(map[string]string)
	flattenColors("", t.Colors, result)
	return result
}

// flattenColors recursively flattens a nested map into dot-notation keys.
func flattenColors(prefix string, m map[string]any, result map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			result[key] = val
		case map[string]any:
			flattenColors(key, val, result)
		case map[any]any:
			// YAML sometimes produces map[any]any instead of map[string]any
			converted := make(map[string]any)
			for mk, mv := range val {
				if strKey, ok := mk.(string); ok {
					converted[strKey] = mv
				}
			}
			flattenColors(key, converted, result)
		}
	}
}

// ColorTokens lists the overridable color keys.
var ColorTokens = []string{
	"line.add",
	"line.delete",
	"line.context",
	"line.number",
	"cursor",
	"header",
	"status.error",
}

// DefaultTracesFilePath returns ~/.config/diffnav/traces/traces.jsonl, or
// "" when the home directory is unknown.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "diffnav", "traces", "traces.jsonl")
}

// DefaultIgnoreGlobs mirrors the watcher's defaults so they show up in
// written config files.
func DefaultIgnoreGlobs() []string {
	return []string{".git/objects", ".git/logs", ".git/refs", "node_modules", "vendor"}
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()

	return Config{
		Diff: DiffConfig{
			IgnoreWhitespace: false,
			ContextLines:     0,
			Concurrency:      8,
			CacheTTL:         5 * time.Minute,
		},
		Watch: WatchConfig{
			Enabled:      true,
			Debounce:     300 * time.Millisecond,
			IgnoreGlobs:  DefaultIgnoreGlobs(),
			UseGitignore: true,
		},
		UI: UIConfig{
			ViewMode:    diff.ViewUnified,
			SyntaxTheme: "monokai",
		},
		Tracing: tc,
	}
}

// Validate checks the configuration for errors. Empty values are valid
// and fall back to defaults.
func Validate(cfg Config) error {
	if cfg.Diff.ContextLines < 0 {
		return fmt.Errorf("diff.context_lines must not be negative, got %d", cfg.Diff.ContextLines)
	}
	if cfg.Diff.Concurrency < 0 {
		return fmt.Errorf("diff.concurrency must not be negative, got %d", cfg.Diff.Concurrency)
	}
	if cfg.Diff.CacheTTL < 0 {
		return fmt.Errorf("diff.cache_ttl must not be negative, got %s", cfg.Diff.CacheTTL)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.UI.ViewMode != "" && !cfg.UI.ViewMode.Valid() {
		return fmt.Errorf("ui.view_mode must be %q or %q, got %q", diff.ViewUnified, diff.ViewSplit, cfg.UI.ViewMode)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	switch tc.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
	}

	// Only validate path requirements when tracing is enabled
	if tc.Enabled {
		if tc.Exporter == tracing.ExporterFile && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == tracing.ExporterOTLP && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# diffnav configuration

# Diff retrieval
diff:
  ignore_whitespace: false  # Pass -w to git diff
  context_lines: 0          # Lines of context (0 = git default of 3)
  concurrency: 8            # Concurrent per-file git invocations
  cache_ttl: 5m             # Reuse loaded diffs until a change is seen (0 disables)

# Live reload
watch:
  enabled: true
  debounce: 300ms           # Quiet period before a reload fires
  use_gitignore: true       # Drop events for paths the repository ignores
  ignore_globs:
    - .git/objects
    - .git/logs
    - .git/refs
    - node_modules
    - vendor

# Terminal viewer
ui:
  view_mode: unified        # "unified" or "split"
  syntax_theme: monokai     # Any chroma style name, empty to disable highlighting
  # theme:
  #   preset: default         # "default" or "high-contrast"
  #   colors:
  #     line.add: "#73F59F"
  #     line.delete: "#FF8787"
  #     cursor: "#54A0FF"

# Tracing of diff loading
# tracing:
#   enabled: false
#   exporter: file                 # none, file, stdout, otlp
#   file_path: ~/.config/diffnav/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0

# Feature flags
# flags:
#   intraline-diff: true
#   gitignore-filter: true
#   untracked-files: true
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
