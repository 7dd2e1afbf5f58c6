// Package flags provides feature flag support for controlled feature rollout.
// Flags are read-only after initialization and provide safe defaults for unknown flags.
package flags

import (
	"maps"

	"github.com/zjrosen/diffnav/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagIntralineDiff highlights the changed words inside paired lines.
	FlagIntralineDiff = "intraline-diff"

	// FlagGitignoreFilter drops watcher events for paths the repository ignores.
	FlagGitignoreFilter = "gitignore-filter"

	// FlagUntrackedFiles shows untracked files as additions in working views.
	FlagUntrackedFiles = "untracked-files"
)

// Defaults returns the built-in flag values.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagIntralineDiff:   true,
		FlagGitignoreFilter: true,
		FlagUntrackedFiles:  true,
	}
}

// Registry holds feature flag state loaded from configuration.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
// If flags is nil, an empty registry is created (all flags disabled).
// The map is copied.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: maps.Clone(flags)}
	if r.flags == nil {
		r.flags = make(map[string]bool)
	}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// WithDefaults creates a Registry from Defaults with overrides applied.
func WithDefaults(overrides map[string]bool) *Registry {
	merged := Defaults()
	maps.Copy(merged, overrides)
	return New(merged)
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags (safe default).
// Returns false when called on nil registry (nil-safe).
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags (for debugging/logging).
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
