// Package flags holds the feature flags read from the config file's flags
// map. Flags are read-only once loaded; unknown names are off.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/vscroll/internal/log"
)

const (
	// FlagPersistCaches saves item cache snapshots to the sqlite store on exit
	// and rehydrates them on the next run.
	FlagPersistCaches = "persist-caches"

	// FlagWatchItems reloads item files when they change on disk.
	FlagWatchItems = "watch-items"
)

// Defaults returns the value of every known flag when the config is silent.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagPersistCaches: true,
		FlagWatchItems:    true,
	}
}

// Registry holds feature flag state.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from the config map layered over Defaults.
func New(flags map[string]bool) *Registry {
	merged := Defaults()
	maps.Copy(merged, flags)

	r := &Registry{flags: merged}
	log.Debug(log.CatConfig, "feature flags loaded", "count", len(merged), "flags", r.All())
	return r
}

// Enabled reports whether name is on. Unknown flags and a nil registry report
// false.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, ok := r.flags[name]
	if !ok {
		log.Debug(log.CatConfig, "unknown flag", "flag", name)
		return false
	}
	return value
}

// All returns a copy of every flag.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}

// Names returns the flag names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.flags))
}
