package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrDuplicate is returned when a name and version are registered twice.
var ErrDuplicate = errors.New("registry: script already registered")

// Registry holds the installed scripts by name and version. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	scripts map[string][]Info
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{scripts: map[string][]Info{}}
}

// Register adds info after validating it.
func (r *Registry) Register(info Info) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("registry: invalid script %q: %w", info.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := r.scripts[info.Name]
	idx, found := slices.BinarySearchFunc(versions, info.Version, func(existing Info, version int) int {
		return existing.Version - version
	})
	if found {
		return fmt.Errorf("%w: %s version %d", ErrDuplicate, info.Name, info.Version)
	}
	r.scripts[info.Name] = slices.Insert(versions, idx, info)
	return nil
}

// Has reports whether the exact name and version is installed.
func (r *Registry) Has(name string, version int) bool {
	_, ok := r.exact(name, version)
	return ok
}

// Latest returns the highest installed version of name.
func (r *Registry) Latest(name string) (int, bool) {
	info, ok := r.latest(name)
	if !ok {
		return 0, false
	}
	return info.Version, true
}

// Find looks up a script. An unspecified version returns the newest. With
// forceExact only that version matches; otherwise the newest version able to
// load data saved by version is returned.
func (r *Registry) Find(name string, version int, forceExact bool) (Info, bool) {
	if version == -1 {
		return r.latest(name)
	}
	if forceExact {
		return r.exact(name, version)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.scripts[name]
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].CanLoadFromVersion(version) {
			return versions[i], true
		}
	}
	return Info{}, false
}

// Names returns the registered script names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Versions returns the installed versions of name in ascending order.
func (r *Registry) Versions(name string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := make([]int, 0, len(r.scripts[name]))
	for _, info := range r.scripts[name] {
		versions = append(versions, info.Version)
	}
	return versions
}

func (r *Registry) exact(name string, version int) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, info := range r.scripts[name] {
		if info.Version == version {
			return info, true
		}
	}
	return Info{}, false
}

func (r *Registry) latest(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.scripts[name]
	if len(versions) == 0 {
		return Info{}, false
	}
	return versions[len(versions)-1], true
}
