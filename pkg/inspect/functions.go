package inspect

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	scriptsave "github.com/goliatone/go-scriptsave"
)

// Function represents a callable registered against evaluators.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register stores fn under name guarding against duplicates. Names are case
// insensitive.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("inspect: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("inspect: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("inspect: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("inspect: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("inspect: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultFunctions returns a registry answering questions about catalog:
//
//	installed(name)          any version of name is installed
//	installed(name, version) exactly that version is installed
//	latest(name)             newest installed version, or -1
func DefaultFunctions(catalog scriptsave.Catalog) *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("installed", func(args ...any) (any, error) {
		if catalog == nil {
			return false, nil
		}
		switch len(args) {
		case 1:
			_, ok := catalog.Latest(toString(args[0]))
			return ok, nil
		case 2:
			version, err := toInt(args[1])
			if err != nil {
				return nil, fmt.Errorf("installed: %w", err)
			}
			return catalog.Has(toString(args[0]), version), nil
		default:
			return nil, fmt.Errorf("installed: expected 1 or 2 arguments, got %d", len(args))
		}
	})
	_ = registry.Register("latest", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("latest: expected 1 argument, got %d", len(args))
		}
		if catalog == nil {
			return scriptsave.VersionUnspecified, nil
		}
		version, ok := catalog.Latest(toString(args[0]))
		if !ok {
			return scriptsave.VersionUnspecified, nil
		}
		return version, nil
	})
	return registry
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("%T is not an integer", value)
	}
}
